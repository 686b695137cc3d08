package domain

import (
	"context"
	"math"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Location is the decision point, optionally named.
type Location struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon     float64 `json:"lon" validate:"gte=-180,lte=180"`
	Region  string  `json:"region,omitempty"`
	Country string  `json:"country,omitempty"`

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "forward", "reverse", "original", "failed"
}

// HasCoordinates reports whether the location carries a usable coordinate.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lon != 0
}

// ValidCoordinate reports whether lat and lon are finite and inside the
// WGS84 ranges. NaN fails every range comparison, so it is checked first.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DecisionRequest is one irrigation question: where, how large, which crop,
// and what the weather looks like.
type DecisionRequest struct {
	ID               string         `json:"id,omitempty"`
	Location         Location       `json:"location"`
	Mode             PlatformMode   `json:"mode,omitempty" validate:"omitempty,oneof=individual regional"`
	Profile          UserProfile    `json:"profile,omitempty" validate:"omitempty,oneof=home_garden small_scale commercial"`
	Area             float64        `json:"area" validate:"gt=0"` // m² individual, km² regional
	Crop             string         `json:"crop,omitempty"`
	CropCoefficient  float64        `json:"kc,omitempty" validate:"gte=0,lte=3"`
	Current          *Conditions    `json:"current,omitempty"`
	Forecast         []ForecastSlot `json:"forecast,omitempty"`
	DroughtRiskScore *float64       `json:"drought_risk_score,omitempty"`
	ObservedAt       time.Time      `json:"observed_at,omitempty"`
}

// Decision is the full engine output for one request.
type Decision struct {
	ID             string                `json:"id"`
	Request        DecisionRequest       `json:"request"`
	ET0            float64               `json:"et0"`
	WaterNeed      float64               `json:"water_need"`
	Suitability    SuitabilityAnalysis   `json:"suitability"`
	Drought        DroughtAssessment     `json:"drought"`
	Regional       RegionalIntelligence  `json:"regional"`
	Risk           RiskAssessment        `json:"risk"`
	Strategy       StrategyDecision      `json:"strategy"`
	Confidence     float64               `json:"confidence"`
	Sustainability SustainabilityMetrics `json:"sustainability"`
	Scenarios      ScenarioSet           `json:"scenarios"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
