package domain

import (
	"fmt"
	"strings"
)

// Regional dataset names. They double as file basenames in the datasets dir.
const (
	DatasetWaterResources = "water_resources"
	DatasetDroughtRisk    = "drought_risk"
	DatasetAgricultural   = "agricultural_data"
)

// RiskLevel grades an individual risk factor. Info and warning factors are
// informational and never enter the weighted overall risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskInfo    RiskLevel = "info"
	RiskWarning RiskLevel = "warning"
)

// WaterResources is a matched row of the water resources dataset.
// Numeric fields are nil when the row does not carry a usable value.
// Surface water availability is kept as written, either a Low/Medium/High
// label or a number.
type WaterResources struct {
	Available                bool     `json:"data_available"`
	RegionName               string   `json:"region_name,omitempty"`
	GroundwaterLevel         *float64 `json:"groundwater_level,omitempty"`
	SurfaceWaterAvailability string   `json:"surface_water_availability,omitempty"`
	WaterStressIndex         *float64 `json:"water_stress_index,omitempty"`
	DataSource               string   `json:"data_source,omitempty"`
	LastUpdated              string   `json:"last_updated,omitempty"`
	MeasurementUnit          string   `json:"measurement_unit,omitempty"`
}

// DroughtRisk is a matched row of the drought risk dataset.
type DroughtRisk struct {
	Available       bool     `json:"data_available"`
	RegionName      string   `json:"region_name,omitempty"`
	SPIIndex        *float64 `json:"spi_index,omitempty"`
	DroughtSeverity string   `json:"drought_severity,omitempty"`
	HistoricalTrend string   `json:"historical_trend,omitempty"`
	DataSource      string   `json:"data_source,omitempty"`
	LastUpdated     string   `json:"last_updated,omitempty"`
	ForecastPeriod  string   `json:"forecast_period,omitempty"`
}

// AgriculturalContext is a matched row of the agricultural dataset.
type AgriculturalContext struct {
	Available             bool     `json:"data_available"`
	RegionName            string   `json:"region_name,omitempty"`
	CropYieldTrend        string   `json:"crop_yield_trend,omitempty"`
	IrrigationCoverage    *float64 `json:"irrigation_coverage,omitempty"`
	FarmerAdoptionRate    *float64 `json:"farmer_adoption_rate,omitempty"`
	DataSource            string   `json:"data_source,omitempty"`
	LastUpdated           string   `json:"last_updated,omitempty"`
	DominantCrop          string   `json:"dominant_crop,omitempty"`
	TotalAgriculturalArea *float64 `json:"total_agricultural_area,omitempty"`
}

// RiskFactor is one line of a risk breakdown.
type RiskFactor struct {
	Factor      string    `json:"factor"`
	Level       RiskLevel `json:"level"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
}

// RegionalInsights is the composite summary over all regional records.
type RegionalInsights struct {
	Available              bool         `json:"data_available"`
	WaterAvailabilityScore *float64     `json:"water_availability_score,omitempty"`
	RiskFactors            []RiskFactor `json:"risk_factors"`
	Recommendations        []string     `json:"recommendations"`
}

// RegionalIntelligence bundles everything known about the decision location
// beyond the weather. It is built per request and never shared.
type RegionalIntelligence struct {
	Water          WaterResources      `json:"water_resources"`
	Drought        DroughtRisk         `json:"drought_risk"`
	Agriculture    AgriculturalContext `json:"agricultural_data"`
	Basin          BasinAssessment     `json:"watershed"`
	Insights       RegionalInsights    `json:"regional_insights"`
	DatasetsLoaded []string            `json:"datasets_loaded"`
}

// HasTabularData reports whether any of the three regional tables matched.
func (r RegionalIntelligence) HasTabularData() bool {
	return r.Water.Available || r.Drought.Available || r.Agriculture.Available
}

func sourceOr(source, fallback string) string {
	if source != "" {
		return source
	}
	return fallback
}

// DeriveRegionalInsights builds the composite insight summary from the three
// regional records.
func DeriveRegionalInsights(w WaterResources, d DroughtRisk, a AgriculturalContext) RegionalInsights {
	insights := RegionalInsights{
		Available:       w.Available || d.Available || a.Available,
		RiskFactors:     []RiskFactor{},
		Recommendations: []string{},
	}
	if !insights.Available {
		return insights
	}

	if w.WaterStressIndex != nil {
		score := clamp((1-*w.WaterStressIndex)*100, 0, 100)
		insights.WaterAvailabilityScore = &score
	}

	if w.Available && w.WaterStressIndex != nil {
		stress := *w.WaterStressIndex
		switch {
		case stress > 0.7:
			insights.RiskFactors = append(insights.RiskFactors, RiskFactor{
				Factor:      "High water stress",
				Level:       RiskHigh,
				Description: fmt.Sprintf("Water stress index: %.2f", stress),
				Source:      sourceOr(w.DataSource, "Water Dataset"),
			})
		case stress > 0.4:
			insights.RiskFactors = append(insights.RiskFactors, RiskFactor{
				Factor:      "Moderate water stress",
				Level:       RiskMedium,
				Description: fmt.Sprintf("Water stress index: %.2f", stress),
				Source:      sourceOr(w.DataSource, "Water Dataset"),
			})
		}
	}

	if d.Available && d.DroughtSeverity != "" {
		severity := strings.ToLower(d.DroughtSeverity)
		level := RiskLevel("")
		switch {
		case strings.Contains(severity, "extreme"), strings.Contains(severity, "severe"):
			level = RiskHigh
		case strings.Contains(severity, "moderate"):
			level = RiskMedium
		}
		if level != "" {
			insights.RiskFactors = append(insights.RiskFactors, RiskFactor{
				Factor:      "Drought risk",
				Level:       level,
				Description: "Drought severity: " + d.DroughtSeverity,
				Source:      sourceOr(d.DataSource, "Drought Dataset"),
			})
		}
	}

	if w.Available && w.WaterStressIndex != nil && *w.WaterStressIndex > 0.5 {
		insights.Recommendations = append(insights.Recommendations,
			"Adopt water saving measures",
			"Evaluate a transition to drip irrigation",
		)
	}
	if d.Available && strings.Contains(strings.ToLower(d.HistoricalTrend), "worsening") {
		insights.Recommendations = append(insights.Recommendations,
			"Plan long-term water storage")
	}
	if a.Available && a.FarmerAdoptionRate != nil && *a.FarmerAdoptionRate < 30 {
		insights.Recommendations = append(insights.Recommendations,
			"Expand adoption of smart irrigation systems")
	}

	return insights
}
