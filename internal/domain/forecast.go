package domain

import (
	"math"
	"time"
)

// DefaultForecastWindow is the number of forecast slots considered when
// looking for an irrigation window (8 three-hour slots = 24 hours).
const DefaultForecastWindow = 8

// Conditions holds the current weather observation at the decision location.
type Conditions struct {
	Temperature float64 `json:"temperature" validate:"gte=-60,lte=60"` // °C
	Humidity    float64 `json:"humidity" validate:"gte=0,lte=100"`     // %
	WindSpeed   float64 `json:"wind_speed" validate:"gte=0"`           // m/s
}

// ForecastSlot is one record of the provider's forecast list.
type ForecastSlot struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Rain        bool      `json:"rain"`
}

// ScoredSlot pairs a forecast slot with its irrigation suitability.
type ScoredSlot struct {
	Slot  ForecastSlot `json:"slot"`
	Score float64      `json:"score"`
}

// SuitabilityAnalysis is the scored forecast window.
type SuitabilityAnalysis struct {
	Slots        []ScoredSlot `json:"slots"`
	Best         *ScoredSlot  `json:"best,omitempty"`
	RainExpected bool         `json:"rain_expected"`
}

// SlotSuitability scores a slot for irrigation. Humid, cool and calm slots
// score higher. The raw value is kept, negative scores included.
func SlotSuitability(s ForecastSlot) float64 {
	return 0.4*s.Humidity - 0.3*s.Temperature - 0.6*s.WindSpeed
}

// AnalyzeForecast scores the first window slots. A non-positive window falls
// back to DefaultForecastWindow. Ties for the best slot go to the earliest one.
func AnalyzeForecast(slots []ForecastSlot, window int) SuitabilityAnalysis {
	if window <= 0 {
		window = DefaultForecastWindow
	}
	if len(slots) > window {
		slots = slots[:window]
	}

	analysis := SuitabilityAnalysis{Slots: make([]ScoredSlot, 0, len(slots))}
	bestIdx := -1
	for i, s := range slots {
		scored := ScoredSlot{Slot: s, Score: SlotSuitability(s)}
		analysis.Slots = append(analysis.Slots, scored)
		if s.Rain {
			analysis.RainExpected = true
		}
		if bestIdx < 0 || scored.Score > analysis.Slots[bestIdx].Score {
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		best := analysis.Slots[bestIdx]
		analysis.Best = &best
	}
	return analysis
}

// ReferenceET0 estimates reference evapotranspiration in mm from current
// conditions. The result is floored at zero and rounded to two decimals.
func ReferenceET0(c Conditions) float64 {
	et0 := 0.35*c.Temperature + 0.45*c.WindSpeed - 0.25*(c.Humidity/100)
	return roundTo(math.Max(0, et0), 2)
}

// WaterNeed returns the irrigation requirement in liters for a field of
// area m². One mm of ET0 over one m² is one liter.
func WaterNeed(et0, area, kc float64) float64 {
	return roundTo(et0*area*kc, 1)
}

// RegionalWaterNeed returns the baseline volume for a region of areaKm2.
func RegionalWaterNeed(et0, areaKm2 float64) float64 {
	return roundTo(et0*areaKm2*1000, 1)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
