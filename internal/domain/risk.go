package domain

import (
	"fmt"
	"strings"
)

// RiskAssessment combines the meteorological risk with regional datasets.
type RiskAssessment struct {
	Overall            RiskLevel       `json:"overall_risk"`
	Base               RiskLevel       `json:"base_risk"`
	Factors            []RiskFactor    `json:"risk_factors"`
	RegionalData       bool            `json:"regional_data_available"`
	Source             string          `json:"data_source"`
	DatasetsIntegrated map[string]bool `json:"datasets_integrated"`
}

type weightedLevel struct {
	level  RiskLevel
	weight float64
}

var levelScores = map[RiskLevel]float64{RiskLow: 1, RiskMedium: 2, RiskHigh: 3}

// AssessRegionalRisk grades the overall risk as a weighted mean of the ET0
// base risk, water stress and drought severity.
func AssessRegionalRisk(et0 float64, ri RegionalIntelligence) RiskAssessment {
	base := RiskLow
	switch {
	case et0 > 5:
		base = RiskHigh
	case et0 > 3:
		base = RiskMedium
	}

	factors := []RiskFactor{{
		Factor:      "Evapotranspiration",
		Level:       base,
		Description: fmt.Sprintf("ET0: %.2f mm", et0),
		Source:      "Weather API",
	}}
	levels := []weightedLevel{{level: base, weight: 1.0}}

	if w := ri.Water; w.Available {
		source := sourceOr(w.DataSource, "Water Dataset")
		if w.WaterStressIndex != nil {
			stress := *w.WaterStressIndex
			lvl, weight := RiskLow, 0.8
			switch {
			case stress > 0.7:
				lvl, weight = RiskHigh, 1.2
			case stress > 0.4:
				lvl, weight = RiskMedium, 1.0
			}
			factors = append(factors, RiskFactor{
				Factor: "Water resource stress", Level: lvl, Source: source,
				Description: fmt.Sprintf("Water stress index: %.2f", stress),
			})
			levels = append(levels, weightedLevel{lvl, weight})
		}
		if w.GroundwaterLevel != nil {
			factors = append(factors, RiskFactor{
				Factor: "Groundwater level", Level: RiskInfo, Source: source,
				Description: fmt.Sprintf("Level: %g", *w.GroundwaterLevel),
			})
		}
	}

	if d := ri.Drought; d.Available {
		source := sourceOr(d.DataSource, "Drought Dataset")
		if d.DroughtSeverity != "" {
			sev := strings.ToLower(d.DroughtSeverity)
			lvl, weight := RiskLow, 0.8
			switch {
			case strings.Contains(sev, "extreme"):
				lvl, weight = RiskHigh, 1.5
			case strings.Contains(sev, "severe"):
				lvl, weight = RiskHigh, 1.3
			case strings.Contains(sev, "moderate"):
				lvl, weight = RiskMedium, 1.0
			}
			factors = append(factors, RiskFactor{
				Factor: "Drought status", Level: lvl, Source: source,
				Description: "Severity: " + d.DroughtSeverity,
			})
			levels = append(levels, weightedLevel{lvl, weight})
		}
		if d.HistoricalTrend != "" {
			lvl := RiskInfo
			if strings.Contains(strings.ToLower(d.HistoricalTrend), "worsening") {
				lvl = RiskWarning
			}
			factors = append(factors, RiskFactor{
				Factor: "Drought trend", Level: lvl, Source: source,
				Description: "Trend: " + d.HistoricalTrend,
			})
		}
	}

	if a := ri.Agriculture; a.Available {
		source := sourceOr(a.DataSource, "Agricultural Dataset")
		if a.IrrigationCoverage != nil {
			factors = append(factors, RiskFactor{
				Factor: "Irrigation infrastructure", Level: RiskInfo, Source: source,
				Description: fmt.Sprintf("Coverage: %.1f%%", *a.IrrigationCoverage),
			})
		}
		if a.CropYieldTrend != "" {
			factors = append(factors, RiskFactor{
				Factor: "Yield trend", Level: RiskInfo, Source: source,
				Description: "Trend: " + a.CropYieldTrend,
			})
		}
	}

	var weighted, total float64
	for _, l := range levels {
		weighted += levelScores[l.level] * l.weight
		total += l.weight
	}
	avg := weighted / total

	overall := RiskLow
	switch {
	case avg >= 2.5:
		overall = RiskHigh
	case avg >= 1.5:
		overall = RiskMedium
	}

	factors = append(factors, ri.Insights.RiskFactors...)

	regional := ri.HasTabularData()
	source := "Weather API only"
	if regional {
		source = "Composite analysis"
	}

	return RiskAssessment{
		Overall:      overall,
		Base:         base,
		Factors:      factors,
		RegionalData: regional,
		Source:       source,
		DatasetsIntegrated: map[string]bool{
			DatasetWaterResources: ri.Water.Available,
			DatasetDroughtRisk:    ri.Drought.Available,
			DatasetAgricultural:   ri.Agriculture.Available,
		},
	}
}
