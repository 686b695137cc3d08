package domain

// savedShare is the fraction of the baseline each strategy counts as saved.
var savedShare = map[Strategy]float64{
	StrategyWaterSaving: 1.0,
	StrategyRiskAware:   0.2,
	StrategyRecommended: 0.1,
}

// ScoreBreakdown holds the three sub-scores behind the sustainability score.
type ScoreBreakdown struct {
	Efficiency    float64 `json:"efficiency"`
	Timing        float64 `json:"timing"`
	Environmental float64 `json:"environmental"`
}

// RegionalFactors are the multiplicative factors derived from regional data.
// A nil factor had no data behind it.
type RegionalFactors struct {
	WaterAvailability      *float64 `json:"water_availability,omitempty"`
	DroughtImpact          *float64 `json:"drought_impact,omitempty"`
	AgriculturalEfficiency *float64 `json:"agricultural_efficiency,omitempty"`
	BasinStress            *float64 `json:"basin_stress,omitempty"`
}

// RegionalAdjustment records how regional context moved the score.
type RegionalAdjustment struct {
	Factors       RegionalFactors `json:"factors"`
	Composite     float64         `json:"composite"`
	OriginalScore float64         `json:"original_score"`
}

// SustainabilityMetrics describe the conservation impact of a strategy.
type SustainabilityMetrics struct {
	BaseWater   float64             `json:"base_water"`
	WaterSaved  float64             `json:"water_saved"`
	Score       float64             `json:"score"`
	Breakdown   ScoreBreakdown      `json:"breakdown"`
	CostSaved   float64             `json:"cost_saved"`
	CO2Saved    float64             `json:"co2_saved_kg"`
	ImpactLevel RiskLevel           `json:"impact_level"`
	Regional    *RegionalAdjustment `json:"regional_adjustment,omitempty"`
}

// ComputeSustainability derives conservation metrics for a strategy against
// the water-need baseline.
func ComputeSustainability(baseline, et0 float64, rainExpected bool, strategy Strategy, mode PlatformMode) SustainabilityMetrics {
	saved := baseline * savedShare[strategy]

	efficiency := 100.0
	if baseline > 0 {
		efficiency = min(100, saved/baseline*100)
	}

	timing := 80.0
	switch {
	case rainExpected:
		timing = 100
	case strategy == StrategyWaterSaving:
		timing = 95
	}

	environmental := clamp(100-et0*5, 0, 100)
	score := clamp(0.4*efficiency+0.3*timing+0.3*environmental, 0, 100)

	cost := saved * 0.01
	if mode == ModeRegional {
		cost *= 10
	}
	co2 := saved / 1000 * 0.5

	impact := RiskLow
	switch {
	case co2 > 10:
		impact = RiskHigh
	case co2 > 5:
		impact = RiskMedium
	}

	return SustainabilityMetrics{
		BaseWater:  baseline,
		WaterSaved: roundTo(saved, 1),
		Score:      roundTo(score, 1),
		Breakdown: ScoreBreakdown{
			Efficiency:    roundTo(efficiency, 1),
			Timing:        timing,
			Environmental: roundTo(environmental, 1),
		},
		CostSaved:   roundTo(cost, 2),
		CO2Saved:    roundTo(co2, 2),
		ImpactLevel: impact,
	}
}

// WithRegionalContext re-weights the score by the mean of the regional
// factors that have data. The original score is kept in the adjustment.
func (m SustainabilityMetrics) WithRegionalContext(ri RegionalIntelligence) SustainabilityMetrics {
	var f RegionalFactors
	var factors []float64

	if ri.Water.Available && ri.Water.WaterStressIndex != nil {
		v := clamp(1+(0.5-*ri.Water.WaterStressIndex), 0.5, 1.5)
		f.WaterAvailability = &v
		factors = append(factors, v)
	}
	if ri.Drought.Available && ri.Drought.SPIIndex != nil {
		v := clamp(1+*ri.Drought.SPIIndex/6, 0.5, 1.2)
		f.DroughtImpact = &v
		factors = append(factors, v)
	}
	if ri.Agriculture.Available && ri.Agriculture.FarmerAdoptionRate != nil {
		v := clamp(0.8+*ri.Agriculture.FarmerAdoptionRate/250, 0.8, 1.2)
		f.AgriculturalEfficiency = &v
		factors = append(factors, v)
	}
	if ri.Basin.Stressed() {
		v := 0.85
		f.BasinStress = &v
		factors = append(factors, v)
	}

	if len(factors) == 0 {
		return m
	}

	var sum float64
	for _, v := range factors {
		sum += v
	}
	composite := sum / float64(len(factors))

	m.Regional = &RegionalAdjustment{
		Factors:       f,
		Composite:     roundTo(composite, 3),
		OriginalScore: m.Score,
	}
	m.Score = roundTo(clamp(m.Score*composite, 0, 100), 1)
	return m
}
