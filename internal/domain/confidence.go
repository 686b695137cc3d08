package domain

// DecisionConfidence scores how much trust a decision deserves, from 0 to 100.
// It sums fixed bands for forecast completeness, ET0 plausibility, strategy
// certainty and weather stability, plus a bonus when rain is forecast.
func DecisionConfidence(forecastSlots int, et0 float64, strategy Strategy, weatherRisk RiskLevel, rainExpected bool) float64 {
	var score float64

	switch {
	case forecastSlots >= 8:
		score += 40
	case forecastSlots >= 5:
		score += 30
	case forecastSlots >= 3:
		score += 20
	default:
		score += 10
	}

	switch {
	case et0 > 0 && et0 < 10:
		score += 25
	case et0 > 0 && et0 < 15:
		score += 20
	default:
		score += 15
	}

	switch strategy {
	case StrategyWaterSaving:
		score += 20
	case StrategyRiskAware:
		score += 15
	default:
		score += 18
	}

	switch weatherRisk {
	case RiskLow:
		score += 15
	case RiskMedium:
		score += 10
	default:
		score += 5
	}

	// Rain forecasts are a high-certainty signal.
	if rainExpected {
		score += 5
	}

	return roundTo(clamp(score, 0, 100), 1)
}
