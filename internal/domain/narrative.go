package domain

import (
	"fmt"
	"strings"
)

// UserProfile tunes the wording of individual-mode recommendations.
type UserProfile string

const (
	ProfileHomeGarden UserProfile = "home_garden"
	ProfileSmallScale UserProfile = "small_scale"
	ProfileCommercial UserProfile = "commercial"
)

// CropCoefficients are the default Kc values per crop, used when a request
// names a crop but no coefficient.
var CropCoefficients = map[string]float64{
	"mixed_vegetables": 1.0,
	"tomato":           1.05,
	"pepper":           1.0,
	"flowers":          0.95,
	"lawn":             0.9,
	"wheat":            1.0,
	"corn":             1.2,
	"sugar_beet":       1.15,
	"alfalfa":          1.05,
	"cotton":           1.15,
}

func (p UserProfile) adaptTone(recommendation string) string {
	switch p {
	case ProfileHomeGarden:
		return strings.ReplaceAll(recommendation, "should be", "can be")
	case ProfileCommercial:
		return recommendation + " Technical detail: volumes use the crop coefficient and field area."
	default:
		return recommendation
	}
}

type narrative struct {
	recommendation string
	rationale      []string
	actions        []string
}

func narrate(s Strategy, t Trigger, in StrategyInput) narrative {
	regional := in.Mode == ModeRegional
	switch s {
	case StrategyWaterSaving:
		switch t {
		case TriggerDrought:
			return droughtNarrative(in, regional)
		case TriggerBasin:
			return basinNarrative(in, regional)
		default:
			return conservationNarrative(in, regional)
		}
	case StrategyRiskAware:
		return riskAwareNarrative(in, regional)
	default:
		return recommendedNarrative(in, regional)
	}
}

func conservationNarrative(in StrategyInput, regional bool) narrative {
	reason := "Plant water demand is minimal"
	if in.RainExpected {
		reason = "Rain is expected soon"
	}
	if regional {
		return narrative{
			recommendation: "Policy advice: postpone irrigation to protect regional water security. " +
				"Current conditions and expected rainfall keep irrigation demand minimal.",
			rationale: []string{
				fmt.Sprintf("ET0 %.2f mm, low reference evaporation", in.ET0),
				reason,
				"Regional water resources take priority",
			},
			actions: []string{
				"Postpone irrigation operations and keep protocol compliance",
				"Re-evaluate after the rainfall",
				"Review water storage and distribution systems",
			},
		}
	}
	return narrative{
		recommendation: fmt.Sprintf("Advice: no irrigation is needed right now. %s; this saves water.", reason),
		rationale: []string{
			fmt.Sprintf("ET0 %.2f mm, low evaporation", in.ET0),
			reason,
			fmt.Sprintf("Decision tuned for a %.0f m² area", in.Area),
		},
		actions: []string{
			"Skip irrigation and save water",
			"Observe the plants",
			"Check conditions after the rain",
		},
	}
}

func droughtNarrative(in StrategyInput, regional bool) narrative {
	category := fmt.Sprintf("SPI drought category: %s", in.Drought.Category)
	if regional {
		return narrative{
			recommendation: "Policy advice: the SPI record shows high or extreme drought risk in the region. " +
				"Water saving mode is advised and irrigation should be postponed.",
			rationale: []string{category, "Regional water resources take priority"},
			actions: []string{
				"Postpone irrigation operations",
				"Keep monitoring SPI and drought conditions",
				"Review water storage and distribution systems",
			},
		}
	}
	return narrative{
		recommendation: "Advice: high drought risk (SPI) was detected in the area. " +
			"Apply water saving mode; irrigation should be postponed.",
		rationale: []string{category, fmt.Sprintf("Decision tuned for a %.0f m² area", in.Area)},
		actions: []string{
			"Skip irrigation and save water",
			"Observe the plants",
			"Follow drought updates",
		},
	}
}

func basinNarrative(in StrategyInput, regional bool) narrative {
	if regional {
		return narrative{
			recommendation: "Policy advice: the watershed record shows high water stress. " +
				"Water saving mode is advised and irrigation should be postponed to protect the basin.",
			rationale: []string{"Basin water stress: high", "Regional water resources take priority"},
			actions: []string{
				"Postpone irrigation operations",
				"Monitor the basin water status",
				"Review water storage and distribution systems",
			},
		}
	}
	return narrative{
		recommendation: "Advice: the basin of the selected location is under high water stress. " +
			"Apply water saving mode; irrigation should be postponed.",
		rationale: []string{"Basin water stress: high", fmt.Sprintf("Decision tuned for a %.0f m² area", in.Area)},
		actions: []string{
			"Skip irrigation and save water",
			"Observe the plants",
			"Follow basin updates",
		},
	}
}

func riskAwareNarrative(in StrategyInput, regional bool) narrative {
	c := in.Conditions
	if regional {
		first := fmt.Sprintf("ET0 %.2f mm, high", in.ET0)
		if in.DroughtRiskScore != nil && *in.DroughtRiskScore != 0 {
			first = fmt.Sprintf("Drought risk score: %.2f", *in.DroughtRiskScore)
		}
		return narrative{
			recommendation: "Policy advice: high-risk conditions detected. A risk-aware irrigation plan " +
				"should be applied and water use minimized; evaluate alternative sources and restrictions.",
			rationale: []string{
				first,
				fmt.Sprintf("Temperature %.1f°C raises evaporation risk; humidity %.0f%%", c.Temperature, c.Humidity),
				"Pressure on regional water resources",
			},
			actions: []string{
				"Activate emergency water management protocols",
				"Notify farmers and stakeholders about restrictions",
				"Evaluate alternative water sources",
				"Monitor and report daily water use",
			},
		}
	}
	return narrative{
		recommendation: "Advice: irrigate with care. High temperature or low humidity increase water loss; " +
			"targeted irrigation keeps efficiency up.",
		rationale: []string{
			fmt.Sprintf("ET0 %.2f mm, high evaporation", in.ET0),
			fmt.Sprintf("Temperature %.1f°C, humidity %.0f%%", c.Temperature, c.Humidity),
			fmt.Sprintf("Risk assessed for a %.0f m² area", in.Area),
		},
		actions: []string{
			"Irrigate early in the morning or late in the evening",
			"Prefer drip irrigation to cut losses",
			"Focus on the root zone",
			"Consider shading or mulch",
		},
	}
}

func recommendedNarrative(in StrategyInput, regional bool) narrative {
	c := in.Conditions
	if regional {
		return narrative{
			recommendation: "Policy advice: conditions are optimal. Standard protocols can be applied " +
				"to regional irrigation and scheduling can proceed.",
			rationale: []string{
				fmt.Sprintf("ET0 %.2f mm, optimal range", in.ET0),
				fmt.Sprintf("Temperature %.1f°C, humidity %.0f%%, suitable", c.Temperature, c.Humidity),
				fmt.Sprintf("Regional area %.0f km²", in.Area),
			},
			actions: []string{
				"Apply standard irrigation protocols",
				"Follow the optimal irrigation hours",
				"Monitor and report water use efficiency",
				"Brief regional farmers and stakeholders",
			},
		}
	}
	return narrative{
		recommendation: fmt.Sprintf("Advice: conditions suit irrigation. An optimized plan for %.0f m² "+
			"can be applied with high water efficiency.", in.Area),
		rationale: []string{
			fmt.Sprintf("ET0 %.2f mm, optimal evaporation", in.ET0),
			fmt.Sprintf("Temperature %.1f°C, humidity %.0f%%", c.Temperature, c.Humidity),
			fmt.Sprintf("Computed for a %.0f m² area", in.Area),
		},
		actions: []string{
			"Irrigate at the suggested hour",
			"Optimize the water amount",
			"Adjust to plant needs",
			"Observe after irrigating",
		},
	}
}
