package domain

import "math"

// Scenario names.
const (
	ScenarioToday       = "today"
	ScenarioDelay       = "delay"
	ScenarioWaterSaving = "water_saving"
	ScenarioNormal      = "normal"
)

// Scenario is one what-if projection.
type Scenario struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Water       float64 `json:"water"`
	Score       float64 `json:"score"`
}

// ScenarioSet compares four alternative responses to the same conditions.
type ScenarioSet struct {
	Scenarios       []Scenario `json:"scenarios"`
	Best            string     `json:"best"`
	Worst           string     `json:"worst"`
	WaterDifference float64    `json:"water_difference"`
	Recommended     string     `json:"recommended"`
}

// SimulateScenarios projects water use for irrigating today, delaying,
// conserving and an unoptimized baseline. forecastAvailable selects the
// ET0-based delay projection.
func SimulateScenarios(baseline, et0 float64, rainExpected, forecastAvailable bool) ScenarioSet {
	today := Scenario{Name: ScenarioToday, Description: "Irrigate today", Water: baseline, Score: 75}
	if rainExpected || et0 < 2 {
		today.Water = 0
		today.Score = 95
	}

	delay := Scenario{Name: ScenarioDelay, Description: "Delay irrigation by one day"}
	if forecastAvailable {
		futureET0 := et0 * 0.9
		delay.Water = baseline * (futureET0 / math.Max(et0, 0.1))
		delay.Score = 70
		if futureET0 < et0 {
			delay.Score = 85
		}
	} else {
		delay.Water = baseline * 1.1
		delay.Score = 65
	}

	scenarios := []Scenario{
		today,
		delay,
		{Name: ScenarioWaterSaving, Description: "Deficit irrigation", Water: baseline * 0.6, Score: 90},
		{Name: ScenarioNormal, Description: "Unoptimized irrigation", Water: baseline * 1.2, Score: 60},
	}
	for i := range scenarios {
		scenarios[i].Water = roundTo(scenarios[i].Water, 1)
	}

	best, worst := 0, 0
	for i, s := range scenarios {
		if s.Water < scenarios[best].Water {
			best = i
		}
		if s.Water > scenarios[worst].Water {
			worst = i
		}
	}

	return ScenarioSet{
		Scenarios:       scenarios,
		Best:            scenarios[best].Name,
		Worst:           scenarios[worst].Name,
		WaterDifference: roundTo(scenarios[worst].Water-scenarios[best].Water, 1),
		Recommended:     ScenarioToday,
	}
}
