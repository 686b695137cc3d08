package domain

import (
	"fmt"
	"strings"
)

// PlatformMode selects the audience of a decision. It changes the narrative
// only, never the classification.
type PlatformMode string

const (
	ModeIndividual PlatformMode = "individual"
	ModeRegional   PlatformMode = "regional"
)

// Strategy is the irrigation action class chosen for a request.
type Strategy string

const (
	StrategyWaterSaving Strategy = "water_saving"
	StrategyRiskAware   Strategy = "risk_aware"
	StrategyRecommended Strategy = "recommended"
)

// DisplayName returns the human-readable strategy title.
func (s Strategy) DisplayName() string {
	switch s {
	case StrategyWaterSaving:
		return "Strategic Water Conservation"
	case StrategyRiskAware:
		return "Risk-Aware Irrigation"
	default:
		return "Optimal Irrigation"
	}
}

// Trigger records which rule selected the strategy.
type Trigger string

const (
	TriggerRain         Trigger = "rain"
	TriggerLowET0       Trigger = "low_et0"
	TriggerDrought      Trigger = "drought"
	TriggerBasin        Trigger = "basin"
	TriggerWeather      Trigger = "weather"
	TriggerDroughtScore Trigger = "drought_score"
	TriggerDefault      Trigger = "default"
)

// FieldSize buckets the irrigated area.
type FieldSize string

const (
	FieldRegional FieldSize = "regional"
	FieldSmall    FieldSize = "small"
	FieldMedium   FieldSize = "medium"
	FieldLarge    FieldSize = "large"
)

// ClassifyFieldSize buckets an individual field by m². Regional requests are
// always FieldRegional.
func ClassifyFieldSize(mode PlatformMode, area float64) FieldSize {
	switch {
	case mode == ModeRegional:
		return FieldRegional
	case area < 50:
		return FieldSmall
	case area < 500:
		return FieldMedium
	default:
		return FieldLarge
	}
}

// AssessWeatherRisk grades the current conditions.
func AssessWeatherRisk(c Conditions) RiskLevel {
	switch {
	case c.Temperature > 30 || c.Humidity < 30 || c.WindSpeed > 5:
		return RiskHigh
	case c.Temperature > 25 || c.Humidity < 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RegionalDroughtRiskScore is the coarse drought pressure score used for
// regional requests that do not supply one.
func RegionalDroughtRiskScore(et0, humidity float64) float64 {
	return et0*0.6 - humidity*0.4
}

// StrategyInput carries every signal the classifier looks at.
type StrategyInput struct {
	Mode             PlatformMode
	Profile          UserProfile
	Conditions       Conditions
	ET0              float64
	Area             float64
	RainExpected     bool
	DroughtRiskScore *float64
	Drought          DroughtAssessment
	Basin            BasinAssessment
}

// strategyRule fires when match returns true. Rules are evaluated in order
// and the first match wins.
type strategyRule struct {
	strategy Strategy
	match    func(StrategyInput) (Trigger, bool)
}

var strategyRules = []strategyRule{
	{strategy: StrategyWaterSaving, match: waterSavingTrigger},
	{strategy: StrategyRiskAware, match: riskAwareTrigger},
	{strategy: StrategyRecommended, match: func(StrategyInput) (Trigger, bool) { return TriggerDefault, true }},
}

// waterSavingTrigger checks the conservation triggers in narrative priority:
// rain, low ET0, drought, basin stress.
func waterSavingTrigger(in StrategyInput) (Trigger, bool) {
	switch {
	case in.RainExpected:
		return TriggerRain, true
	case in.ET0 < 2:
		return TriggerLowET0, true
	case in.Drought.ForcesWaterSaving():
		return TriggerDrought, true
	case in.Basin.Stressed():
		return TriggerBasin, true
	}
	return "", false
}

func riskAwareTrigger(in StrategyInput) (Trigger, bool) {
	if AssessWeatherRisk(in.Conditions) == RiskHigh {
		return TriggerWeather, true
	}
	if in.DroughtRiskScore != nil && *in.DroughtRiskScore > 2 {
		return TriggerDroughtScore, true
	}
	return "", false
}

// ClassifyStrategy runs the rule list and returns the first matching strategy.
func ClassifyStrategy(in StrategyInput) (Strategy, Trigger) {
	for _, r := range strategyRules {
		if trigger, ok := r.match(in); ok {
			return r.strategy, trigger
		}
	}
	// The last rule always matches.
	return StrategyRecommended, TriggerDefault
}

// Adjustment is a regional tweak attached to a strategy decision.
type Adjustment struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// StrategyDecision is the classified strategy with its narrative.
type StrategyDecision struct {
	Strategy       Strategy     `json:"strategy"`
	Name           string       `json:"name"`
	Trigger        Trigger      `json:"trigger"`
	WeatherRisk    RiskLevel    `json:"weather_risk"`
	FieldSize      FieldSize    `json:"field_size"`
	Recommendation string       `json:"recommendation"`
	Rationale      []string     `json:"rationale"`
	ActionItems    []string     `json:"action_items"`
	Regional       *Enhancement `json:"regional,omitempty"`
}

// Enhancement is the regional context layered onto a decision.
type Enhancement struct {
	Insights               []string     `json:"insights"`
	Adjustments            []Adjustment `json:"adjustments"`
	DatasetRecommendations []string     `json:"dataset_recommendations,omitempty"`
}

// DecideStrategy classifies the input and attaches the narrative for its
// platform mode.
func DecideStrategy(in StrategyInput) StrategyDecision {
	strategy, trigger := ClassifyStrategy(in)
	n := narrate(strategy, trigger, in)
	// Profile tone applies to individual users only.
	if in.Mode == ModeIndividual {
		n.recommendation = in.Profile.adaptTone(n.recommendation)
	}
	return StrategyDecision{
		Strategy:       strategy,
		Name:           strategy.DisplayName(),
		Trigger:        trigger,
		WeatherRisk:    AssessWeatherRisk(in.Conditions),
		FieldSize:      ClassifyFieldSize(in.Mode, in.Area),
		Recommendation: n.recommendation,
		Rationale:      n.rationale,
		ActionItems:    n.actions,
	}
}

// EnhanceWithRegional attaches regional insights and adjustments. The
// strategy itself is left unchanged. Without any regional data the decision
// is returned as is.
func (d StrategyDecision) EnhanceWithRegional(ri RegionalIntelligence) StrategyDecision {
	if !ri.HasTabularData() && !ri.Basin.Available {
		return d
	}
	e := &Enhancement{Insights: []string{}, Adjustments: []Adjustment{}}

	if ri.Water.Available && ri.Water.WaterStressIndex != nil {
		stress := *ri.Water.WaterStressIndex
		e.Insights = append(e.Insights, fmt.Sprintf("Water stress index: %.2f", stress))
		switch {
		case stress > 0.7:
			e.Adjustments = append(e.Adjustments, Adjustment{
				Type: "water_conservation", Priority: "high",
				Reason: "High water stress makes conservation the priority",
			})
		case stress > 0.4:
			e.Adjustments = append(e.Adjustments, Adjustment{
				Type: "water_efficiency", Priority: "medium",
				Reason: "Moderate water stress, efficiency matters",
			})
		}
	}

	if ri.Drought.Available {
		if ri.Drought.SPIIndex != nil {
			e.Insights = append(e.Insights, fmt.Sprintf("SPI index: %.2f", *ri.Drought.SPIIndex))
		}
		if sev := ri.Drought.DroughtSeverity; sev != "" {
			e.Insights = append(e.Insights, "Drought severity: "+sev)
			lower := strings.ToLower(sev)
			if strings.Contains(lower, "extreme") || strings.Contains(lower, "severe") {
				e.Adjustments = append(e.Adjustments, Adjustment{
					Type: "drought_response", Priority: "critical",
					Reason: "Severe drought conditions require immediate action",
				})
			}
		}
	}

	if ri.Agriculture.Available {
		if c := ri.Agriculture.IrrigationCoverage; c != nil {
			e.Insights = append(e.Insights, fmt.Sprintf("Regional irrigation coverage: %.1f%%", *c))
		}
		if r := ri.Agriculture.FarmerAdoptionRate; r != nil {
			e.Insights = append(e.Insights, fmt.Sprintf("Smart irrigation adoption: %.1f%%", *r))
		}
	}

	if ri.Basin.Available {
		name := ri.Basin.Name
		if name == "" {
			name = "-"
		}
		e.Insights = append(e.Insights, "Basin: "+name)
		if ri.Basin.Stressed() {
			e.Adjustments = append(e.Adjustments, Adjustment{
				Type: "basin_conservation", Priority: "high",
				Reason: "Basin water stress is high, conservation first",
			})
		}
	}

	if len(ri.Insights.Recommendations) > 0 {
		e.DatasetRecommendations = append([]string(nil), ri.Insights.Recommendations...)
	}

	d.Regional = e
	return d
}
