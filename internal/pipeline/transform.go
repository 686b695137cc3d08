package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
)

// Decider computes a decision for a parsed request.
type Decider interface {
	Locate(ctx context.Context, loc domain.Location) domain.Location
	Decide(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error)
}

// DecisionTransformer implements Transformer: parse the observation, locate
// it and fetch missing weather, decide, serialize.
type DecisionTransformer struct {
	decider Decider
	weather domain.WeatherProvider
	logger  *slog.Logger
}

// NewTransformer creates a DecisionTransformer. Pass a nil weather provider
// when every message carries its own conditions.
func NewTransformer(decider Decider, weather domain.WeatherProvider, logger *slog.Logger) *DecisionTransformer {
	return &DecisionTransformer{
		decider: decider,
		weather: weather,
		logger:  logger,
	}
}

func (t *DecisionTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseDecisionRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	if req.Current == nil {
		req.Location = t.decider.Locate(ctx, req.Location)
		req, err = domain.FillWeather(ctx, req, t.weather)
		if err != nil {
			return domain.OutputEvent{}, err
		}
	}

	d, err := t.decider.Decide(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	t.logger.Debug("observation decided", "id", d.ID, "offset", raw.Offset, "strategy", d.Strategy.Strategy)
	return domain.SerializeDecision(d)
}
