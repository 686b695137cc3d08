// Package engine turns a DecisionRequest into a Decision. It wires the
// pure scoring functions in domain to the hazard and regional stores.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

// HazardResolver looks up the drought and watershed layers.
type HazardResolver interface {
	Drought(lat, lon float64) domain.DroughtAssessment
	Watershed(lat, lon float64) domain.BasinAssessment
}

// RegionalSource matches a location against the regional tables.
type RegionalSource interface {
	Intelligence(lat, lon float64, regionName string) domain.RegionalIntelligence
}

// HazardReport is the hazard lookup for a single coordinate.
type HazardReport struct {
	Lat     float64                  `json:"lat"`
	Lon     float64                  `json:"lon"`
	Drought domain.DroughtAssessment `json:"drought"`
	Basin   domain.BasinAssessment   `json:"basin"`
}

const sourceNoLocation = "Location unresolved"

// Engine computes decisions. It is safe for concurrent use.
type Engine struct {
	hazards  HazardResolver
	regional RegionalSource
	geocoder domain.Geocoder
	window   int
	logger   *slog.Logger
	metrics  *observability.Metrics
	warmed   atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeocoder resolves region names and coordinates before each decision.
func WithGeocoder(g domain.Geocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithForecastWindow sets how many forecast slots are scored.
func WithForecastWindow(n int) Option {
	return func(e *Engine) { e.window = n }
}

// New creates an Engine. regional may be nil when no regional tables exist.
func New(hazards HazardResolver, regional RegionalSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Engine {
	e := &Engine{
		hazards:  hazards,
		regional: regional,
		window:   domain.DefaultForecastWindow,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Warm loads every dataset concurrently. Load failures are logged and
// returned, but the engine is ready either way: lookups against a failed
// dataset report it as unavailable.
func (e *Engine) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if w, ok := e.hazards.(interface{ Warm() error }); ok {
		g.Go(w.Warm)
	}
	if w, ok := e.regional.(interface{ Warm(context.Context) error }); ok {
		g.Go(func() error { return w.Warm(gctx) })
	}
	err := g.Wait()
	if err != nil {
		e.logger.Warn("dataset warm-up incomplete", "error", err)
	}
	e.warmed.Store(true)
	return err
}

// CheckReadiness returns nil once Warm has run.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.warmed.Load() {
		return errors.New("datasets have not been loaded yet")
	}
	return nil
}

// Locate resolves a location through the configured geocoder. Callers that
// need coordinates before Decide (to fetch weather) use it up front.
func (e *Engine) Locate(ctx context.Context, loc domain.Location) domain.Location {
	return domain.ResolveLocation(ctx, loc, e.geocoder, e.logger)
}

// Hazards resolves both hazard layers for a coordinate.
func (e *Engine) Hazards(lat, lon float64) HazardReport {
	return HazardReport{
		Lat:     lat,
		Lon:     lon,
		Drought: e.hazards.Drought(lat, lon),
		Basin:   e.hazards.Watershed(lat, lon),
	}
}

// Decide computes the full decision for req. The only error is a request
// without current conditions; every missing dataset degrades to an
// unavailable result instead.
func (e *Engine) Decide(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	if req.Current == nil {
		return domain.Decision{}, domain.ErrMissingConditions
	}
	start := time.Now()

	req = domain.NormalizeRequest(req)
	req.Location = e.Locate(ctx, req.Location)
	loc := req.Location
	current := *req.Current

	et0 := domain.ReferenceET0(current)
	analysis := domain.AnalyzeForecast(req.Forecast, e.window)

	baseline := domain.WaterNeed(et0, req.Area, req.CropCoefficient)
	if req.Mode == domain.ModeRegional {
		baseline = domain.RegionalWaterNeed(et0, req.Area)
	}

	drought := domain.UnavailableDrought(sourceNoLocation)
	basin := domain.UnavailableBasin(sourceNoLocation)
	if loc.HasCoordinates() {
		drought = e.hazards.Drought(loc.Lat, loc.Lon)
		basin = e.hazards.Watershed(loc.Lat, loc.Lon)
	}

	ri := domain.RegionalIntelligence{DatasetsLoaded: []string{}}
	if e.regional != nil {
		ri = e.regional.Intelligence(loc.Lat, loc.Lon, loc.Region)
	}
	ri.Basin = basin

	droughtScore := req.DroughtRiskScore
	if droughtScore == nil && req.Mode == domain.ModeRegional {
		v := domain.RegionalDroughtRiskScore(et0, current.Humidity)
		droughtScore = &v
	}

	strategy := domain.DecideStrategy(domain.StrategyInput{
		Mode:             req.Mode,
		Profile:          req.Profile,
		Conditions:       current,
		ET0:              et0,
		Area:             req.Area,
		RainExpected:     analysis.RainExpected,
		DroughtRiskScore: droughtScore,
		Drought:          drought,
		Basin:            basin,
	}).EnhanceWithRegional(ri)

	confidence := domain.DecisionConfidence(len(analysis.Slots), et0, strategy.Strategy, strategy.WeatherRisk, analysis.RainExpected)
	sustainability := domain.ComputeSustainability(baseline, et0, analysis.RainExpected, strategy.Strategy, req.Mode).
		WithRegionalContext(ri)
	scenarios := domain.SimulateScenarios(baseline, et0, analysis.RainExpected, len(req.Forecast) > 0)

	d := domain.Decision{
		ID:             domain.DecisionID(req),
		Request:        req,
		ET0:            et0,
		WaterNeed:      baseline,
		Suitability:    analysis,
		Drought:        drought,
		Regional:       ri,
		Risk:           domain.AssessRegionalRisk(et0, ri),
		Strategy:       strategy,
		Confidence:     confidence,
		Sustainability: sustainability,
		Scenarios:      scenarios,
		GeneratedAt:    domain.Now(),
	}

	e.metrics.Decisions.WithLabelValues(string(strategy.Strategy)).Inc()
	e.metrics.DecisionDuration.Observe(time.Since(start).Seconds())
	e.logger.Debug("decision computed",
		"id", d.ID,
		"strategy", strategy.Strategy,
		"trigger", strategy.Trigger,
		"et0", et0,
		"confidence", confidence,
	)
	return d, nil
}
