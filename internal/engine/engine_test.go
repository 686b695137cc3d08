package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

type fakeHazards struct {
	drought domain.DroughtAssessment
	basin   domain.BasinAssessment
	calls   int
	warmErr error
}

func (f *fakeHazards) Drought(_, _ float64) domain.DroughtAssessment {
	f.calls++
	return f.drought
}

func (f *fakeHazards) Watershed(_, _ float64) domain.BasinAssessment { return f.basin }

func (f *fakeHazards) Warm() error { return f.warmErr }

type fakeRegional struct {
	ri         domain.RegionalIntelligence
	gotRegion  string
	warmCalled bool
}

func (f *fakeRegional) Intelligence(_, _ float64, region string) domain.RegionalIntelligence {
	f.gotRegion = region
	return f.ri
}

func (f *fakeRegional) Warm(context.Context) error {
	f.warmCalled = true
	return nil
}

type fakeGeocoder struct{ result domain.GeocodingResult }

func (f fakeGeocoder) ForwardGeocode(context.Context, string, string) (domain.GeocodingResult, error) {
	return f.result, nil
}

func (f fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, errors.New("not used")
}

var fixedNow = time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC)

func setup(t *testing.T, hazards HazardResolver, regional RegionalSource, opts ...Option) (*Engine, *observability.Metrics) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	t.Cleanup(func() { domain.SetClock(nil) })
	m := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(hazards, regional, logger, m, opts...), m
}

func noHazards() *fakeHazards {
	return &fakeHazards{
		drought: domain.UnavailableDrought(domain.SourceUnavailable),
		basin:   domain.UnavailableBasin(domain.SourceUnavailable),
	}
}

func konyaRequest() domain.DecisionRequest {
	return domain.DecisionRequest{
		Location: domain.Location{Lat: 37.87, Lon: 32.48, Region: "Konya"},
		Area:     100,
		Current:  &domain.Conditions{Temperature: 28, Humidity: 35, WindSpeed: 2},
	}
}

func TestDecide_MissingConditions(t *testing.T) {
	e, _ := setup(t, noHazards(), nil)

	_, err := e.Decide(context.Background(), domain.DecisionRequest{Area: 10})

	assert.ErrorIs(t, err, domain.ErrMissingConditions)
}

func TestDecide_WarmDryDay(t *testing.T) {
	e, m := setup(t, noHazards(), nil)

	d, err := e.Decide(context.Background(), konyaRequest())

	require.NoError(t, err)
	assert.InDelta(t, 10.61, d.ET0, 1e-9)
	assert.InDelta(t, 1061, d.WaterNeed, 1e-9)
	assert.Equal(t, domain.StrategyRecommended, d.Strategy.Strategy)
	assert.Equal(t, domain.RiskMedium, d.Strategy.WeatherRisk)
	assert.Nil(t, d.Strategy.Regional)
	assert.False(t, d.Drought.Available)
	assert.Equal(t, domain.ModeIndividual, d.Request.Mode)
	assert.Equal(t, fixedNow, d.GeneratedAt)
	assert.Len(t, d.ID, 32)
	assert.Empty(t, d.Regional.DatasetsLoaded)
	assert.Equal(t, "Weather API only", d.Risk.Source)
	// no forecast: 10 + 20 + 18 + 10
	assert.InDelta(t, 58, d.Confidence, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Decisions.WithLabelValues("recommended")), 1e-9)
}

func TestDecide_RainForecastSavesWater(t *testing.T) {
	e, _ := setup(t, noHazards(), nil)
	req := konyaRequest()
	req.Forecast = []domain.ForecastSlot{
		{Time: fixedNow, Temperature: 22, Humidity: 60, WindSpeed: 1},
		{Time: fixedNow.Add(3 * time.Hour), Temperature: 19, Humidity: 85, WindSpeed: 2, Rain: true},
	}

	d, err := e.Decide(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.StrategyWaterSaving, d.Strategy.Strategy)
	assert.Equal(t, domain.TriggerRain, d.Strategy.Trigger)
	assert.True(t, d.Suitability.RainExpected)
	require.NotNil(t, d.Suitability.Best)
	assert.Equal(t, fixedNow.Add(3*time.Hour), d.Suitability.Best.Slot.Time)
	assert.Equal(t, domain.ScenarioToday, d.Scenarios.Best)
	assert.InDelta(t, d.WaterNeed, d.Sustainability.WaterSaved, 0.05)
}

func TestDecide_DroughtForcesWaterSaving(t *testing.T) {
	spi := -1.7
	hz := noHazards()
	hz.drought = domain.DroughtAssessment{
		Available: true, SPI: &spi, Window: domain.SPI6Month,
		Category: domain.DroughtExtreme, Source: domain.SourceDroughtIndex,
	}
	e, _ := setup(t, hz, nil)

	d, err := e.Decide(context.Background(), konyaRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.StrategyWaterSaving, d.Strategy.Strategy)
	assert.Equal(t, domain.TriggerDrought, d.Strategy.Trigger)
	assert.Equal(t, hz.drought, d.Drought)
}

func TestDecide_RegionalModeEstimatesDroughtScore(t *testing.T) {
	e, _ := setup(t, noHazards(), nil)
	req := konyaRequest()
	req.Mode = domain.ModeRegional
	req.Area = 2
	req.Current = &domain.Conditions{Temperature: 28, Humidity: 5, WindSpeed: 2}

	d, err := e.Decide(context.Background(), req)

	require.NoError(t, err)
	// humidity 5 is already a high weather risk
	assert.Equal(t, domain.StrategyRiskAware, d.Strategy.Strategy)
	assert.Equal(t, domain.FieldRegional, d.Strategy.FieldSize)
	assert.InDelta(t, domain.RegionalWaterNeed(d.ET0, 2), d.WaterNeed, 1e-9)
	assert.Contains(t, d.Strategy.Recommendation, "Policy advice")
}

func TestDecide_RegionalIntelligence(t *testing.T) {
	stress := 0.8
	w := domain.WaterResources{Available: true, RegionName: "Konya", WaterStressIndex: &stress}
	reg := &fakeRegional{ri: domain.RegionalIntelligence{
		Water:          w,
		Insights:       domain.DeriveRegionalInsights(w, domain.DroughtRisk{}, domain.AgriculturalContext{}),
		DatasetsLoaded: []string{domain.DatasetWaterResources},
	}}
	hz := noHazards()
	hz.basin = domain.BasinAssessment{Available: true, Name: "Konya", Stress: domain.StressHigh, Source: domain.SourceBasinDataset}
	e, _ := setup(t, hz, reg)

	d, err := e.Decide(context.Background(), konyaRequest())

	require.NoError(t, err)
	assert.Equal(t, "Konya", reg.gotRegion)
	assert.Equal(t, domain.TriggerBasin, d.Strategy.Trigger)
	require.NotNil(t, d.Strategy.Regional)
	assert.NotEmpty(t, d.Strategy.Regional.Adjustments)
	assert.Equal(t, hz.basin, d.Regional.Basin)
	require.NotNil(t, d.Sustainability.Regional)
	assert.Less(t, d.Sustainability.Score, d.Sustainability.Regional.OriginalScore)
	assert.True(t, d.Risk.RegionalData)
}

func TestDecide_UnresolvedLocationSkipsHazards(t *testing.T) {
	hz := noHazards()
	e, _ := setup(t, hz, nil)
	req := konyaRequest()
	req.Location = domain.Location{Region: "Konya"}

	d, err := e.Decide(context.Background(), req)

	require.NoError(t, err)
	assert.Zero(t, hz.calls)
	assert.False(t, d.Drought.Available)
	assert.Equal(t, "Location unresolved", d.Drought.Source)
}

func TestDecide_GeocoderResolvesRegion(t *testing.T) {
	hz := noHazards()
	geo := fakeGeocoder{result: domain.GeocodingResult{Lat: 37.87, Lon: 32.48, PlaceName: "Konya"}}
	e, _ := setup(t, hz, nil, WithGeocoder(geo))
	req := konyaRequest()
	req.Location = domain.Location{Region: "Konya"}

	d, err := e.Decide(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "forward", d.Request.Location.GeoSource)
	assert.Equal(t, 1, hz.calls)
}

func TestDecide_ForecastWindow(t *testing.T) {
	e, _ := setup(t, noHazards(), nil, WithForecastWindow(2))
	req := konyaRequest()
	for i := range 5 {
		req.Forecast = append(req.Forecast, domain.ForecastSlot{
			Time: fixedNow.Add(time.Duration(i) * 3 * time.Hour), Temperature: 20, Humidity: 50, Rain: i == 4,
		})
	}

	d, err := e.Decide(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, d.Suitability.Slots, 2)
	assert.False(t, d.Suitability.RainExpected)
}

func TestDecide_Deterministic(t *testing.T) {
	e, _ := setup(t, noHazards(), nil)

	a, err := e.Decide(context.Background(), konyaRequest())
	require.NoError(t, err)
	b, err := e.Decide(context.Background(), konyaRequest())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestWarmAndReadiness(t *testing.T) {
	hz := noHazards()
	hz.warmErr = errors.New("bad geojson")
	reg := &fakeRegional{}
	e, _ := setup(t, hz, reg)

	require.Error(t, e.CheckReadiness(context.Background()))

	err := e.Warm(context.Background())

	require.Error(t, err)
	assert.True(t, reg.warmCalled)
	assert.NoError(t, e.CheckReadiness(context.Background()), "ready even with a failed dataset")
}

func TestHazards(t *testing.T) {
	hz := noHazards()
	hz.basin = domain.BasinAssessment{Available: true, Name: "Sakarya", Stress: domain.StressMedium}
	e, _ := setup(t, hz, nil)

	r := e.Hazards(40.1, 30.2)

	assert.Equal(t, 40.1, r.Lat)
	assert.Equal(t, "Sakarya", r.Basin.Name)
	assert.False(t, r.Drought.Available)
}
