package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/irrigation-decision-service/internal/adapter/http"
	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/engine"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockService struct {
	got     domain.DecisionRequest
	calls   int
	err     error
	located domain.Location
}

func (m *mockService) Locate(_ context.Context, loc domain.Location) domain.Location {
	if m.located.HasCoordinates() {
		return m.located
	}
	return loc
}

func (m *mockService) Decide(_ context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	m.calls++
	m.got = req
	if m.err != nil {
		return domain.Decision{}, m.err
	}
	return domain.Decision{
		ID:       "dec-1",
		Request:  req,
		ET0:      7.75,
		Strategy: domain.StrategyDecision{Strategy: domain.StrategyRecommended},
	}, nil
}

func (m *mockService) Hazards(lat, lon float64) engine.HazardReport {
	return engine.HazardReport{
		Lat:     lat,
		Lon:     lon,
		Drought: domain.UnavailableDrought(domain.SourceUnavailable),
		Basin:   domain.BasinAssessment{Available: true, Name: "Konya", Stress: domain.StressHigh},
	}
}

type mockWeather struct {
	err error
}

func (m mockWeather) Weather(context.Context, float64, float64) (domain.WeatherReport, error) {
	if m.err != nil {
		return domain.WeatherReport{}, m.err
	}
	return domain.WeatherReport{Current: domain.Conditions{Temperature: 20, Humidity: 60, WindSpeed: 2}}, nil
}

func newTestServer(readyErr error, svc *mockService, weather domain.WeatherProvider) *httpadapter.Server {
	opts := httpadapter.Options{Addr: ":0", CORSOrigins: []string{"*"}, Weather: weather}
	return httpadapter.NewServer(opts, svc, &mockReadiness{err: readyErr}, slog.Default())
}

func do(srv http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(nil, &mockService{}, nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newTestServer(nil, &mockService{}, nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(fmt.Errorf("datasets loading"), &mockService{}, nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "datasets loading", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(nil, &mockService{}, nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

const validDecisionBody = `{
	"location": {"lat": 37.87, "lon": 32.48},
	"area": 100,
	"current": {"temperature": 22, "humidity": 60, "wind_speed": 2}
}`

func TestPostDecision(t *testing.T) {
	svc := &mockService{}

	rec := do(newTestServer(nil, svc, nil), http.MethodPost, "/v1/decisions", validDecisionBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "dec-1", body["id"])
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, domain.ModeIndividual, svc.got.Mode)
	assert.False(t, svc.got.ObservedAt.IsZero())
}

func TestPostDecision_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"area":`},
		{"zero area", `{"location":{"lat":37.87,"lon":32.48},"area":0,"current":{"temperature":20,"humidity":50,"wind_speed":1}}`},
		{"no location", `{"area":10,"current":{"temperature":20,"humidity":50,"wind_speed":1}}`},
		{"bad mode", `{"location":{"region":"Konya"},"area":10,"mode":"national"}`},
		{"no conditions and no provider", `{"location":{"lat":37.87,"lon":32.48},"area":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}

			rec := do(newTestServer(nil, svc, nil), http.MethodPost, "/v1/decisions", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
			assert.Zero(t, svc.calls)
		})
	}
}

func TestPostDecision_FetchesWeather(t *testing.T) {
	svc := &mockService{}
	body := `{"location":{"lat":37.87,"lon":32.48},"area":10}`

	rec := do(newTestServer(nil, svc, mockWeather{}), http.MethodPost, "/v1/decisions", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.got.Current)
	assert.Equal(t, 20.0, svc.got.Current.Temperature)
}

func TestPostDecision_LocatesRegionForWeather(t *testing.T) {
	svc := &mockService{located: domain.Location{Lat: 37.87, Lon: 32.48, Region: "Konya", GeoSource: "forward"}}
	body := `{"location":{"region":"Konya"},"area":10}`

	rec := do(newTestServer(nil, svc, mockWeather{}), http.MethodPost, "/v1/decisions", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "forward", svc.got.Location.GeoSource)
}

func TestPostDecision_WeatherFailureIs502(t *testing.T) {
	svc := &mockService{}
	body := `{"location":{"lat":37.87,"lon":32.48},"area":10}`

	rec := do(newTestServer(nil, svc, mockWeather{err: errors.New("503 from provider")}), http.MethodPost, "/v1/decisions", body)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "fetch weather")
	assert.Zero(t, svc.calls)
}

func TestPostDecision_ProviderOutageIs503(t *testing.T) {
	svc := &mockService{}
	body := `{"location":{"lat":37.87,"lon":32.48},"area":10}`
	outage := fmt.Errorf("/data/2.5/weather: %w", domain.ErrProviderUnavailable)

	rec := do(newTestServer(nil, svc, mockWeather{err: outage}), http.MethodPost, "/v1/decisions", body)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestPostDecision_EngineFailureIs500(t *testing.T) {
	svc := &mockService{err: errors.New("boom")}

	rec := do(newTestServer(nil, svc, nil), http.MethodPost, "/v1/decisions", validDecisionBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetHazards(t *testing.T) {
	rec := do(newTestServer(nil, &mockService{}, nil), http.MethodGet, "/v1/hazards?lat=37.87&lon=32.48", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var report engine.HazardReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 37.87, report.Lat)
	assert.Equal(t, "Konya", report.Basin.Name)
	assert.False(t, report.Drought.Available)
}

func TestGetHazards_InvalidCoordinates(t *testing.T) {
	srv := newTestServer(nil, &mockService{}, nil)
	for _, q := range []string{"", "?lat=abc&lon=1", "?lat=91&lon=1", "?lat=1&lon=181", "?lat=1",
		"?lat=NaN&lon=NaN", "?lat=nan&lon=1", "?lat=Inf&lon=1", "?lat=1&lon=-Inf", "?lat=1e400&lon=1"} {
		rec := do(srv, http.MethodGet, "/v1/hazards"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestRateLimit(t *testing.T) {
	opts := httpadapter.Options{Addr: ":0", RateLimit: 2, CORSOrigins: []string{"*"}}
	srv := httpadapter.NewServer(opts, &mockService{}, &mockReadiness{}, slog.Default())

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(srv, http.MethodGet, "/v1/hazards?lat=1&lon=1", "").Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(nil, &mockService{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/decisions", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
