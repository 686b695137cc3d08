// Package openweather implements domain.WeatherProvider on top of the
// OpenWeatherMap current weather and 5 day / 3 hour forecast endpoints.
package openweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

// ErrUnavailable marks failures worth retrying later, such as an open
// breaker or a 5xx answer.
var ErrUnavailable = domain.ErrProviderUnavailable

type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openweather API error: status %d: %s", e.code, e.body)
}

func (e *statusError) transient() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// Client fetches current conditions and the forecast for a coordinate pair.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. The breaker opens after more
// than five consecutive failures and lets one request through again after 30 seconds.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("weather circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Weather returns current conditions and the forecast list. Both calls run
// concurrently and either failure fails the whole report.
func (c *Client) Weather(ctx context.Context, lat, lon float64) (domain.WeatherReport, error) {
	var (
		current  currentResponse
		forecast forecastResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, "/data/2.5/weather", lat, lon, &current)
	})
	g.Go(func() error {
		return c.get(gctx, "/data/2.5/forecast", lat, lon, &forecast)
	})
	if err := g.Wait(); err != nil {
		return domain.WeatherReport{}, err
	}

	report := domain.WeatherReport{
		Current: domain.Conditions{
			Temperature: current.Main.Temp,
			Humidity:    current.Main.Humidity,
			WindSpeed:   current.Wind.Speed,
		},
		Forecast: make([]domain.ForecastSlot, 0, len(forecast.List)),
	}
	for _, item := range forecast.List {
		report.Forecast = append(report.Forecast, item.toSlot())
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, path string, lat, lon float64, out any) error {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', 4, 64)},
		"units": {"metric"},
		"appid": {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, doErr)
		}
		if r.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(r.Body, 1024))
			r.Body.Close()
			return nil, &statusError{code: r.StatusCode, body: body}
		}
		return r, nil
	})
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.WeatherRequests.WithLabelValues("open").Inc()
			return fmt.Errorf("%s: %w", path, ErrUnavailable)
		}
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		var se *statusError
		if errors.As(err, &se) && se.transient() {
			return fmt.Errorf("%s request: %w: %w", path, ErrUnavailable, err)
		}
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.WeatherRequests.WithLabelValues("error").Inc()
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	c.metrics.WeatherRequests.WithLabelValues("success").Inc()
	c.logger.Debug("weather fetched", "path", path, "lat", lat, "lon", lon)
	return nil
}

// OpenWeatherMap response types, metric units.

type mainBlock struct {
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
}

type currentResponse struct {
	Main mainBlock `json:"main"`
	Wind windBlock `json:"wind"`
}

type forecastResponse struct {
	List []forecastItem `json:"list"`
}

type forecastItem struct {
	Dt   int64              `json:"dt"`
	Main mainBlock          `json:"main"`
	Wind windBlock          `json:"wind"`
	Rain map[string]float64 `json:"rain"` // e.g. {"3h": 0.42}; absent when dry
}

func (f forecastItem) toSlot() domain.ForecastSlot {
	return domain.ForecastSlot{
		Time:        time.Unix(f.Dt, 0).UTC(),
		Temperature: f.Main.Temp,
		Humidity:    f.Main.Humidity,
		WindSpeed:   f.Wind.Speed,
		Rain:        len(f.Rain) > 0,
	}
}
