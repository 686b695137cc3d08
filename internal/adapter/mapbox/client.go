package mapbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode converts a region name to coordinates. A two-letter country
// is sent as an ISO 3166 filter; anything longer is appended to the query.
func (c *Client) ForwardGeocode(ctx context.Context, name, country string) (domain.GeocodingResult, error) {
	query := strings.TrimSpace(name)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"region,district,place"},
	}
	switch country = strings.TrimSpace(country); {
	case len(country) == 2:
		params.Set("country", strings.ToLower(country))
	case country != "":
		query = fmt.Sprintf("%s, %s", query, country)
	}

	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())
	return c.doRequest(ctx, u, "forward")
}

// ReverseGeocode converts coordinates to place details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, coord, params.Encode())
	return c.doRequest(ctx, u, "reverse")
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
		c.logger.Debug("geocoder returned no features", "method", method)
		return domain.GeocodingResult{}, nil
	}

	c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	return mapboxResp.Features[0].toResult(), nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string        `json:"id"`
	Center    []float64     `json:"center"` // [lon, lat]
	PlaceName string        `json:"place_name"`
	Text      string        `json:"text"`
	Relevance float64       `json:"relevance"`
	Context   []contextItem `json:"context"`
}

// contextItem is one ancestor of a feature, e.g. {"id":"region.123","text":"Konya"}.
type contextItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (f feature) toResult() domain.GeocodingResult {
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Region:           f.region(),
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lon = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result
}

// region returns the first-level administrative area: the feature itself
// when it is a region, otherwise its region ancestor.
func (f feature) region() string {
	if strings.HasPrefix(f.ID, "region.") {
		return f.Text
	}
	for _, item := range f.Context {
		if strings.HasPrefix(item.ID, "region.") {
			return item.Text
		}
	}
	return ""
}
