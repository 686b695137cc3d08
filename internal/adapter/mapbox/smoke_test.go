//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Konya", "TR")
	require.NoError(t, err)

	assert.InDelta(t, 37.9, result.Lat, 0.5, "lat should be near Konya")
	assert.InDelta(t, 32.5, result.Lon, 0.5, "lon should be near Konya")
	assert.Contains(t, result.FormattedAddress, "Konya")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ReverseGeocode(context.Background(), 38.4237, 27.1428)
	require.NoError(t, err)

	assert.NotEmpty(t, result.FormattedAddress)
	assert.Equal(t, "İzmir", result.Region)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "Ankara", "TR")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Ankara")

	r2, err := cached.ForwardGeocode(context.Background(), "Ankara", "TR")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
