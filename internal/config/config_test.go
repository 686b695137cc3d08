package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	defaultBroker   = "localhost:9092"
	testMapboxToken = "pk.test-token"
	testWeatherKey  = "owm-test-key"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-observations", cfg.KafkaSourceTopic)
	assert.Equal(t, "irrigation-decisions", cfg.KafkaSinkTopic)
	assert.Equal(t, "irrigation-decision-service", cfg.KafkaGroupID)
	assert.True(t, cfg.PipelineEnabled)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)

	assert.Equal(t, "data", cfg.DatasetsDir)
	assert.Equal(t, "data/drought_index.geojson", cfg.DroughtGeoJSON)
	assert.Equal(t, "data/watersheds.geojson", cfg.WatershedGeoJSON)
	assert.InDelta(t, 0.5, cfg.RegionMatchTolerance, 1e-9)
	assert.Equal(t, 8, cfg.ForecastWindow)
	assert.Equal(t, 100, cfg.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)

	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)

	assert.False(t, cfg.OpenWeatherEnabled)
	assert.Equal(t, 10*time.Second, cfg.OpenWeatherTimeout)
	assert.Equal(t, "https://api.openweathermap.org", cfg.OpenWeatherBaseURL)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DATASETS_DIR", "/srv/datasets")
	t.Setenv("WATERSHED_GEOJSON", "/srv/basins.geojson")
	t.Setenv("REGION_MATCH_TOLERANCE", "0.25")
	t.Setenv("FORECAST_WINDOW", "16")
	t.Setenv("RATE_LIMIT", "20")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("OPENWEATHER_API_KEY", testWeatherKey)
	t.Setenv("OPENWEATHER_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "/srv/datasets", cfg.DatasetsDir)
	assert.Equal(t, "/srv/datasets/drought_index.geojson", cfg.DroughtGeoJSON)
	assert.Equal(t, "/srv/basins.geojson", cfg.WatershedGeoJSON)
	assert.InDelta(t, 0.25, cfg.RegionMatchTolerance, 1e-9)
	assert.Equal(t, 16, cfg.ForecastWindow)
	assert.Equal(t, 20, cfg.RateLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.OpenWeatherEnabled)
	assert.Equal(t, testWeatherKey, cfg.OpenWeatherKey)
	assert.Equal(t, 3*time.Second, cfg.OpenWeatherTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"BATCH_SIZE", "0", "BATCH_SIZE"},
		{"BATCH_SIZE", "9999", "BATCH_SIZE"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration", "BATCH_FLUSH_INTERVAL"},
		{"MAPBOX_TIMEOUT", "bad", "MAPBOX_TIMEOUT"},
		{"OPENWEATHER_TIMEOUT", "0s", "OPENWEATHER_TIMEOUT"},
		{"REGION_MATCH_TOLERANCE", "wide", "REGION_MATCH_TOLERANCE"},
		{"REGION_MATCH_TOLERANCE", "-0.1", "REGION_MATCH_TOLERANCE"},
		{"FORECAST_WINDOW", "0", "FORECAST_WINDOW"},
		{"FORECAST_WINDOW", "41", "FORECAST_WINDOW"},
		{"RATE_LIMIT", "many", "RATE_LIMIT"},
		{"MAPBOX_ENABLED", "true", "MAPBOX_TOKEN"},
		{"OPENWEATHER_ENABLED", "true", "OPENWEATHER_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MapboxTokenImpliesEnabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MapboxEnabled)
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_OpenWeatherExplicitlyDisabled(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testWeatherKey)
	t.Setenv("OPENWEATHER_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.OpenWeatherEnabled)
}

func TestLoad_PipelineDisabledSkipsKafkaChecks(t *testing.T) {
	t.Setenv("PIPELINE_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", ",")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PipelineEnabled)
}

func TestLoad_PipelineRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", ",")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
