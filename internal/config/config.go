package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	PipelineEnabled  bool
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Dataset locations. Missing files degrade to unavailable results.
	DatasetsDir          string
	DroughtGeoJSON       string
	WatershedGeoJSON     string
	RegionMatchTolerance float64
	ForecastWindow       int

	// HTTP API limits.
	RateLimit   int
	CORSOrigins []string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// OpenWeatherMap configuration.
	OpenWeatherKey     string
	OpenWeatherEnabled bool
	OpenWeatherTimeout time.Duration
	OpenWeatherBaseURL string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseTimeout("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parseTimeout("OPENWEATHER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	tolerance, err := cast.ToFloat64E(sharedcfg.EnvOrDefault("REGION_MATCH_TOLERANCE", "0.5"))
	if err != nil || tolerance <= 0 {
		return nil, errors.New("invalid REGION_MATCH_TOLERANCE")
	}

	window, err := cast.ToIntE(sharedcfg.EnvOrDefault("FORECAST_WINDOW", "8"))
	if err != nil || window <= 0 || window > 40 {
		return nil, errors.New("invalid FORECAST_WINDOW: must be between 1 and 40")
	}

	rateLimit, err := cast.ToIntE(sharedcfg.EnvOrDefault("RATE_LIMIT", "100"))
	if err != nil || rateLimit < 0 {
		return nil, errors.New("invalid RATE_LIMIT")
	}

	datasetsDir := sharedcfg.EnvOrDefault("DATASETS_DIR", "data")

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	weatherKey := os.Getenv("OPENWEATHER_API_KEY")

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "weather-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "irrigation-decisions"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "irrigation-decision-service"),
		PipelineEnabled:    parseBool("PIPELINE_ENABLED", true),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		DatasetsDir:          datasetsDir,
		DroughtGeoJSON:       sharedcfg.EnvOrDefault("DROUGHT_GEOJSON", filepath.Join(datasetsDir, "drought_index.geojson")),
		WatershedGeoJSON:     sharedcfg.EnvOrDefault("WATERSHED_GEOJSON", filepath.Join(datasetsDir, "watersheds.geojson")),
		RegionMatchTolerance: tolerance,
		ForecastWindow:       window,

		RateLimit:   rateLimit,
		CORSOrigins: parseList(sharedcfg.EnvOrDefault("CORS_ORIGINS", "*")),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   parseBool("MAPBOX_ENABLED", mapboxToken != ""),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),

		OpenWeatherKey:     weatherKey,
		OpenWeatherEnabled: parseBool("OPENWEATHER_ENABLED", weatherKey != ""),
		OpenWeatherTimeout: weatherTimeout,
		OpenWeatherBaseURL: sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
	}

	if cfg.PipelineEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.OpenWeatherEnabled && cfg.OpenWeatherKey == "" {
		return nil, errors.New("OPENWEATHER_ENABLED is true but OPENWEATHER_API_KEY is not set")
	}

	return cfg, nil
}

func parseTimeout(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := cast.ToIntE(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
