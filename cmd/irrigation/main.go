package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/couchcryptid/irrigation-decision-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/irrigation-decision-service/internal/adapter/kafka"
	"github.com/couchcryptid/irrigation-decision-service/internal/adapter/mapbox"
	"github.com/couchcryptid/irrigation-decision-service/internal/adapter/openweather"
	"github.com/couchcryptid/irrigation-decision-service/internal/config"
	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/engine"
	"github.com/couchcryptid/irrigation-decision-service/internal/hazard"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
	"github.com/couchcryptid/irrigation-decision-service/internal/pipeline"
	"github.com/couchcryptid/irrigation-decision-service/internal/regional"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var opts []engine.Option
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		opts = append(opts, engine.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}
	opts = append(opts, engine.WithForecastWindow(cfg.ForecastWindow))

	// Without a weather provider every request must carry its own conditions.
	var weather domain.WeatherProvider
	if cfg.OpenWeatherEnabled {
		weather = openweather.NewClient(cfg.OpenWeatherKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, logger, metrics)
		metrics.WeatherEnabled.Set(1)
		logger.Info("openweather provider enabled", "timeout", cfg.OpenWeatherTimeout)
	} else {
		logger.Info("openweather provider disabled")
	}

	hazards := hazard.NewStore(cfg.DroughtGeoJSON, cfg.WatershedGeoJSON, logger, metrics)
	tables := regional.NewStore(cfg.DatasetsDir, cfg.RegionMatchTolerance, logger, metrics)
	eng := engine.New(hazards, tables, logger, metrics, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Datasets load in the background; /readyz reports 503 until they finish.
	go func() {
		if err := eng.Warm(ctx); err != nil {
			logger.Warn("serving with degraded datasets", "error", err)
		}
	}()

	ready := readiness{eng}

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(eng, weather, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:        cfg.HTTPAddr,
		RateLimit:   cfg.RateLimit,
		CORSOrigins: cfg.CORSOrigins,
		Weather:     weather,
	}, eng, ready, logger)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every component is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
