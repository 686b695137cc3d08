package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "irrigation"

// Metrics holds the Prometheus counters, histograms, and gauges for the decision service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Decision engine metrics.
	Decisions        *prometheus.CounterVec // labels: strategy={water_saving,risk_aware,recommended}
	DecisionDuration prometheus.Histogram
	HazardLookups    *prometheus.CounterVec // labels: dataset, outcome={hit,unavailable,no_value,no_match}
	DatasetRecords   *prometheus.GaugeVec   // labels: dataset; -1 when the dataset failed to load

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec // labels: outcome={success,error,open}
	WeatherAPIDuration prometheus.Histogram
	WeatherEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total requests that could not be turned into a decision.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decisions produced by strategy.",
		}, []string{"strategy"}),
		DecisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Time spent computing a single decision.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		HazardLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_lookups_total",
			Help:      "Hazard and regional dataset lookups by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		DatasetRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Records loaded per static dataset, -1 when loading failed.",
		}, []string{"dataset"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding is enabled, 0 otherwise.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather provider requests by outcome.",
		}, []string{"outcome"}),
		WeatherAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_api_duration_seconds",
			Help:      "Weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_enabled",
			Help:      "1 when the weather provider is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Decisions,
		m.DecisionDuration,
		m.HazardLookups,
		m.DatasetRecords,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		Decisions:               prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "decisions_total"}, []string{"strategy"}),
		DecisionDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "decision_duration_seconds"}),
		HazardLookups:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "hazard_lookups_total"}, []string{"dataset", "outcome"}),
		DatasetRecords:          prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "dataset_records"}, []string{"dataset"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "geocode_enabled"}),
		WeatherRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "weather_requests_total"}, []string{"outcome"}),
		WeatherAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "weather_api_duration_seconds"}),
		WeatherEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "weather_enabled"}),
	}
}
