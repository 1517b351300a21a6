package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radiance_dashboard"

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	// Backend traffic.
	BackendRequests *prometheus.CounterVec   // labels: op={health,municipios,years,series,comparison,download}, outcome={success,error,api_error}
	BackendDuration *prometheus.HistogramVec // labels: op
	BreakerState    prometheus.Gauge         // 0 closed, 1 half-open, 2 open
	Cache           *prometheus.CounterVec   // labels: kind={series,comparison}, result={hit,miss}

	// Loader.
	SeriesFetchFailures prometheus.Counter
	StaleResponses      *prometheus.CounterVec // labels: kind={series,comparison}
	Ready               prometheus.Gauge

	// Selection events.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend REST requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend REST request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"op"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		SeriesFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_fetch_failures_total",
			Help:      "Per-municipality series fetches dropped from a fan-out.",
		}),
		StaleResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request superseded them.",
		}, []string{"kind"}),
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ready",
			Help:      "1 once the initial load has succeeded, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_events_total",
			Help:      "Selection events published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.BackendRequests,
		m.BackendDuration,
		m.BreakerState,
		m.Cache,
		m.SeriesFetchFailures,
		m.StaleResponses,
		m.Ready,
		m.EventsPublished,
	}
}

// NewMetrics creates the dashboard metrics and registers them with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
