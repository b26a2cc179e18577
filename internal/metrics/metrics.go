package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the HTTP surface and the
// tournament engine. A single instance is created at startup and shared.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	RunsTotal             *prometheus.CounterVec
	DayExecutionDuration  prometheus.Histogram
	PhaseTransitionsTotal *prometheus.CounterVec
	PromotionsTotal       *prometheus.CounterVec
	ScoringDuration       prometheus.Histogram
}

func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bench_arena_http_requests_total",
			Help: "Total HTTP requests by method, path and status code.",
		}, []string{"method", "path", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bench_arena_http_request_duration_seconds",
			Help:    "HTTP request latency by method and path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bench_arena_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bench_arena_runs_total",
			Help: "Sandbox runs by terminal status.",
		}, []string{"status"}),
		DayExecutionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bench_arena_day_execution_duration_seconds",
			Help:    "Wall-clock duration of one scheduled test day.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		PhaseTransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bench_arena_phase_transitions_total",
			Help: "Tournament phase transitions by source and target phase.",
		}, []string{"from", "to"}),
		PromotionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bench_arena_promotions_total",
			Help: "Baseline promotion attempts by outcome.",
		}, []string{"outcome"}),
		ScoringDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bench_arena_scoring_duration_seconds",
			Help:    "Duration of tournament scoring passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NewDefault registers on the default prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
