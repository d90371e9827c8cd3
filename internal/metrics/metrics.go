// Package metrics exposes Prometheus collectors for ballots, results
// recomputation and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "anime_awards"

// Metrics owns its registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	ballots           *prometheus.CounterVec
	recomputeTotal    *prometheus.CounterVec
	recomputeDuration prometheus.Histogram
	requestDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ballots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ballots_total",
				Help:      "Ballot submissions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		recomputeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "results_recompute_total",
				Help:      "Results recomputation runs by outcome.",
			},
			[]string{"outcome"},
		),
		recomputeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "results_recompute_duration_seconds",
				Help:      "Duration of results recomputation runs.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route, method and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
}

func (m *Metrics) ObserveBallot(kind, outcome string) {
	m.ballots.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) ObserveRecompute(outcome string, d time.Duration) {
	m.recomputeTotal.WithLabelValues(outcome).Inc()
	m.recomputeDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
