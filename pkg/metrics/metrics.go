// Package metrics exposes Prometheus instrumentation for the pipeline on a
// dedicated registry. All methods are nil-safe so metrics stay optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// RouteOutcomes counts classified route queries by outcome
	RouteOutcomes *prometheus.CounterVec
	// QueryDuration records remote routing query durations in seconds
	QueryDuration prometheus.Histogram
	// InFlight tracks the number of route queries currently dispatched
	InFlight prometheus.Gauge
}

// New creates a Metrics set registered on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RouteOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kantama_route_outcomes_total", Help: "Route query outcomes by status."},
			[]string{"status"},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kantama_route_query_seconds",
				Help:    "Remote routing query duration in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "kantama_route_queries_in_flight", Help: "Route queries currently in flight."},
		),
	}
	m.registry.MustRegister(m.RouteOutcomes, m.QueryDuration, m.InFlight)
	return m
}

// Registry returns the dedicated registry for scraping or test inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOutcome records one classified query and its duration.
func (m *Metrics) ObserveOutcome(status string, seconds float64) {
	if m == nil {
		return
	}
	m.RouteOutcomes.WithLabelValues(status).Inc()
	m.QueryDuration.Observe(seconds)
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement, for use with defer.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}
