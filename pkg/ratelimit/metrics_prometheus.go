package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports rate-limit counters to Prometheus.
//
// It complements the in-struct Metrics accumulator: storages keep their own
// per-identifier multisets for snapshots, while a shared PrometheusMetrics
// instance aggregates outcomes across storages for scraping.
//
// All metrics use a custom registry for better testability and isolation.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// requestsTotal tracks consumptions by storage name and outcome.
	// Labels:
	//   - storage: storage name
	//   - status: "allowed" or "denied"
	requestsTotal *prometheus.CounterVec

	// resetsTotal tracks window resets by storage name.
	// Labels:
	//   - storage: storage name
	resetsTotal *prometheus.CounterVec

	// checkDuration tracks the duration of consume operations.
	// Labels:
	//   - storage: storage name
	checkDuration *prometheus.HistogramVec

	// activeIdentifiers tracks the number of identifiers with live
	// entries.
	// Labels:
	//   - storage: storage name
	activeIdentifiers *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance with a custom
// registry.
//
// Using a custom registry (instead of the global prometheus.DefaultRegisterer)
// provides:
// - Better testability (isolated metrics per test)
// - No metric conflicts when running multiple instances
//
// The registry can be passed to promhttp.HandlerFor() to expose metrics.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total rate limit consumptions by storage and status",
		},
		[]string{"storage", "status"},
	)

	resetsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_resets_total",
			Help: "Total window resets by storage",
		},
		[]string{"storage"},
	)

	checkDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limit_check_duration_seconds",
			Help:    "Duration of rate limit consume operations",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"storage"},
	)

	activeIdentifiers := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rate_limit_active_identifiers",
			Help: "Current number of identifiers with live entries by storage",
		},
		[]string{"storage"},
	)

	registry.MustRegister(requestsTotal, resetsTotal, checkDuration, activeIdentifiers)

	return &PrometheusMetrics{
		registry:          registry,
		requestsTotal:     requestsTotal,
		resetsTotal:       resetsTotal,
		checkDuration:     checkDuration,
		activeIdentifiers: activeIdentifiers,
	}
}

// Registry returns the Prometheus registry containing all rate limit
// metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAllowed records an allowed consumption against the named storage.
func (m *PrometheusMetrics) RecordAllowed(storage string) {
	m.requestsTotal.WithLabelValues(storage, "allowed").Inc()
}

// RecordDenied records a denied consumption against the named storage.
func (m *PrometheusMetrics) RecordDenied(storage string) {
	m.requestsTotal.WithLabelValues(storage, "denied").Inc()
}

// RecordReset records a window reset against the named storage.
func (m *PrometheusMetrics) RecordReset(storage string) {
	m.resetsTotal.WithLabelValues(storage).Inc()
}

// RecordCheckDuration records the duration of one consume operation.
func (m *PrometheusMetrics) RecordCheckDuration(storage string, duration time.Duration) {
	m.checkDuration.WithLabelValues(storage).Observe(duration.Seconds())
}

// SetActiveIdentifiers records the current number of identifiers with live
// entries in the named storage.
func (m *PrometheusMetrics) SetActiveIdentifiers(storage string, count int) {
	m.activeIdentifiers.WithLabelValues(storage).Set(float64(count))
}
