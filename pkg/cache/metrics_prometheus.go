package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics exports cache counters to Prometheus.
//
// It complements the in-struct Metrics accumulator: storages keep their own
// per-key multisets for snapshots, while a shared PrometheusMetrics instance
// aggregates operation counts across caches for scraping.
//
// All metrics use a custom registry for better testability and isolation.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// operationsTotal tracks cache operations by cache name and outcome.
	// Labels:
	//   - cache: storage name
	//   - operation: "hit", "miss", "put", "eviction", "expiration"
	operationsTotal *prometheus.CounterVec

	// entries tracks the current number of entries per cache.
	// Labels:
	//   - cache: storage name
	entries *prometheus.GaugeVec

	// hitRate tracks the derived hit rate percentage per cache.
	// Labels:
	//   - cache: storage name
	hitRate *prometheus.GaugeVec
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

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total cache operations by cache name and outcome",
		},
		[]string{"cache", "operation"},
	)

	entries := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of entries by cache name",
		},
		[]string{"cache"},
	)

	hitRate := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_hit_rate_percent",
			Help: "Derived hit rate percentage by cache name",
		},
		[]string{"cache"},
	)

	registry.MustRegister(operationsTotal, entries, hitRate)

	return &PrometheusMetrics{
		registry:        registry,
		operationsTotal: operationsTotal,
		entries:         entries,
		hitRate:         hitRate,
	}
}

// Registry returns the Prometheus registry containing all cache metrics.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHit records a successful lookup against the named cache.
func (m *PrometheusMetrics) RecordHit(cache string) {
	m.operationsTotal.WithLabelValues(cache, "hit").Inc()
}

// RecordMiss records a failed lookup against the named cache.
func (m *PrometheusMetrics) RecordMiss(cache string) {
	m.operationsTotal.WithLabelValues(cache, "miss").Inc()
}

// RecordPut records an insertion into the named cache.
func (m *PrometheusMetrics) RecordPut(cache string) {
	m.operationsTotal.WithLabelValues(cache, "put").Inc()
}

// RecordEviction records a removal from the named cache.
func (m *PrometheusMetrics) RecordEviction(cache string) {
	m.operationsTotal.WithLabelValues(cache, "eviction").Inc()
}

// RecordExpiration records a TTL-driven removal from the named cache.
func (m *PrometheusMetrics) RecordExpiration(cache string) {
	m.operationsTotal.WithLabelValues(cache, "expiration").Inc()
}

// SetEntries records the current entry count of the named cache.
func (m *PrometheusMetrics) SetEntries(cache string, count int) {
	m.entries.WithLabelValues(cache).Set(float64(count))
}

// SetHitRate records the derived hit rate of the named cache.
func (m *PrometheusMetrics) SetHitRate(cache string, rate float64) {
	m.hitRate.WithLabelValues(cache).Set(rate)
}

// Observe exports a storage's current accumulator state.
//
// Call it periodically to keep the gauges current; the library does not
// call it on its own.
func (m *PrometheusMetrics) Observe(name string, metrics *Metrics, entryCount int) {
	m.SetEntries(name, entryCount)
	m.SetHitRate(name, metrics.HitRate())
}
