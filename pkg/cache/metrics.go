package cache

import (
	"fmt"
	"sync"
)

// Metrics accumulates per-cache counters for hits, misses, puts, evictions,
// and expirations.
//
// Counters are kept both as totals and as per-key multisets so operators can
// see which keys dominate traffic. All methods are thread-safe.
type Metrics struct {
	mu          sync.RWMutex
	hits        map[string]int64
	misses      map[string]int64
	puts        map[string]int64
	evictions   map[string]int64
	expirations map[string]int64
}

// NewMetrics creates an empty metrics accumulator.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.resetLocked()
	return m
}

func (m *Metrics) resetLocked() {
	m.hits = make(map[string]int64)
	m.misses = make(map[string]int64)
	m.puts = make(map[string]int64)
	m.evictions = make(map[string]int64)
	m.expirations = make(map[string]int64)
}

func metricKey(key any) string {
	return fmt.Sprint(key)
}

// RecordHit records a successful lookup of the given key.
func (m *Metrics) RecordHit(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[metricKey(key)]++
}

// RecordMiss records a failed lookup of the given key.
func (m *Metrics) RecordMiss(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses[metricKey(key)]++
}

// RecordPut records an insertion of the given key.
func (m *Metrics) RecordPut(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts[metricKey(key)]++
}

// RecordEviction records a removal of the given key.
func (m *Metrics) RecordEviction(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions[metricKey(key)]++
}

// RecordExpiration records a TTL-driven removal of the given key.
func (m *Metrics) RecordExpiration(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expirations[metricKey(key)]++
}

func sum(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

// Hits returns the total hit count.
func (m *Metrics) Hits() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sum(m.hits)
}

// Misses returns the total miss count.
func (m *Metrics) Misses() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sum(m.misses)
}

// Puts returns the total put count.
func (m *Metrics) Puts() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sum(m.puts)
}

// Evictions returns the total eviction count.
func (m *Metrics) Evictions() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sum(m.evictions)
}

// Expirations returns the total expiration count.
func (m *Metrics) Expirations() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sum(m.expirations)
}

// HitRate returns hits / (hits + misses) as a percentage.
//
// Returns 0 when no lookups have been recorded.
func (m *Metrics) HitRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := sum(m.hits)
	misses := sum(m.misses)
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Snapshot renders the metrics as a structured map.
//
// The map carries the five totals, the derived hit rate, and per-key
// breakdowns suitable for serialization.
func (m *Metrics) Snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := sum(m.hits)
	misses := sum(m.misses)
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}
	return map[string]any{
		"hits":        hits,
		"misses":      misses,
		"puts":        sum(m.puts),
		"evictions":   sum(m.evictions),
		"expirations": sum(m.expirations),
		"hitRate":     hitRate,
		"byKey": map[string]map[string]int64{
			"hits":        copyCounts(m.hits),
			"misses":      copyCounts(m.misses),
			"puts":        copyCounts(m.puts),
			"evictions":   copyCounts(m.evictions),
			"expirations": copyCounts(m.expirations),
		},
	}
}

func copyCounts(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}
