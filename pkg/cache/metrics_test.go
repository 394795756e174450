package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMetrics_HitRate(t *testing.T) {
	tests := []struct {
		name   string
		hits   int
		misses int
		want   float64
	}{
		{name: "no accesses", want: 0},
		{name: "all hits", hits: 4, want: 100},
		{name: "all misses", misses: 4, want: 0},
		{name: "mixed", hits: 3, misses: 1, want: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			for range tt.hits {
				m.RecordHit("k")
			}
			for range tt.misses {
				m.RecordMiss("k")
			}
			if got := m.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordHit("a")
	m.RecordHit("a")
	m.RecordMiss("b")
	m.RecordPut("a")
	m.RecordEviction("c")
	m.RecordExpiration("c")

	snapshot := m.Snapshot()

	want := map[string]any{
		"hits":        int64(2),
		"misses":      int64(1),
		"puts":        int64(1),
		"evictions":   int64(1),
		"expirations": int64(1),
		"hitRate":     float64(2) / 3 * 100,
		"byKey": map[string]map[string]int64{
			"hits":        {"a": 2},
			"misses":      {"b": 1},
			"puts":        {"a": 1},
			"evictions":   {"c": 1},
			"expirations": {"c": 1},
		},
	}
	if diff := cmp.Diff(want, snapshot); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordHit("a")
	m.RecordMiss("a")
	m.RecordPut("a")

	m.Reset()

	if m.Hits() != 0 || m.Misses() != 0 || m.Puts() != 0 {
		t.Error("Reset() left counters non-zero")
	}
	if m.HitRate() != 0 {
		t.Errorf("HitRate() after reset = %v, want 0", m.HitRate())
	}
}
