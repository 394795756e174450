package ratelimit

import (
	"testing"
	"time"
)

func TestEntry_Counting(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := newEntry("60:2025-06-01T12:00:00Z", time.Minute, now)

	if entry.Count() != 0 {
		t.Errorf("initial count = %d, want 0", entry.Count())
	}

	entry.Increment()
	entry.Increment()
	if entry.Count() != 2 {
		t.Errorf("count = %d, want 2", entry.Count())
	}

	entry.Decrement()
	if entry.Count() != 1 {
		t.Errorf("count after decrement = %d, want 1", entry.Count())
	}

	entry.Decrement()
	entry.Decrement()
	if entry.Count() != 0 {
		t.Errorf("count = %d, want 0 (never negative)", entry.Count())
	}
}

func TestEntry_Expiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := newEntry("60:2025-06-01T12:00:00Z", time.Minute, now)

	if !entry.ResetAt().Equal(now.Add(time.Minute)) {
		t.Errorf("resetAt = %v, want createdAt+window", entry.ResetAt())
	}

	tests := []struct {
		name    string
		at      time.Time
		expired bool
		seconds int64
	}{
		{name: "at creation", at: now, expired: false, seconds: 60},
		{name: "mid window", at: now.Add(45 * time.Second), expired: false, seconds: 15},
		{name: "at reset instant", at: now.Add(time.Minute), expired: false, seconds: 0},
		{name: "past reset", at: now.Add(2 * time.Minute), expired: true, seconds: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.IsExpired(tt.at); got != tt.expired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.expired)
			}
			if got := entry.SecondsUntilReset(tt.at); got != tt.seconds {
				t.Errorf("SecondsUntilReset() = %d, want %d", got, tt.seconds)
			}
		})
	}
}

func TestEntry_ResetInPlace(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := newEntry("60:2025-06-01T12:00:00Z", time.Minute, now)
	entry.Increment()
	entry.Increment()

	start := now.Add(2 * time.Minute)
	entry.reset(start, "60:2025-06-01T12:02:00Z")

	if entry.Count() != 0 {
		t.Errorf("count after reset = %d, want 0", entry.Count())
	}
	if !entry.CreatedAt().Equal(start) {
		t.Errorf("createdAt = %v, want %v", entry.CreatedAt(), start)
	}
	if !entry.ResetAt().Equal(start.Add(time.Minute)) {
		t.Errorf("resetAt = %v, want %v", entry.ResetAt(), start.Add(time.Minute))
	}
	if entry.WindowKey() != "60:2025-06-01T12:02:00Z" {
		t.Errorf("windowKey = %q not refreshed", entry.WindowKey())
	}
}

func TestWindowKeyAlignment(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		window time.Duration
		want   string
	}{
		{
			name:   "sub-minute window aligns to second boundaries",
			now:    time.Date(2025, 6, 1, 12, 0, 17, 500e6, time.UTC),
			window: 15 * time.Second,
			want:   "15:2025-06-01T12:00:15Z",
		},
		{
			name:   "minute window aligns to the minute",
			now:    time.Date(2025, 6, 1, 12, 0, 59, 0, time.UTC),
			window: time.Minute,
			want:   "60:2025-06-01T12:00:00Z",
		},
		{
			name:   "sub-hour window aligns within the hour",
			now:    time.Date(2025, 6, 1, 12, 47, 3, 0, time.UTC),
			window: 30 * time.Minute,
			want:   "1800:2025-06-01T12:30:00Z",
		},
		{
			name:   "multi-hour window aligns to hour boundaries",
			now:    time.Date(2025, 6, 1, 13, 30, 0, 0, time.UTC),
			window: 2 * time.Hour,
			want:   "7200:2025-06-01T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowKeyFor(tt.now, tt.window); got != tt.want {
				t.Errorf("windowKeyFor() = %q, want %q", got, tt.want)
			}
		})
	}
}
