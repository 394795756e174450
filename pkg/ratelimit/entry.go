package ratelimit

import (
	"fmt"
	"time"
)

// Entry is a fixed-window counter for one (identifier, window) pair.
//
// Entries are created on the first consumption in a window, reset in place
// once the window elapses, and removed by Reset, Clear, or the Invalidate
// sweep. Entries are guarded by their storage's lock and carry no
// synchronization of their own.
type Entry struct {
	windowKey      string
	windowDuration time.Duration
	count          int64
	createdAt      time.Time
	resetAt        time.Time
}

func newEntry(windowKey string, window time.Duration, now time.Time) *Entry {
	return &Entry{
		windowKey:      windowKey,
		windowDuration: window,
		createdAt:      now,
		resetAt:        now.Add(window),
	}
}

// WindowKey returns the key encoding the window length and aligned start.
func (e *Entry) WindowKey() string { return e.windowKey }

// WindowDuration returns the fixed window length.
func (e *Entry) WindowDuration() time.Duration { return e.windowDuration }

// Count returns the number of consumptions recorded in the current window.
func (e *Entry) Count() int64 { return e.count }

// CreatedAt returns the start of the current window.
func (e *Entry) CreatedAt() time.Time { return e.createdAt }

// ResetAt returns when the current window resets.
func (e *Entry) ResetAt() time.Time { return e.resetAt }

// Increment adds one consumption to the window counter.
func (e *Entry) Increment() {
	e.count++
}

// Decrement removes one consumption, never reducing the counter below zero.
func (e *Entry) Decrement() {
	if e.count > 0 {
		e.count--
	}
}

// IsExpired reports whether the window has elapsed at the given instant.
func (e *Entry) IsExpired(now time.Time) bool {
	return now.After(e.resetAt)
}

// SecondsUntilReset returns the remaining window time in seconds, floored
// at zero.
func (e *Entry) SecondsUntilReset(now time.Time) int64 {
	remaining := int64(e.resetAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// reset restarts the window in place: counter zeroed, bounds and key moved
// to the window containing the given start.
func (e *Entry) reset(start time.Time, windowKey string) {
	e.count = 0
	e.createdAt = start
	e.resetAt = start.Add(e.windowDuration)
	e.windowKey = windowKey
}

// windowStart aligns the given instant to the start of its fixed window.
//
// Truncating to the window length lands the start on second boundaries for
// sub-minute windows, minute boundaries for sub-hour windows, and hour
// boundaries beyond that; counters reset at these boundaries.
func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

// windowKeyFor encodes the window length and its aligned start.
func windowKeyFor(now time.Time, window time.Duration) string {
	return fmt.Sprintf("%d:%s", int64(window.Seconds()), windowStart(now, window).Format(time.RFC3339))
}

// durationKey is the per-identifier lookup key for a window length.
//
// One entry exists per (identifier, window length); the entry's windowKey
// carries the aligned start of the window it currently counts.
func durationKey(window time.Duration) string {
	return fmt.Sprintf("%d", int64(window.Seconds()))
}
