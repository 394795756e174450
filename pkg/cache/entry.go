// Package cache provides a declarative, in-process caching engine with
// pluggable storage, eviction policies, TTL handling, and metrics.
//
// The package is built around a small set of capabilities: Storage holds
// entries, EvictionPolicy chooses victims, Manager registers storages by
// name, Resolver maps descriptors to storages, and Interceptor applies the
// read-through / write-through / evict operations around intercepted method
// invocations. Defaults are in-process only.
package cache

import (
	"sync"
	"time"

	"cachegate/pkg/clock"
)

// Entry is a single cached value together with its temporal and usage
// metadata.
//
// Entries are created by a Storage on Put/PutIfAbsent and mutated only via
// RecordAccess. All reads within one method call observe a single time
// snapshot. All methods are thread-safe.
type Entry struct {
	mu             sync.RWMutex
	value          any
	ttl            time.Duration
	hasTTL         bool
	createdAt      time.Time
	lastAccessedAt time.Time
	accessCount    int64
	clock          clock.Clock
}

func newEntry(value any, ttl time.Duration, hasTTL bool, c clock.Clock) *Entry {
	now := c.Now()
	return &Entry{
		value:          value,
		ttl:            ttl,
		hasTTL:         hasTTL,
		createdAt:      now,
		lastAccessedAt: now,
		clock:          c,
	}
}

// Get returns the cached value.
func (e *Entry) Get() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.value
}

// IsExpired reports whether the entry's TTL has elapsed.
//
// Entries without a TTL never expire.
func (e *Entry) IsExpired() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isExpiredLocked(e.clock.Now())
}

func (e *Entry) isExpiredLocked(now time.Time) bool {
	if !e.hasTTL {
		return false
	}
	return !now.Before(e.createdAt.Add(e.ttl))
}

// RecordAccess updates the last-access timestamp and increments the access
// count.
func (e *Entry) RecordAccess() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccessedAt = e.clock.Now()
	e.accessCount++
}

// AgeMs returns the elapsed milliseconds since the entry was created.
func (e *Entry) AgeMs() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Now().Sub(e.createdAt).Milliseconds()
}

// TimeSinceLastAccessMs returns the elapsed milliseconds since the entry was
// last accessed.
func (e *Entry) TimeSinceLastAccessMs() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clock.Now().Sub(e.lastAccessedAt).Milliseconds()
}

// TTL returns the configured lifetime and whether one is set.
func (e *Entry) TTL() (time.Duration, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ttl, e.hasTTL
}

// RemainingTTL returns the time left before expiry, floored at zero.
//
// The second return is false when the entry has no TTL.
func (e *Entry) RemainingTTL() (time.Duration, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasTTL {
		return 0, false
	}
	remaining := e.createdAt.Add(e.ttl).Sub(e.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// ExpiresAt returns the expiry instant and whether the entry expires.
func (e *Entry) ExpiresAt() (time.Time, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasTTL {
		return time.Time{}, false
	}
	return e.createdAt.Add(e.ttl), true
}

// CreatedAt returns the creation timestamp.
func (e *Entry) CreatedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.createdAt
}

// LastAccessedAt returns the last-access timestamp.
func (e *Entry) LastAccessedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastAccessedAt
}

// AccessCount returns the number of recorded accesses.
func (e *Entry) AccessCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.accessCount
}
