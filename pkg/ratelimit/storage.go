package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cachegate/pkg/clock"
	"cachegate/pkg/event"
)

// Storage counts consumptions per (identifier, window) and enforces
// fixed-window limits.
//
// All methods must be thread-safe. Operations accept a context because
// storages may suspend for backend I/O; event publication is awaited before
// an operation returns.
type Storage interface {
	// Name returns the storage name.
	Name() string

	// TryConsume records one consumption for the identifier if the window
	// counter is below the limit, and reports the outcome either way.
	TryConsume(ctx context.Context, identifier string, limit int64, window time.Duration) (*Result, error)

	// RecordRequest records one consumption without enforcing any limit.
	//
	// Callers that enforce limits externally use this to keep counters
	// accurate.
	RecordRequest(ctx context.Context, identifier string, window time.Duration) error

	// RequestCount returns the identifier's consumption count in the
	// current window. Expired or absent entries count as zero.
	RequestCount(ctx context.Context, identifier string, window time.Duration) (int64, error)

	// RemainingRequests returns max(0, limit - count) for the current
	// window.
	RemainingRequests(ctx context.Context, identifier string, limit int64, window time.Duration) (int64, error)

	// ResetTime returns when the identifier's current window resets, or
	// the zero time when no live entry exists.
	ResetTime(ctx context.Context, identifier string, window time.Duration) (time.Time, error)

	// RetryAfter returns how long the identifier must wait for a fresh
	// window, zero when no live entry exists.
	RetryAfter(ctx context.Context, identifier string, window time.Duration) (time.Duration, error)

	// Reset removes all entries for the identifier.
	Reset(ctx context.Context, identifier string) error

	// Clear removes all entries and resets metrics.
	Clear(ctx context.Context) error

	// Invalidate removes all expired entries.
	Invalidate(ctx context.Context) error

	// Metrics returns the storage's metrics accumulator.
	Metrics() *Metrics
}

// RollbackCapable is implemented by storages that can reverse a successful
// consumption.
//
// The interceptor uses it for best-effort rollback when a later storage
// denies or the protected method fails.
type RollbackCapable interface {
	// RollbackConsume decrements the identifier's current window counter.
	//
	// Missing or expired entries are left alone. Rollback is best-effort:
	// implementations swallow failures.
	RollbackConsume(ctx context.Context, identifier string, window time.Duration) error
}

// MemoryStorageConfig holds configuration for MemoryStorage.
type MemoryStorageConfig struct {
	// Zone is the time zone window timestamps are expressed in.
	// Default: UTC.
	Zone *time.Location

	// Clock provides time operations for testing.
	// Default: SystemClock.
	Clock clock.Clock

	// EnableMetrics controls counter accumulation.
	EnableMetrics bool

	// EnableEvents controls event emission.
	EnableEvents bool

	// Publisher receives emitted events. Default: LogPublisher.
	Publisher event.Publisher

	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultMemoryStorageConfig returns the default configuration: UTC,
// metrics and events enabled.
func DefaultMemoryStorageConfig() MemoryStorageConfig {
	return MemoryStorageConfig{
		Zone:          time.UTC,
		Clock:         &clock.SystemClock{},
		EnableMetrics: true,
		EnableEvents:  true,
	}
}

// MemoryStorage is a thread-safe in-memory Storage with rollback support.
//
// Entries are kept in a two-level map: identifier to window key to entry.
// A single mutex guards the table; each public operation is a critical
// section over it, so operations on one storage are linearizable. Events
// are collected inside the critical section and published after it.
type MemoryStorage struct {
	name string

	mu      sync.Mutex
	entries map[string]map[string]*Entry
	clock   *clock.ZonedClock

	metricsEnabled bool
	eventsEnabled  bool
	metrics        *Metrics
	publisher      event.Publisher
	logger         *slog.Logger
}

// NewMemoryStorage creates a storage with the given name and configuration.
func NewMemoryStorage(name string, cfg MemoryStorageConfig) *MemoryStorage {
	if cfg.Zone == nil {
		cfg.Zone = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = &clock.SystemClock{}
	}
	if cfg.Publisher == nil {
		cfg.Publisher = event.LogPublisher{Logger: cfg.Logger}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &MemoryStorage{
		name:           name,
		entries:        make(map[string]map[string]*Entry),
		clock:          clock.NewZonedClock(cfg.Clock, cfg.Zone),
		metricsEnabled: cfg.EnableMetrics,
		eventsEnabled:  cfg.EnableEvents,
		metrics:        NewMetrics(),
		publisher:      cfg.Publisher,
		logger:         cfg.Logger,
	}
}

// Name returns the storage name.
func (s *MemoryStorage) Name() string { return s.name }

// Metrics returns the storage's metrics accumulator.
func (s *MemoryStorage) Metrics() *Metrics { return s.metrics }

func (s *MemoryStorage) publish(ctx context.Context, events []any) {
	for _, evt := range events {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.DebugContext(ctx, "event publication failed",
				slog.String("storage", s.name),
				slog.String("error", err.Error()))
		}
	}
}

func (s *MemoryStorage) meta(identifier string, ts time.Time) event.Metadata {
	return event.NewMetadata(identifier, s.name, ts)
}

// locateLocked finds or creates the entry for (identifier, window) at the
// given instant, resetting it in place when its window has elapsed.
// Returned events must be published by the caller after unlocking.
func (s *MemoryStorage) locateLocked(identifier string, window time.Duration, now time.Time) (*Entry, []any) {
	var events []any

	perIdentifier, ok := s.entries[identifier]
	if !ok {
		perIdentifier = make(map[string]*Entry)
		s.entries[identifier] = perIdentifier
	}

	key := durationKey(window)
	entry, ok := perIdentifier[key]
	if !ok {
		entry = newEntry(windowKeyFor(now, window), window, windowStart(now, window))
		perIdentifier[key] = entry
		return entry, events
	}

	if entry.IsExpired(now) {
		entry.reset(windowStart(now, window), windowKeyFor(now, window))
		if s.metricsEnabled {
			s.metrics.RecordReset(identifier)
		}
		if s.eventsEnabled {
			events = append(events, ResetEvent{Metadata: s.meta(identifier, now), ResetAt: entry.ResetAt()})
		}
	}
	return entry, events
}

// TryConsume records one consumption if the counter is below the limit.
func (s *MemoryStorage) TryConsume(ctx context.Context, identifier string, limit int64, window time.Duration) (*Result, error) {
	now := s.clock.Now()

	s.mu.Lock()
	entry, events := s.locateLocked(identifier, window, now)

	var result *Result
	if entry.Count() < limit {
		entry.Increment()
		if s.metricsEnabled {
			s.metrics.RecordAllowed(identifier)
		}
		if s.eventsEnabled {
			events = append(events, AllowedEvent{Metadata: s.meta(identifier, now)})
		}
		result = newAllowedResult(identifier, s.name, entry.Count(), limit, window, entry.ResetAt(), s.clock.Zone())
	} else {
		if s.metricsEnabled {
			s.metrics.RecordDenied(identifier)
		}
		retryAfter := entry.ResetAt().Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		if s.eventsEnabled {
			events = append(events, DeniedEvent{Metadata: s.meta(identifier, now), RetryAt: entry.ResetAt()})
		}
		result = newDeniedResult(identifier, s.name, entry.Count(), limit, window, entry.ResetAt(), retryAfter, s.clock.Zone())
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return result, nil
}

// RecordRequest records one consumption without checking any limit.
func (s *MemoryStorage) RecordRequest(ctx context.Context, identifier string, window time.Duration) error {
	now := s.clock.Now()

	s.mu.Lock()
	entry, events := s.locateLocked(identifier, window, now)
	entry.Increment()
	if s.metricsEnabled {
		s.metrics.RecordAllowed(identifier)
	}
	if s.eventsEnabled {
		events = append(events, AllowedEvent{Metadata: s.meta(identifier, now)})
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// liveEntryLocked returns the identifier's current-window entry, or nil when it
// is absent or expired. Must be called while holding the storage lock.
func (s *MemoryStorage) liveEntryLocked(identifier string, window time.Duration, now time.Time) *Entry {
	perIdentifier, ok := s.entries[identifier]
	if !ok {
		return nil
	}
	entry, ok := perIdentifier[durationKey(window)]
	if !ok || entry.IsExpired(now) {
		return nil
	}
	return entry
}

// RequestCount returns the identifier's consumption count in the current
// window.
func (s *MemoryStorage) RequestCount(_ context.Context, identifier string, window time.Duration) (int64, error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.liveEntryLocked(identifier, window, now)
	if entry == nil {
		return 0, nil
	}
	return entry.Count(), nil
}

// RemainingRequests returns max(0, limit - count) for the current window.
func (s *MemoryStorage) RemainingRequests(ctx context.Context, identifier string, limit int64, window time.Duration) (int64, error) {
	count, err := s.RequestCount(ctx, identifier, window)
	if err != nil {
		return 0, err
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetTime returns when the identifier's current window resets.
func (s *MemoryStorage) ResetTime(_ context.Context, identifier string, window time.Duration) (time.Time, error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.liveEntryLocked(identifier, window, now)
	if entry == nil {
		return time.Time{}, nil
	}
	return entry.ResetAt(), nil
}

// RetryAfter returns how long the identifier must wait for a fresh window.
func (s *MemoryStorage) RetryAfter(ctx context.Context, identifier string, window time.Duration) (time.Duration, error) {
	resetTime, err := s.ResetTime(ctx, identifier, window)
	if err != nil {
		return 0, err
	}
	if resetTime.IsZero() {
		return 0, nil
	}
	retryAfter := resetTime.Sub(s.clock.Now())
	if retryAfter < 0 {
		retryAfter = 0
	}
	return retryAfter, nil
}

// Reset removes all entries for the identifier.
func (s *MemoryStorage) Reset(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, identifier)
	return nil
}

// Clear removes all entries, emitting one ClearEvent per identifier with
// its consumption count at clearing time, and resets metrics.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	now := s.clock.Now()
	var events []any

	s.mu.Lock()
	if s.eventsEnabled {
		for identifier, perIdentifier := range s.entries {
			var total int64
			for _, entry := range perIdentifier {
				total += entry.Count()
			}
			events = append(events, ClearEvent{Metadata: s.meta(identifier, now), TotalCount: total})
		}
	}
	s.entries = make(map[string]map[string]*Entry)
	if s.metricsEnabled {
		s.metrics.Reset()
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// Invalidate removes all expired entries, recording a reset and emitting a
// ResetEvent per removed entry.
func (s *MemoryStorage) Invalidate(ctx context.Context) error {
	now := s.clock.Now()
	var events []any

	s.mu.Lock()
	for identifier, perIdentifier := range s.entries {
		for key, entry := range perIdentifier {
			if !entry.IsExpired(now) {
				continue
			}
			delete(perIdentifier, key)
			if s.metricsEnabled {
				s.metrics.RecordReset(identifier)
			}
			if s.eventsEnabled {
				events = append(events, ResetEvent{Metadata: s.meta(identifier, now), ResetAt: entry.ResetAt()})
			}
		}
		if len(perIdentifier) == 0 {
			delete(s.entries, identifier)
		}
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// RollbackConsume decrements the identifier's current window counter.
//
// Missing or expired entries are left alone. Empty entries are removed,
// and the identifier's map is dropped once its last entry goes.
func (s *MemoryStorage) RollbackConsume(ctx context.Context, identifier string, window time.Duration) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	perIdentifier, ok := s.entries[identifier]
	if !ok {
		return nil
	}
	key := durationKey(window)
	entry, ok := perIdentifier[key]
	if !ok || entry.IsExpired(now) {
		return nil
	}

	entry.Decrement()
	if s.metricsEnabled {
		s.metrics.DecrementAllowed(identifier)
	}
	s.logger.DebugContext(ctx, "rolled back consumption",
		slog.String("storage", s.name),
		slog.String("identifier", identifier),
		slog.Int64("count", entry.Count()))

	if entry.Count() == 0 {
		delete(perIdentifier, key)
		if len(perIdentifier) == 0 {
			delete(s.entries, identifier)
		}
	}
	return nil
}

// statically assert the rollback capability.
var _ RollbackCapable = (*MemoryStorage)(nil)

// String returns a short description for logging.
func (s *MemoryStorage) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("MemoryStorage{name: %s, identifiers: %d}", s.name, len(s.entries))
}
