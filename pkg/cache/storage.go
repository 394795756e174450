package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cachegate/pkg/clock"
	"cachegate/pkg/event"
)

// Storage is a named keyed store of cache entries.
//
// All operations are logically atomic per key and safe for concurrent use.
// Implementations enforce TTL, capacity, eviction, metrics, and event
// emission. Operations accept a context because storages may suspend for
// backend I/O; event publication is awaited before an operation returns.
type Storage interface {
	// Name returns the storage name.
	Name() string

	// Get returns the entry for the key iff present and not expired.
	//
	// A miss returns (nil, nil). An expired entry is removed and reported
	// as absent; it must never be served.
	Get(ctx context.Context, key any) (*Entry, error)

	// Put inserts a fresh entry for the key.
	//
	// The optional ttl overrides the storage default; passing none applies
	// the default. When the storage is bounded and full, a configured
	// eviction policy makes room; otherwise Put fails with
	// CapacityExceededError.
	Put(ctx context.Context, key, value any, ttl ...time.Duration) error

	// PutIfAbsent inserts the entry only when the key is absent.
	//
	// A live existing entry is returned unchanged; an expired one is
	// treated as absent and replaced.
	PutIfAbsent(ctx context.Context, key, value any, ttl ...time.Duration) (*Entry, error)

	// Evict removes the entry for the key, failing with NoSuchEntryError
	// when it is absent.
	Evict(ctx context.Context, key any) error

	// EvictIfPresent removes the entry for the key if present, reporting
	// whether a removal happened.
	EvictIfPresent(ctx context.Context, key any) (bool, error)

	// Clear removes all entries and resets metrics.
	Clear(ctx context.Context) error

	// Invalidate removes all expired entries.
	Invalidate(ctx context.Context) error

	// Len returns the number of entries currently stored, expired ones
	// included.
	Len(ctx context.Context) (int, error)

	// Metrics returns the storage's metrics accumulator.
	Metrics() *Metrics
}

// MemoryStorageConfig holds configuration for MemoryStorage.
type MemoryStorageConfig struct {
	// MaxEntries bounds the storage capacity. Zero or negative means
	// unbounded.
	MaxEntries int

	// DefaultTTL applies to entries inserted without an explicit TTL.
	// Zero means entries do not expire by default.
	DefaultTTL time.Duration

	// EvictionPolicy chooses victims when the storage is full.
	// Nil means puts against a full storage fail.
	EvictionPolicy EvictionPolicy

	// Zone is the time zone all entry timestamps are expressed in.
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

// DefaultMemoryStorageConfig returns the default configuration: unbounded,
// non-expiring, UTC, metrics and events enabled.
func DefaultMemoryStorageConfig() MemoryStorageConfig {
	return MemoryStorageConfig{
		Zone:          time.UTC,
		Clock:         &clock.SystemClock{},
		EnableMetrics: true,
		EnableEvents:  true,
	}
}

// MemoryStorage is a thread-safe in-memory Storage.
//
// A single mutex guards the entry table; each public operation is a critical
// section over it, so operations on one storage are linearizable. Events are
// collected inside the critical section and published after it, so observers
// never reenter a locked storage.
type MemoryStorage struct {
	name string

	mu             sync.Mutex
	entries        map[any]*Entry
	maxEntries     int
	bounded        bool
	defaultTTL     time.Duration
	evictionPolicy EvictionPolicy
	clock          *clock.ZonedClock

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
		entries:        make(map[any]*Entry),
		maxEntries:     cfg.MaxEntries,
		bounded:        cfg.MaxEntries > 0,
		defaultTTL:     cfg.DefaultTTL,
		evictionPolicy: cfg.EvictionPolicy,
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

// SetEvictionPolicy replaces the eviction policy at runtime.
func (s *MemoryStorage) SetEvictionPolicy(p EvictionPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictionPolicy = p
}

// SetDefaultTTL replaces the default TTL at runtime.
//
// Negative durations are rejected.
func (s *MemoryStorage) SetDefaultTTL(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("default TTL must be non-negative, got %v", ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultTTL = ttl
	return nil
}

// SetZone rebinds the storage clock to a new zone.
func (s *MemoryStorage) SetZone(zone *time.Location) error {
	if zone == nil {
		return fmt.Errorf("zone must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock.NewZonedClock(s.clock, zone)
	return nil
}

// SetMaxEntries bounds the storage capacity at runtime.
//
// Negative values are rejected; any non-negative value, including zero,
// makes the storage bounded.
func (s *MemoryStorage) SetMaxEntries(n int) error {
	if n < 0 {
		return fmt.Errorf("max entries must be non-negative, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxEntries = n
	s.bounded = true
	return nil
}

// publish delivers collected events after the critical section.
func (s *MemoryStorage) publish(ctx context.Context, events []any) {
	for _, evt := range events {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.DebugContext(ctx, "event publication failed",
				slog.String("cache", s.name),
				slog.String("error", err.Error()))
		}
	}
}

func (s *MemoryStorage) meta(key any) event.Metadata {
	return event.NewMetadata(fmt.Sprint(key), s.name, s.clock.Now())
}

// Get returns the entry for the key iff present and not expired.
func (s *MemoryStorage) Get(ctx context.Context, key any) (*Entry, error) {
	var events []any

	s.mu.Lock()
	entry, ok := s.entries[key]
	switch {
	case !ok:
		if s.metricsEnabled {
			s.metrics.RecordMiss(key)
		}
		if s.eventsEnabled {
			events = append(events, MissEvent{Metadata: s.meta(key)})
		}
		entry = nil
	case entry.IsExpired():
		delete(s.entries, key)
		if s.metricsEnabled {
			s.metrics.RecordEviction(key)
			s.metrics.RecordExpiration(key)
		}
		if s.eventsEnabled {
			if ttl, hasTTL := entry.TTL(); hasTTL {
				events = append(events, ExpireEvent{Metadata: s.meta(key), TTL: ttl, Value: entry.Get()})
			}
		}
		entry = nil
	default:
		entry.RecordAccess()
		if s.metricsEnabled {
			s.metrics.RecordHit(key)
		}
		if s.eventsEnabled {
			events = append(events, HitEvent{Metadata: s.meta(key), Value: entry.Get()})
		}
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return entry, nil
}

// insertLocked places a fresh entry, applying capacity policy first.
// Must be called while holding the storage lock. Returned events must be
// published by the caller after unlocking.
func (s *MemoryStorage) insertLocked(key, value any, ttl time.Duration, hasTTL bool) (*Entry, []any, error) {
	var events []any

	if s.bounded {
		if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
			if s.evictionPolicy == nil {
				return nil, nil, &CapacityExceededError{Cache: s.name, MaxEntries: s.maxEntries}
			}
			victim, ok := s.evictionPolicy.DetermineEvictionCandidate(s.entries)
			if !ok {
				return nil, nil, &CapacityExceededError{Cache: s.name, MaxEntries: s.maxEntries}
			}
			delete(s.entries, victim)
			if s.metricsEnabled {
				s.metrics.RecordEviction(victim)
			}
			if s.eventsEnabled {
				events = append(events, EvictEvent{Metadata: s.meta(victim), Reason: ReasonPolicy})
			}
		}
	}

	entry := newEntry(value, ttl, hasTTL, s.clock)
	s.entries[key] = entry
	if s.metricsEnabled {
		s.metrics.RecordPut(key)
	}
	if s.eventsEnabled {
		events = append(events, PutEvent{Metadata: s.meta(key), Value: value, TTL: ttl, HasTTL: hasTTL})
	}
	return entry, events, nil
}

func (s *MemoryStorage) effectiveTTL(ttl []time.Duration) (time.Duration, bool) {
	if len(ttl) > 0 {
		return ttl[0], true
	}
	if s.defaultTTL > 0 {
		return s.defaultTTL, true
	}
	return 0, false
}

// Put inserts a fresh entry for the key.
func (s *MemoryStorage) Put(ctx context.Context, key, value any, ttl ...time.Duration) error {
	s.mu.Lock()
	effective, hasTTL := s.effectiveTTL(ttl)
	_, events, err := s.insertLocked(key, value, effective, hasTTL)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	return nil
}

// PutIfAbsent inserts the entry only when the key is absent.
//
// An expired entry counts as absent: it is removed with expiration
// accounting and replaced by the fresh one.
func (s *MemoryStorage) PutIfAbsent(ctx context.Context, key, value any, ttl ...time.Duration) (*Entry, error) {
	var events []any

	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		if !existing.IsExpired() {
			existing.RecordAccess()
			if s.metricsEnabled {
				s.metrics.RecordHit(key)
			}
			if s.eventsEnabled {
				events = append(events, HitEvent{Metadata: s.meta(key), Value: existing.Get()})
			}
			s.mu.Unlock()
			s.publish(ctx, events)
			return existing, nil
		}

		delete(s.entries, key)
		if s.metricsEnabled {
			s.metrics.RecordEviction(key)
			s.metrics.RecordExpiration(key)
		}
		if s.eventsEnabled {
			if expiredTTL, hasTTL := existing.TTL(); hasTTL {
				events = append(events, ExpireEvent{Metadata: s.meta(key), TTL: expiredTTL, Value: existing.Get()})
			}
		}
	}

	effective, hasTTL := s.effectiveTTL(ttl)
	entry, insertEvents, err := s.insertLocked(key, value, effective, hasTTL)
	events = append(events, insertEvents...)
	s.mu.Unlock()
	if err != nil {
		s.publish(ctx, events)
		return nil, err
	}

	s.publish(ctx, events)
	return entry, nil
}

// Evict removes the entry for the key, failing when it is absent.
func (s *MemoryStorage) Evict(ctx context.Context, key any) error {
	var events []any

	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.mu.Unlock()
		return &NoSuchEntryError{Cache: s.name, Key: key}
	}
	delete(s.entries, key)
	if s.metricsEnabled {
		s.metrics.RecordEviction(key)
	}
	if s.eventsEnabled {
		events = append(events, EvictEvent{Metadata: s.meta(key), Reason: ReasonManual})
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// EvictIfPresent removes the entry for the key if present.
func (s *MemoryStorage) EvictIfPresent(ctx context.Context, key any) (bool, error) {
	err := s.Evict(ctx, key)
	if err != nil {
		var notFound *NoSuchEntryError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear removes all entries, emits one ClearEvent per previously-present
// key, and resets metrics.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	var events []any

	s.mu.Lock()
	cleared := int64(len(s.entries))
	if s.eventsEnabled {
		for key := range s.entries {
			events = append(events, ClearEvent{Metadata: s.meta(key), EntriesCleared: cleared})
		}
	}
	s.entries = make(map[any]*Entry)
	if s.metricsEnabled {
		s.metrics.Reset()
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// Invalidate removes all expired entries.
func (s *MemoryStorage) Invalidate(ctx context.Context) error {
	var events []any

	s.mu.Lock()
	for key, entry := range s.entries {
		if !entry.IsExpired() {
			continue
		}
		delete(s.entries, key)
		if s.metricsEnabled {
			s.metrics.RecordEviction(key)
			s.metrics.RecordExpiration(key)
		}
		if s.eventsEnabled {
			if ttl, hasTTL := entry.TTL(); hasTTL {
				events = append(events, ExpireEvent{Metadata: s.meta(key), TTL: ttl, Value: entry.Get()})
			}
		}
	}
	s.mu.Unlock()

	s.publish(ctx, events)
	return nil
}

// Len returns the number of entries currently stored.
func (s *MemoryStorage) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}
