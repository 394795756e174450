// Package event defines the event publication capability consumed by the
// caching and rate-limiting storages.
//
// Storages emit lifecycle events (hits, misses, puts, evictions, denials,
// resets) through a Publisher. Publication is awaited before the storage
// operation returns, so observers can rely on delivery order, but failures
// never abort the operation that triggered them.
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher delivers events to interested observers.
//
// Implementations must be safe for concurrent use. A Publisher must not
// block indefinitely; storages await publication synchronously.
type Publisher interface {
	// Publish delivers a single event.
	//
	// Errors are reported to the caller but storages treat publication as
	// best-effort and never fail an operation because of one.
	Publish(ctx context.Context, event any) error
}

// Metadata carries the fields common to every event emitted by the library.
//
// Concrete event types embed Metadata and add their own payload fields.
type Metadata struct {
	// ID uniquely identifies this event instance.
	ID string

	// Source is the subject of the event: the cache key or the rate-limit
	// identifier.
	Source string

	// Name is the cache or rate-limit storage name that emitted the event.
	Name string

	// EventTimestamp is the time the event was created, in the emitting
	// storage's zone.
	EventTimestamp time.Time
}

// NewMetadata creates event metadata with a fresh unique ID.
func NewMetadata(source, name string, ts time.Time) Metadata {
	return Metadata{
		ID:             uuid.NewString(),
		Source:         source,
		Name:           name,
		EventTimestamp: ts,
	}
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish discards the event and returns nil.
func (NopPublisher) Publish(context.Context, any) error { return nil }

// LogPublisher writes every event to a structured logger at debug level.
//
// It is the default publisher when events are enabled but no host event bus
// is bound.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs the event at debug level.
func (p LogPublisher) Publish(ctx context.Context, event any) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "event published", slog.Any("event", event))
	return nil
}

// Recorder is a Publisher that collects events in memory.
//
// It is intended for tests that assert on emitted event sequences.
// All methods are thread-safe.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

// Publish appends the event to the recorded sequence.
func (r *Recorder) Publish(_ context.Context, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of the recorded events in publication order.
func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]any, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
