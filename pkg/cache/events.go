package cache

import (
	"time"

	"cachegate/pkg/event"
)

// EvictReason explains why an entry was removed.
type EvictReason string

const (
	// ReasonManual marks an eviction requested by a caller.
	ReasonManual EvictReason = "manual"

	// ReasonPolicy marks an eviction chosen by the eviction policy to make
	// room for a new entry.
	ReasonPolicy EvictReason = "policy"

	// ReasonEvictionPolicy marks an eviction triggered by an external
	// capacity manager applying the configured policy outside a put.
	ReasonEvictionPolicy EvictReason = "eviction_policy"
)

// HitEvent is emitted when a get returns a live entry.
type HitEvent struct {
	event.Metadata
	Value any
}

// MissEvent is emitted when a get finds no entry.
type MissEvent struct {
	event.Metadata
}

// PutEvent is emitted when an entry is inserted.
type PutEvent struct {
	event.Metadata
	Value  any
	TTL    time.Duration
	HasTTL bool
}

// EvictEvent is emitted when an entry is removed for a non-TTL reason.
type EvictEvent struct {
	event.Metadata
	Reason EvictReason
}

// ExpireEvent is emitted when an entry with a TTL is removed after expiry.
type ExpireEvent struct {
	event.Metadata
	TTL   time.Duration
	Value any
}

// ClearEvent is emitted per previously-present key when a storage is
// cleared.
type ClearEvent struct {
	event.Metadata
	EntriesCleared int64
}
