package ratelimit

import (
	"time"

	"cachegate/pkg/event"
)

// AllowedEvent is emitted when a consumption is allowed.
type AllowedEvent struct {
	event.Metadata
}

// DeniedEvent is emitted when a consumption is denied.
type DeniedEvent struct {
	event.Metadata

	// RetryAt is when the denied subject may retry.
	RetryAt time.Time
}

// ResetEvent is emitted when a window counter resets.
type ResetEvent struct {
	event.Metadata

	// ResetAt is the end of the fresh window.
	ResetAt time.Time
}

// ClearEvent is emitted per identifier when a storage is cleared.
type ClearEvent struct {
	event.Metadata

	// TotalCount is the identifier's consumption count at clearing time.
	TotalCount int64
}
