package ratelimit

import (
	"time"

	"cachegate/pkg/intercept"
)

// RateLimit describes fixed-window limiting for a method.
//
// It is the descriptor attached to a method under intercept.KindRateLimit.
// String fields name components in the host registry; nil conditions
// default to always-apply.
type RateLimit struct {
	// StorageNames are the storages that must all allow a consumption
	// before the method runs.
	StorageNames []string

	// Limit is the maximum number of consumptions per window.
	Limit int64

	// Window is the fixed window length.
	Window time.Duration

	// Condition gates the limit: it applies only when the condition
	// applies. Nil means always.
	Condition intercept.Condition

	// Unless vetoes the limit: it is skipped when the veto applies.
	// Nil means never.
	Unless intercept.Condition

	// KeyGenerator names the key generator to use; empty selects the
	// default.
	KeyGenerator string

	// RateLimitResolver names the resolver to use; empty defers to
	// RateLimitManager or the default resolver.
	RateLimitResolver string

	// RateLimitManager names the manager the storage names resolve
	// through; empty defers to the default resolver.
	RateLimitManager string

	// ThrowOnExceeded makes the interceptor fail with ExceededError on
	// denial instead of silently skipping the method.
	// NewRateLimit enables it; a zero-value descriptor does not.
	ThrowOnExceeded bool
}

// NewRateLimit creates a descriptor with the conventional defaults:
// failure on denial enabled.
func NewRateLimit(storageNames []string, limit int64, window time.Duration) *RateLimit {
	return &RateLimit{
		StorageNames:    storageNames,
		Limit:           limit,
		Window:          window,
		ThrowOnExceeded: true,
	}
}
