// Package ratelimit provides a fixed-window rate-limiting engine with
// identifier-scoped quotas, pluggable storage, rollback, and metrics.
//
// Storages count consumptions per (identifier, window); managers register
// storages by name with on-demand creation; resolvers map descriptors to
// storage collections; the interceptor orchestrates consumption across the
// resolved storages with best-effort rollback on denial or downstream
// failure. Defaults are in-process only.
package ratelimit

import (
	"fmt"
	"time"
)

// Result represents the outcome of a rate limit check.
//
// This value object carries everything a caller needs to understand the
// current limit state: the verdict, the capped counter, the window, and the
// retry delay.
type Result struct {
	// Identifier is the rate-limited subject (user, IP, token).
	Identifier string

	// LimitName is the storage that produced this result.
	LimitName string

	// Allowed indicates whether the request should be permitted.
	Allowed bool

	// CurrentCount is the number of consumptions in the current window,
	// capped at Limit so RemainingCount never goes negative.
	CurrentCount int64

	// Limit is the maximum number of consumptions allowed in the window.
	Limit int64

	// RemainingCount is Limit - CurrentCount, never negative.
	RemainingCount int64

	// Window is the fixed window length.
	Window time.Duration

	// ResetTime is when the current window resets.
	ResetTime time.Time

	// RetryAfter is how long the caller should wait before retrying.
	// Zero when the request was allowed.
	RetryAfter time.Duration

	// Zone is the time zone ResetTime is expressed in.
	Zone *time.Location
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	if r.Allowed {
		return fmt.Sprintf(
			"Result{Allowed: true, Identifier: %s, Storage: %s, Remaining: %d/%d, ResetTime: %s}",
			r.Identifier,
			r.LimitName,
			r.RemainingCount,
			r.Limit,
			r.ResetTime.Format(time.RFC3339),
		)
	}

	return fmt.Sprintf(
		"Result{Allowed: false, Identifier: %s, Storage: %s, Limit: %d, RetryAfter: %s, ResetTime: %s}",
		r.Identifier,
		r.LimitName,
		r.Limit,
		r.RetryAfter.String(),
		r.ResetTime.Format(time.RFC3339),
	)
}

// IsAllowed returns true if the request is allowed.
//
// This is a convenience method equivalent to checking the Allowed field.
func (r *Result) IsAllowed() bool {
	return r.Allowed
}

// IsDenied returns true if the request is denied.
func (r *Result) IsDenied() bool {
	return !r.Allowed
}

// HasRemaining returns true if there are consumptions remaining in the
// current window.
func (r *Result) HasRemaining() bool {
	return r.RemainingCount > 0
}

// ResetAtUnix returns the reset time as a Unix timestamp.
//
// This is useful for HTTP headers like X-RateLimit-Reset.
func (r *Result) ResetAtUnix() int64 {
	return r.ResetTime.Unix()
}

// RetryAfterSeconds returns the retry delay in seconds.
//
// This is useful for HTTP headers like Retry-After.
func (r *Result) RetryAfterSeconds() int64 {
	seconds := int64(r.RetryAfter.Seconds())
	if seconds < 0 {
		return 0
	}
	return seconds
}

// newAllowedResult builds a Result for an allowed consumption.
//
// The reported count is capped at the limit so the remaining count stays
// non-negative.
func newAllowedResult(identifier, limitName string, count, limit int64, window time.Duration, resetTime time.Time, zone *time.Location) *Result {
	current := count
	if current > limit {
		current = limit
	}
	return &Result{
		Identifier:     identifier,
		LimitName:      limitName,
		Allowed:        true,
		CurrentCount:   current,
		Limit:          limit,
		RemainingCount: limit - current,
		Window:         window,
		ResetTime:      resetTime,
		RetryAfter:     0,
		Zone:           zone,
	}
}

// newDeniedResult builds a Result for a denied consumption.
func newDeniedResult(identifier, limitName string, count, limit int64, window time.Duration, resetTime time.Time, retryAfter time.Duration, zone *time.Location) *Result {
	current := count
	if current > limit {
		current = limit
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Result{
		Identifier:     identifier,
		LimitName:      limitName,
		Allowed:        false,
		CurrentCount:   current,
		Limit:          limit,
		RemainingCount: limit - current,
		Window:         window,
		ResetTime:      resetTime,
		RetryAfter:     retryAfter,
		Zone:           zone,
	}
}
