package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// NoSuchEntryError is returned by Evict when the key is absent.
type NoSuchEntryError struct {
	Cache string
	Key   any
}

func (e *NoSuchEntryError) Error() string {
	return fmt.Sprintf("cache %q has no entry for key %v", e.Cache, e.Key)
}

// CapacityExceededError is returned by Put when the storage is full and no
// eviction policy is configured.
type CapacityExceededError struct {
	Cache      string
	MaxEntries int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("cache %q is full (max entries %d) and no eviction policy is configured", e.Cache, e.MaxEntries)
}

// NoCacheFoundError is returned by manager lookups when fail-on-missing is
// enabled and no storage could be found or created.
type NoCacheFoundError struct {
	Name string
}

func (e *NoCacheFoundError) Error() string {
	return fmt.Sprintf("no cache found for name %q", e.Name)
}

// ErrorHandler channels transient storage failures raised inside the
// multi-cache operation loops.
//
// A handler returning nil absorbs the failure and iteration continues; a
// handler returning an error aborts the surrounding operation with it.
// Implementations must not fail unless they intentionally fail fast.
type ErrorHandler interface {
	// OnGetError handles a failure during a get against one cache.
	OnGetError(ctx context.Context, err error, cacheName string, key any) error

	// OnPutError handles a failure during a put against one cache.
	OnPutError(ctx context.Context, err error, cacheName string, key any) error

	// OnEvictError handles a failure during an evict against one cache.
	OnEvictError(ctx context.Context, err error, cacheName string, key any) error

	// OnClearError handles a failure during a clear against one cache.
	OnClearError(ctx context.Context, err error, cacheName string) error
}

// LoggingErrorHandler absorbs failures after logging them.
//
// This is the default handler: one slow or broken cache never breaks the
// intercepted method.
type LoggingErrorHandler struct {
	Logger *slog.Logger
}

func (h LoggingErrorHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// OnGetError logs the failure and absorbs it.
func (h LoggingErrorHandler) OnGetError(ctx context.Context, err error, cacheName string, key any) error {
	h.logger().WarnContext(ctx, "cache get failed",
		slog.String("cache", cacheName),
		slog.Any("key", key),
		slog.String("error", err.Error()))
	return nil
}

// OnPutError logs the failure and absorbs it.
func (h LoggingErrorHandler) OnPutError(ctx context.Context, err error, cacheName string, key any) error {
	h.logger().WarnContext(ctx, "cache put failed",
		slog.String("cache", cacheName),
		slog.Any("key", key),
		slog.String("error", err.Error()))
	return nil
}

// OnEvictError logs the failure and absorbs it.
func (h LoggingErrorHandler) OnEvictError(ctx context.Context, err error, cacheName string, key any) error {
	h.logger().WarnContext(ctx, "cache evict failed",
		slog.String("cache", cacheName),
		slog.Any("key", key),
		slog.String("error", err.Error()))
	return nil
}

// OnClearError logs the failure and absorbs it.
func (h LoggingErrorHandler) OnClearError(ctx context.Context, err error, cacheName string) error {
	h.logger().WarnContext(ctx, "cache clear failed",
		slog.String("cache", cacheName),
		slog.String("error", err.Error()))
	return nil
}

// RethrowingErrorHandler propagates every failure unchanged.
//
// Use it when cache failures must abort the intercepted method.
type RethrowingErrorHandler struct{}

// OnGetError returns the original error.
func (RethrowingErrorHandler) OnGetError(_ context.Context, err error, _ string, _ any) error {
	return err
}

// OnPutError returns the original error.
func (RethrowingErrorHandler) OnPutError(_ context.Context, err error, _ string, _ any) error {
	return err
}

// OnEvictError returns the original error.
func (RethrowingErrorHandler) OnEvictError(_ context.Context, err error, _ string, _ any) error {
	return err
}

// OnClearError returns the original error.
func (RethrowingErrorHandler) OnClearError(_ context.Context, err error, _ string) error {
	return err
}
