package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerStorageConfig holds configuration for BreakerStorage.
type BreakerStorageConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open
	// state. Default: 3.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear
	// success/failure counts. Default: 30s.
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again.
	// Default: 60s.
	Timeout time.Duration

	// ConsecutiveFailures trips the circuit after this many failures in a
	// row. Default: 5.
	ConsecutiveFailures uint32

	// Logger receives state-change and degradation output.
	// Default: slog.Default().
	Logger *slog.Logger
}

// BreakerStorage decorates a Storage with a circuit breaker.
//
// While the circuit is open the storage fails open: every consumption is
// allowed. Availability wins over strict limiting when the backing store is
// broken, which suits DoS protection but not hard quota enforcement.
type BreakerStorage struct {
	inner   Storage
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewBreakerStorage decorates the given storage with a circuit breaker.
func NewBreakerStorage(storage Storage, cfg BreakerStorageConfig) *BreakerStorage {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ratelimit:" + storage.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("rate limit circuit state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &BreakerStorage{inner: storage, breaker: breaker, logger: logger}
}

func isOpenCircuit(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Name returns the decorated storage's name.
func (s *BreakerStorage) Name() string { return s.inner.Name() }

// Metrics returns the decorated storage's metrics accumulator.
func (s *BreakerStorage) Metrics() *Metrics { return s.inner.Metrics() }

// TryConsume consumes through the breaker; an open circuit allows the
// consumption (fail-open).
func (s *BreakerStorage) TryConsume(ctx context.Context, identifier string, limit int64, window time.Duration) (*Result, error) {
	result, err := s.breaker.Execute(func() (any, error) {
		return s.inner.TryConsume(ctx, identifier, limit, window)
	})
	if err != nil {
		if isOpenCircuit(err) {
			s.logger.DebugContext(ctx, "rate limit degraded, circuit open, allowing",
				slog.String("storage", s.inner.Name()),
				slog.String("identifier", identifier))
			return newAllowedResult(identifier, s.inner.Name(), 0, limit, window, time.Time{}, time.UTC), nil
		}
		return nil, err
	}
	return result.(*Result), nil
}

func (s *BreakerStorage) execute(ctx context.Context, op string, fn func() (any, error)) (any, bool, error) {
	result, err := s.breaker.Execute(fn)
	if err != nil {
		if isOpenCircuit(err) {
			s.logger.DebugContext(ctx, "rate limit operation degraded, circuit open",
				slog.String("storage", s.inner.Name()),
				slog.String("operation", op))
			return nil, true, nil
		}
		return nil, false, err
	}
	return result, false, nil
}

// RecordRequest records through the breaker; an open circuit drops the
// recording.
func (s *BreakerStorage) RecordRequest(ctx context.Context, identifier string, window time.Duration) error {
	_, _, err := s.execute(ctx, "record", func() (any, error) {
		return nil, s.inner.RecordRequest(ctx, identifier, window)
	})
	return err
}

// RequestCount reads through the breaker; an open circuit reports zero.
func (s *BreakerStorage) RequestCount(ctx context.Context, identifier string, window time.Duration) (int64, error) {
	result, degraded, err := s.execute(ctx, "count", func() (any, error) {
		return s.inner.RequestCount(ctx, identifier, window)
	})
	if err != nil || degraded {
		return 0, err
	}
	return result.(int64), nil
}

// RemainingRequests reads through the breaker; an open circuit reports the
// full limit.
func (s *BreakerStorage) RemainingRequests(ctx context.Context, identifier string, limit int64, window time.Duration) (int64, error) {
	result, degraded, err := s.execute(ctx, "remaining", func() (any, error) {
		return s.inner.RemainingRequests(ctx, identifier, limit, window)
	})
	if err != nil {
		return 0, err
	}
	if degraded {
		return limit, nil
	}
	return result.(int64), nil
}

// ResetTime reads through the breaker; an open circuit reports the zero
// time.
func (s *BreakerStorage) ResetTime(ctx context.Context, identifier string, window time.Duration) (time.Time, error) {
	result, degraded, err := s.execute(ctx, "reset-time", func() (any, error) {
		return s.inner.ResetTime(ctx, identifier, window)
	})
	if err != nil || degraded {
		return time.Time{}, err
	}
	return result.(time.Time), nil
}

// RetryAfter reads through the breaker; an open circuit reports zero.
func (s *BreakerStorage) RetryAfter(ctx context.Context, identifier string, window time.Duration) (time.Duration, error) {
	result, degraded, err := s.execute(ctx, "retry-after", func() (any, error) {
		return s.inner.RetryAfter(ctx, identifier, window)
	})
	if err != nil || degraded {
		return 0, err
	}
	return result.(time.Duration), nil
}

// Reset removes the identifier's entries through the breaker.
func (s *BreakerStorage) Reset(ctx context.Context, identifier string) error {
	_, _, err := s.execute(ctx, "reset", func() (any, error) {
		return nil, s.inner.Reset(ctx, identifier)
	})
	return err
}

// Clear removes all entries through the breaker.
func (s *BreakerStorage) Clear(ctx context.Context) error {
	_, _, err := s.execute(ctx, "clear", func() (any, error) {
		return nil, s.inner.Clear(ctx)
	})
	return err
}

// Invalidate removes expired entries through the breaker.
func (s *BreakerStorage) Invalidate(ctx context.Context) error {
	_, _, err := s.execute(ctx, "invalidate", func() (any, error) {
		return nil, s.inner.Invalidate(ctx)
	})
	return err
}

// RollbackConsume forwards rollback when the decorated storage supports it.
//
// Rollback stays best-effort: breaker failures are swallowed.
func (s *BreakerStorage) RollbackConsume(ctx context.Context, identifier string, window time.Duration) error {
	capable, ok := s.inner.(RollbackCapable)
	if !ok {
		return nil
	}
	_, _, err := s.execute(ctx, "rollback", func() (any, error) {
		return nil, capable.RollbackConsume(ctx, identifier, window)
	})
	if err != nil {
		s.logger.DebugContext(ctx, "rollback through breaker failed",
			slog.String("storage", s.inner.Name()),
			slog.String("error", err.Error()))
	}
	return nil
}
