package cache

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
// While the circuit is open the storage degrades instead of failing the
// caller: gets report misses, writes and evictions become no-ops. This
// keeps a broken backend from taking the intercepted methods down with it.
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
		Name:        "cache:" + storage.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit state changed",
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

func (s *BreakerStorage) execute(ctx context.Context, op string, fn func() (any, error)) (any, bool, error) {
	result, err := s.breaker.Execute(fn)
	if err != nil {
		if isOpenCircuit(err) {
			s.logger.DebugContext(ctx, "cache operation degraded, circuit open",
				slog.String("cache", s.inner.Name()),
				slog.String("operation", op))
			return nil, true, nil
		}
		return nil, false, err
	}
	return result, false, nil
}

// Name returns the decorated storage's name.
func (s *BreakerStorage) Name() string { return s.inner.Name() }

// Metrics returns the decorated storage's metrics accumulator.
func (s *BreakerStorage) Metrics() *Metrics { return s.inner.Metrics() }

// Get returns the entry for the key; an open circuit reports a miss.
func (s *BreakerStorage) Get(ctx context.Context, key any) (*Entry, error) {
	result, degraded, err := s.execute(ctx, "get", func() (any, error) {
		return s.inner.Get(ctx, key)
	})
	if err != nil || degraded || result == nil {
		return nil, err
	}
	return result.(*Entry), nil
}

// Put inserts an entry; an open circuit drops the write.
func (s *BreakerStorage) Put(ctx context.Context, key, value any, ttl ...time.Duration) error {
	_, _, err := s.execute(ctx, "put", func() (any, error) {
		return nil, s.inner.Put(ctx, key, value, ttl...)
	})
	return err
}

// PutIfAbsent inserts the entry when absent; an open circuit does nothing.
func (s *BreakerStorage) PutIfAbsent(ctx context.Context, key, value any, ttl ...time.Duration) (*Entry, error) {
	result, degraded, err := s.execute(ctx, "put-if-absent", func() (any, error) {
		return s.inner.PutIfAbsent(ctx, key, value, ttl...)
	})
	if err != nil || degraded || result == nil {
		return nil, err
	}
	return result.(*Entry), nil
}

// Evict removes the entry for the key; an open circuit does nothing.
func (s *BreakerStorage) Evict(ctx context.Context, key any) error {
	_, _, err := s.execute(ctx, "evict", func() (any, error) {
		return nil, s.inner.Evict(ctx, key)
	})
	return err
}

// EvictIfPresent removes the entry if present; an open circuit reports no
// removal.
func (s *BreakerStorage) EvictIfPresent(ctx context.Context, key any) (bool, error) {
	result, degraded, err := s.execute(ctx, "evict-if-present", func() (any, error) {
		return s.inner.EvictIfPresent(ctx, key)
	})
	if err != nil || degraded {
		return false, err
	}
	return result.(bool), nil
}

// Clear removes all entries; an open circuit does nothing.
func (s *BreakerStorage) Clear(ctx context.Context) error {
	_, _, err := s.execute(ctx, "clear", func() (any, error) {
		return nil, s.inner.Clear(ctx)
	})
	return err
}

// Invalidate removes expired entries; an open circuit does nothing.
func (s *BreakerStorage) Invalidate(ctx context.Context) error {
	_, _, err := s.execute(ctx, "invalidate", func() (any, error) {
		return nil, s.inner.Invalidate(ctx)
	})
	return err
}

// Len returns the entry count; an open circuit reports zero.
func (s *BreakerStorage) Len(ctx context.Context) (int, error) {
	result, degraded, err := s.execute(ctx, "len", func() (any, error) {
		return s.inner.Len(ctx)
	})
	if err != nil || degraded {
		return 0, err
	}
	return result.(int), nil
}
