package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingStorage errors on every operation.
type failingStorage struct {
	name string
	err  error
}

func (s *failingStorage) Name() string     { return s.name }
func (s *failingStorage) Metrics() *Metrics { return NewMetrics() }

func (s *failingStorage) Get(context.Context, any) (*Entry, error) { return nil, s.err }
func (s *failingStorage) Put(context.Context, any, any, ...time.Duration) error {
	return s.err
}
func (s *failingStorage) PutIfAbsent(context.Context, any, any, ...time.Duration) (*Entry, error) {
	return nil, s.err
}
func (s *failingStorage) Evict(context.Context, any) error              { return s.err }
func (s *failingStorage) EvictIfPresent(context.Context, any) (bool, error) { return false, s.err }
func (s *failingStorage) Clear(context.Context) error                   { return s.err }
func (s *failingStorage) Invalidate(context.Context) error              { return s.err }
func (s *failingStorage) Len(context.Context) (int, error)              { return 0, s.err }

func TestBreakerStorage_PassesThroughWhenClosed(t *testing.T) {
	ctx := context.Background()
	inner, _, _ := testStorage(t, nil)
	breaker := NewBreakerStorage(inner, BreakerStorageConfig{})

	if err := breaker.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	entry, err := breaker.Get(ctx, "k")
	if err != nil || entry == nil || entry.Get() != "v" {
		t.Fatalf("Get() = %v, %v, want live entry", entry, err)
	}
	if breaker.Name() != "users" {
		t.Errorf("Name() = %q, want users", breaker.Name())
	}
}

func TestBreakerStorage_DegradesWhenOpen(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	breaker := NewBreakerStorage(&failingStorage{name: "broken", err: boom}, BreakerStorageConfig{
		ConsecutiveFailures: 1,
	})

	// The first failure propagates and trips the circuit.
	if _, err := breaker.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want %v", err, boom)
	}

	// With the circuit open, reads degrade to misses and writes become
	// no-ops instead of failing the caller.
	entry, err := breaker.Get(ctx, "k")
	if err != nil || entry != nil {
		t.Errorf("degraded Get() = %v, %v, want nil, nil", entry, err)
	}
	if err := breaker.Put(ctx, "k", "v"); err != nil {
		t.Errorf("degraded Put() error = %v, want nil", err)
	}
	removed, err := breaker.EvictIfPresent(ctx, "k")
	if err != nil || removed {
		t.Errorf("degraded EvictIfPresent() = %v, %v, want false, nil", removed, err)
	}
	length, err := breaker.Len(ctx)
	if err != nil || length != 0 {
		t.Errorf("degraded Len() = %d, %v, want 0, nil", length, err)
	}
}
