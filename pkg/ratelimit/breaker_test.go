package ratelimit

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

func (s *failingStorage) TryConsume(context.Context, string, int64, time.Duration) (*Result, error) {
	return nil, s.err
}
func (s *failingStorage) RecordRequest(context.Context, string, time.Duration) error { return s.err }
func (s *failingStorage) RequestCount(context.Context, string, time.Duration) (int64, error) {
	return 0, s.err
}
func (s *failingStorage) RemainingRequests(context.Context, string, int64, time.Duration) (int64, error) {
	return 0, s.err
}
func (s *failingStorage) ResetTime(context.Context, string, time.Duration) (time.Time, error) {
	return time.Time{}, s.err
}
func (s *failingStorage) RetryAfter(context.Context, string, time.Duration) (time.Duration, error) {
	return 0, s.err
}
func (s *failingStorage) Reset(context.Context, string) error { return s.err }
func (s *failingStorage) Clear(context.Context) error         { return s.err }
func (s *failingStorage) Invalidate(context.Context) error    { return s.err }

func TestBreakerStorage_PassesThroughWhenClosed(t *testing.T) {
	ctx := context.Background()
	inner, _, _ := testStorage(t, nil)
	breaker := NewBreakerStorage(inner, BreakerStorageConfig{})

	result, err := breaker.TryConsume(ctx, "u:1", 2, time.Minute)
	if err != nil || !result.Allowed {
		t.Fatalf("TryConsume() = %+v, %v, want allowed", result, err)
	}
	count, err := breaker.RequestCount(ctx, "u:1", time.Minute)
	if err != nil || count != 1 {
		t.Errorf("RequestCount() = %d, %v, want 1", count, err)
	}
}

func TestBreakerStorage_FailsOpenWhenTripped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	breaker := NewBreakerStorage(&failingStorage{name: "broken", err: boom}, BreakerStorageConfig{
		ConsecutiveFailures: 1,
	})

	// The first failure propagates and trips the circuit.
	if _, err := breaker.TryConsume(ctx, "u:1", 1, time.Minute); !errors.Is(err, boom) {
		t.Fatalf("TryConsume() error = %v, want %v", err, boom)
	}

	// With the circuit open, every consumption is allowed.
	result, err := breaker.TryConsume(ctx, "u:1", 1, time.Minute)
	if err != nil {
		t.Fatalf("degraded TryConsume() error = %v", err)
	}
	if !result.Allowed {
		t.Error("open circuit must fail open and allow")
	}

	remaining, err := breaker.RemainingRequests(ctx, "u:1", 7, time.Minute)
	if err != nil || remaining != 7 {
		t.Errorf("degraded RemainingRequests() = %d, %v, want full limit", remaining, err)
	}
}

func TestBreakerStorage_RollbackForwarding(t *testing.T) {
	ctx := context.Background()
	inner, _, _ := testStorage(t, nil)
	breaker := NewBreakerStorage(inner, BreakerStorageConfig{})

	if _, err := breaker.TryConsume(ctx, "u:1", 5, time.Minute); err != nil {
		t.Fatalf("TryConsume() error = %v", err)
	}
	if err := breaker.RollbackConsume(ctx, "u:1", time.Minute); err != nil {
		t.Fatalf("RollbackConsume() error = %v", err)
	}
	count, _ := inner.RequestCount(ctx, "u:1", time.Minute)
	if count != 0 {
		t.Errorf("count after rollback = %d, want 0", count)
	}
}
