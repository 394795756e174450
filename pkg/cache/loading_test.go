package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestLoadingStorage_LoadsOnceAndCaches(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := testStorage(t, nil)
	loading := NewLoadingStorage(storage)

	var loads atomic.Int64
	loader := func(context.Context) (any, error) {
		loads.Add(1)
		return "loaded", nil
	}

	value, err := loading.GetOrLoad(ctx, "k", loader)
	if err != nil || value != "loaded" {
		t.Fatalf("GetOrLoad() = %v, %v, want loaded, nil", value, err)
	}
	value, err = loading.GetOrLoad(ctx, "k", loader)
	if err != nil || value != "loaded" {
		t.Fatalf("second GetOrLoad() = %v, %v", value, err)
	}
	if loads.Load() != 1 {
		t.Errorf("loader ran %d times, want 1", loads.Load())
	}

	// The value was committed through the decorated storage.
	entry, err := storage.Get(ctx, "k")
	if err != nil || entry == nil || entry.Get() != "loaded" {
		t.Error("loaded value not stored")
	}
}

func TestLoadingStorage_ConcurrentLoadsCollapse(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := testStorage(t, nil)
	loading := NewLoadingStorage(storage)

	var loads atomic.Int64
	gate := make(chan struct{})
	loader := func(context.Context) (any, error) {
		loads.Add(1)
		<-gate
		return 42, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]any, workers)
	for n := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := loading.GetOrLoad(ctx, "hot", loader)
			if err != nil {
				t.Errorf("GetOrLoad() error = %v", err)
				return
			}
			results[n] = value
		}()
	}
	close(gate)
	wg.Wait()

	if loads.Load() > 2 {
		t.Errorf("loader ran %d times under contention, want at most 2", loads.Load())
	}
	for n, value := range results {
		if value != 42 {
			t.Errorf("worker %d got %v, want 42", n, value)
		}
	}
}

func TestLoadingStorage_LoaderFailure(t *testing.T) {
	ctx := context.Background()
	storage, _, _ := testStorage(t, nil)
	loading := NewLoadingStorage(storage)

	wantErr := errors.New("backend down")
	_, err := loading.GetOrLoad(ctx, "k", func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrLoad() error = %v, want %v", err, wantErr)
	}

	// Nothing was committed.
	entry, _ := storage.Get(ctx, "k")
	if entry != nil {
		t.Error("failed load left an entry behind")
	}
}
