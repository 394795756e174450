package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Loader computes the value for a key on a cache miss.
type Loader func(ctx context.Context) (any, error)

// LoadingStorage decorates a Storage with read-through loading.
//
// Concurrent loads for the same key are collapsed into a single execution;
// the loaded value is committed through the decorated storage so TTL,
// metrics, and events apply as for any other put.
type LoadingStorage struct {
	Storage

	group singleflight.Group
}

// NewLoadingStorage decorates the given storage.
func NewLoadingStorage(storage Storage) *LoadingStorage {
	return &LoadingStorage{Storage: storage}
}

// GetOrLoad returns the cached value for the key, invoking the loader on a
// miss.
//
// Only one loader runs per key at a time; other callers for the same key
// wait for and share its result. The loaded value is stored with the
// storage's default TTL.
func (s *LoadingStorage) GetOrLoad(ctx context.Context, key any, loader Loader) (any, error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry.Get(), nil
	}

	value, err, _ := s.group.Do(fmt.Sprint(key), func() (any, error) {
		// Another caller may have loaded the key while this one waited
		// for the flight slot.
		entry, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry.Get(), nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(ctx, key, loaded); err != nil {
			return nil, err
		}
		return loaded, nil
	})
	return value, err
}
