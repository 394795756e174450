package cache

import (
	"context"
	"log/slog"
	"sync"
)

// Resolver maps a Cacheable descriptor to an ordered, de-duplicated
// collection of storages.
type Resolver interface {
	// ResolveCaches returns the storages participating in the descriptor's
	// operation, unique by name, in resolution order.
	ResolveCaches(ctx context.Context, cacheable *Cacheable) ([]Storage, error)
}

// ManagerResolver resolves the descriptor's cache names against a single
// manager.
type ManagerResolver struct {
	Manager Manager
}

// ResolveCaches looks up each declared cache name in the bound manager.
func (r *ManagerResolver) ResolveCaches(ctx context.Context, cacheable *Cacheable) ([]Storage, error) {
	merged := newStorageSet()
	for _, name := range cacheable.CacheNames {
		storage, err := r.Manager.GetCache(ctx, name)
		if err != nil {
			return nil, err
		}
		if storage != nil {
			merged.add(storage)
		}
	}
	return merged.ordered, nil
}

// CompositeResolver chains sub-resolvers and falls back to a manager.
//
// Sub-resolver failures are ignored; results already collected are kept.
// Registration is guarded by a mutex with a stable snapshot taken for read
// paths.
type CompositeResolver struct {
	mu        sync.RWMutex
	resolvers []Resolver
	manager   Manager
	logger    *slog.Logger
}

// NewCompositeResolver creates a resolver chaining the given sub-resolvers
// with the manager as fallback for declared cache names.
func NewCompositeResolver(manager Manager, resolvers ...Resolver) *CompositeResolver {
	return &CompositeResolver{
		resolvers: append([]Resolver(nil), resolvers...),
		manager:   manager,
		logger:    slog.Default(),
	}
}

// AddResolver appends a sub-resolver to the chain.
func (r *CompositeResolver) AddResolver(sub Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers = append(r.resolvers, sub)
}

// ResolveCaches merges sub-resolver results in order, then adds the
// manager's storages for each declared name. Merging is by storage name;
// later duplicates lose.
func (r *CompositeResolver) ResolveCaches(ctx context.Context, cacheable *Cacheable) ([]Storage, error) {
	r.mu.RLock()
	resolvers := append([]Resolver(nil), r.resolvers...)
	manager := r.manager
	r.mu.RUnlock()

	merged := newStorageSet()

	for _, sub := range resolvers {
		storages, err := sub.ResolveCaches(ctx, cacheable)
		if err != nil {
			r.logger.DebugContext(ctx, "cache sub-resolver failed",
				slog.String("error", err.Error()))
			continue
		}
		for _, storage := range storages {
			merged.add(storage)
		}
	}

	if manager != nil {
		for _, name := range cacheable.CacheNames {
			storage, err := manager.GetCache(ctx, name)
			if err != nil {
				return nil, err
			}
			if storage != nil {
				merged.add(storage)
			}
		}
	}

	return merged.ordered, nil
}

// storageSet keeps storages unique by name in insertion order.
type storageSet struct {
	seen    map[string]struct{}
	ordered []Storage
}

func newStorageSet() *storageSet {
	return &storageSet{seen: make(map[string]struct{})}
}

func (s *storageSet) add(storage Storage) {
	if _, dup := s.seen[storage.Name()]; dup {
		return
	}
	s.seen[storage.Name()] = struct{}{}
	s.ordered = append(s.ordered, storage)
}
