package ratelimit

import (
	"context"
	"log/slog"
	"sync"
)

// Resolver maps a RateLimit descriptor to an ordered, de-duplicated
// collection of storages.
type Resolver interface {
	// ResolveStorages returns the storages participating in the
	// descriptor's consumption, unique by name, in resolution order.
	ResolveStorages(ctx context.Context, descriptor *RateLimit) ([]Storage, error)
}

// ManagerResolver resolves the descriptor's storage names against a single
// manager.
type ManagerResolver struct {
	Manager Manager
}

// ResolveStorages looks up each declared storage name in the bound manager.
func (r *ManagerResolver) ResolveStorages(ctx context.Context, descriptor *RateLimit) ([]Storage, error) {
	merged := newStorageSet()
	for _, name := range descriptor.StorageNames {
		storage, err := r.Manager.GetStorage(ctx, name)
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
// with the manager as fallback for declared storage names.
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

// ResolveStorages merges sub-resolver results in order, then adds the
// manager's storages for each declared name. Merging is by storage name;
// later duplicates lose.
func (r *CompositeResolver) ResolveStorages(ctx context.Context, descriptor *RateLimit) ([]Storage, error) {
	r.mu.RLock()
	resolvers := append([]Resolver(nil), r.resolvers...)
	manager := r.manager
	r.mu.RUnlock()

	merged := newStorageSet()

	for _, sub := range resolvers {
		storages, err := sub.ResolveStorages(ctx, descriptor)
		if err != nil {
			r.logger.DebugContext(ctx, "rate limit sub-resolver failed",
				slog.String("error", err.Error()))
			continue
		}
		for _, storage := range storages {
			merged.add(storage)
		}
	}

	if manager != nil {
		for _, name := range descriptor.StorageNames {
			storage, err := manager.GetStorage(ctx, name)
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
