package cache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Manager is a named-storage registry with lookup, enumeration, and
// lifecycle.
type Manager interface {
	// GetCache returns the storage registered under the given name.
	//
	// Returns (nil, nil) when no storage exists and fail-on-missing is
	// disabled; NoCacheFoundError when it is enabled.
	GetCache(ctx context.Context, name string) (Storage, error)

	// CacheNames enumerates the registered storage names in deterministic
	// order.
	CacheNames() []string

	// ClearAll clears every registered storage.
	ClearAll(ctx context.Context) error

	// Destroy invalidates and clears every registered storage.
	Destroy(ctx context.Context) error
}

// StorageFactory creates a storage on demand for an unknown name.
//
// A factory may decline by returning (nil, nil); the manager then tries the
// next one.
type StorageFactory func(ctx context.Context, name string) (Storage, error)

// CompositeManagerConfig holds configuration for CompositeManager.
type CompositeManagerConfig struct {
	// SubManagers are consulted before the manager's own storages, in
	// order.
	SubManagers []Manager

	// CreateIfNotFound enables on-demand storage creation via the
	// registered factories and, failing those, the DefaultFactory.
	CreateIfNotFound bool

	// FailIfNotFound makes lookups fail with NoCacheFoundError instead of
	// returning nil when nothing was found or created.
	FailIfNotFound bool

	// DefaultFactory builds the fallback storage when auto-creation is on
	// and no registered factory produced one. Nil disables the fallback.
	DefaultFactory StorageFactory

	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

// CompositeManager delegates lookups to ordered sub-managers first and then
// to its own direct storage set; names are the union of both.
//
// Registration is guarded by a mutex; read paths take a stable snapshot so
// no lock is held while storage code runs. All methods are thread-safe.
type CompositeManager struct {
	mu        sync.RWMutex
	sub       []Manager
	storages  map[string]Storage
	order     []string
	factories []StorageFactory

	createIfNotFound bool
	failIfNotFound   bool
	defaultFactory   StorageFactory
	logger           *slog.Logger
}

// NewCompositeManager creates a manager with the given configuration.
func NewCompositeManager(cfg CompositeManagerConfig) *CompositeManager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &CompositeManager{
		sub:              append([]Manager(nil), cfg.SubManagers...),
		storages:         make(map[string]Storage),
		createIfNotFound: cfg.CreateIfNotFound,
		failIfNotFound:   cfg.FailIfNotFound,
		defaultFactory:   cfg.DefaultFactory,
		logger:           cfg.Logger,
	}
}

// Register adds a storage under its own name, replacing any previous one.
func (m *CompositeManager) Register(storage Storage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.storages[storage.Name()]; !exists {
		m.order = append(m.order, storage.Name())
	}
	m.storages[storage.Name()] = storage
}

// RegisterFactory adds an on-demand storage factory.
//
// Factories are tried in registration order when auto-creation is enabled.
func (m *CompositeManager) RegisterFactory(f StorageFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories = append(m.factories, f)
}

func (m *CompositeManager) snapshot() ([]Manager, []Storage, []StorageFactory) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub := append([]Manager(nil), m.sub...)
	storages := make([]Storage, 0, len(m.order))
	for _, name := range m.order {
		storages = append(storages, m.storages[name])
	}
	factories := append([]StorageFactory(nil), m.factories...)
	return sub, storages, factories
}

// GetCache returns the first storage matching the name: sub-managers in
// order, then the direct set, then on-demand creation when enabled.
func (m *CompositeManager) GetCache(ctx context.Context, name string) (Storage, error) {
	sub, _, factories := m.snapshot()

	for _, manager := range sub {
		storage, err := manager.GetCache(ctx, name)
		if err == nil && storage != nil {
			return storage, nil
		}
	}

	m.mu.RLock()
	storage, ok := m.storages[name]
	m.mu.RUnlock()
	if ok {
		return storage, nil
	}

	if m.createIfNotFound {
		for _, factory := range factories {
			created, err := factory(ctx, name)
			if err != nil {
				m.logger.DebugContext(ctx, "cache factory failed",
					slog.String("cache", name),
					slog.String("error", err.Error()))
				continue
			}
			if created != nil {
				m.Register(created)
				return created, nil
			}
		}
		if m.defaultFactory != nil {
			created, err := m.defaultFactory(ctx, name)
			if err != nil {
				return nil, err
			}
			if created != nil {
				m.Register(created)
				return created, nil
			}
		}
	}

	if m.failIfNotFound {
		return nil, &NoCacheFoundError{Name: name}
	}
	return nil, nil
}

// CacheNames returns the union of sub-manager names and direct names.
func (m *CompositeManager) CacheNames() []string {
	sub, _, _ := m.snapshot()

	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, manager := range sub {
		for _, name := range manager.CacheNames() {
			add(name)
		}
	}
	m.mu.RLock()
	direct := append([]string(nil), m.order...)
	m.mu.RUnlock()
	for _, name := range direct {
		add(name)
	}
	return names
}

// ClearAll clears every registered storage; storages are cleared
// concurrently since inter-storage operations are independent.
func (m *CompositeManager) ClearAll(ctx context.Context) error {
	sub, storages, _ := m.snapshot()

	g, gctx := errgroup.WithContext(ctx)
	for _, manager := range sub {
		g.Go(func() error { return manager.ClearAll(gctx) })
	}
	for _, storage := range storages {
		g.Go(func() error { return storage.Clear(gctx) })
	}
	return g.Wait()
}

// Destroy invalidates and then clears every registered storage.
func (m *CompositeManager) Destroy(ctx context.Context) error {
	sub, storages, _ := m.snapshot()

	for _, manager := range sub {
		if err := manager.Destroy(ctx); err != nil {
			return err
		}
	}
	for _, storage := range storages {
		if err := storage.Invalidate(ctx); err != nil {
			return err
		}
		if err := storage.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}
