package ratelimit

import (
	"context"
	"log/slog"
	"sync"
)

// Manager is a named-storage registry with lookup, enumeration, and
// lifecycle.
type Manager interface {
	// GetStorage returns the storage registered under the given name.
	//
	// Returns (nil, nil) when no storage exists and fail-on-missing is
	// disabled; NoRateLimitError when it is enabled.
	GetStorage(ctx context.Context, name string) (Storage, error)

	// StorageNames enumerates the registered storage names in
	// deterministic order.
	StorageNames() []string

	// ClearAll clears every direct storage in registration order.
	ClearAll(ctx context.Context) error

	// Destroy invalidates and clears every direct storage in registration
	// order.
	Destroy(ctx context.Context) error
}

// StorageCreator builds a storage on demand for an unknown name.
//
// A creator may decline by returning (nil, nil); the manager then tries the
// next one.
type StorageCreator func(ctx context.Context, name string) (Storage, error)

// CompositeManagerConfig holds configuration for CompositeManager.
type CompositeManagerConfig struct {
	// SubManagers are consulted before the manager's own storages, in
	// order.
	SubManagers []Manager

	// CreateIfNotFound enables on-demand storage creation via the
	// registered creators and, failing those, a default in-process
	// storage.
	CreateIfNotFound bool

	// FailIfNotFound makes lookups fail with NoRateLimitError instead of
	// returning nil when nothing was found or created.
	FailIfNotFound bool

	// DefaultStorageConfig configures storages the manager auto-creates.
	DefaultStorageConfig MemoryStorageConfig

	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

// CompositeManager combines ordered sub-managers, direct storages, and
// user-provided on-demand creators under the configured auto-create and
// fail policies.
//
// Registration is guarded by a mutex; read paths take a stable snapshot so
// no lock is held while storage code runs. All methods are thread-safe.
type CompositeManager struct {
	mu       sync.RWMutex
	sub      []Manager
	storages map[string]Storage
	order    []string
	creators []StorageCreator

	createIfNotFound bool
	failIfNotFound   bool
	defaultConfig    MemoryStorageConfig
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
		defaultConfig:    cfg.DefaultStorageConfig,
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

// RegisterCreator adds an on-demand storage creator.
//
// Creators are invoked in registration order when auto-creation is enabled.
func (m *CompositeManager) RegisterCreator(c StorageCreator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creators = append(m.creators, c)
}

// GetStorage returns the first storage matching the name.
//
// Lookup order: sub-managers, direct storages, registered creators, then a
// default in-process storage when auto-creation is enabled. With
// fail-on-missing, an exhausted lookup fails with NoRateLimitError.
func (m *CompositeManager) GetStorage(ctx context.Context, name string) (Storage, error) {
	m.mu.RLock()
	sub := append([]Manager(nil), m.sub...)
	creators := append([]StorageCreator(nil), m.creators...)
	m.mu.RUnlock()

	for _, manager := range sub {
		storage, err := manager.GetStorage(ctx, name)
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
		for _, creator := range creators {
			created, err := creator(ctx, name)
			if err != nil {
				m.logger.DebugContext(ctx, "rate limit storage creator failed",
					slog.String("storage", name),
					slog.String("error", err.Error()))
				continue
			}
			if created != nil {
				m.Register(created)
				return created, nil
			}
		}

		created := NewMemoryStorage(name, m.defaultConfig)
		m.Register(created)
		return created, nil
	}

	if m.failIfNotFound {
		return nil, &NoRateLimitError{Name: name}
	}
	return nil, nil
}

// StorageNames returns the union of sub-manager names and direct names.
func (m *CompositeManager) StorageNames() []string {
	m.mu.RLock()
	sub := append([]Manager(nil), m.sub...)
	direct := append([]string(nil), m.order...)
	m.mu.RUnlock()

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
		for _, name := range manager.StorageNames() {
			add(name)
		}
	}
	for _, name := range direct {
		add(name)
	}
	return names
}

func (m *CompositeManager) directSnapshot() []Storage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	storages := make([]Storage, 0, len(m.order))
	for _, name := range m.order {
		storages = append(storages, m.storages[name])
	}
	return storages
}

// ClearAll clears every direct storage in registration order.
func (m *CompositeManager) ClearAll(ctx context.Context) error {
	for _, storage := range m.directSnapshot() {
		if err := storage.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Destroy invalidates and then clears every direct storage in registration
// order.
func (m *CompositeManager) Destroy(ctx context.Context) error {
	for _, storage := range m.directSnapshot() {
		if err := storage.Invalidate(ctx); err != nil {
			return err
		}
		if err := storage.Clear(ctx); err != nil {
			return err
		}
	}
	return nil
}
