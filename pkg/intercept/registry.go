package intercept

import (
	"sort"
	"sync"
)

// Order values for components implementing Ordered.
const (
	// HighestPrecedence sorts a component before everything else.
	HighestPrecedence = -1 << 31

	// LowestPrecedence sorts a component after everything else.
	LowestPrecedence = 1<<31 - 1
)

// Ordered is implemented by components that declare an iteration priority.
//
// Wherever the library iterates a collection of components (resolvers,
// managers, configurers), items declaring a lower Order value come first.
// Components that do not implement Ordered sort as LowestPrecedence: after
// every ordered one with a lower value. Ties, including those at
// LowestPrecedence, break in insertion order.
type Ordered interface {
	// Order returns the component's priority. Lower values sort first.
	Order() int
}

// SortByOrder stably sorts components per the Ordered contract.
//
// The input slice is sorted in place and returned for convenience.
func SortByOrder[T any](items []T) []T {
	sort.SliceStable(items, func(i, j int) bool {
		return orderOf(items[i]) < orderOf(items[j])
	})
	return items
}

func orderOf(item any) int {
	if o, ok := item.(Ordered); ok {
		return o.Order()
	}
	return LowestPrecedence
}

// ComponentRegistry is the read-only view of the host DI container.
//
// The library looks up collaborators (key generators, resolvers, managers)
// by string name and enumerates component collections by capability. It
// never performs type-system reflection; annotations carry names only.
type ComponentRegistry interface {
	// Get returns the named component, or false if none is registered.
	Get(name string) (any, bool)

	// AllOf returns all components registered under the given capability,
	// sorted per the Ordered contract.
	AllOf(capability string) []any
}

// SimpleRegistry is an in-process ComponentRegistry.
//
// Registration is guarded by a mutex; read paths take a stable snapshot so
// no lock is held while user components run. All methods are thread-safe.
type SimpleRegistry struct {
	mu           sync.RWMutex
	components   map[string]any
	capabilities map[string][]any
}

// NewSimpleRegistry creates an empty registry.
func NewSimpleRegistry() *SimpleRegistry {
	return &SimpleRegistry{
		components:   make(map[string]any),
		capabilities: make(map[string][]any),
	}
}

// Register binds a component to a name and zero or more capabilities.
//
// Re-registering a name replaces the previous component; the capability
// collections keep insertion order.
func (r *SimpleRegistry) Register(name string, component any, capabilities ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[name] = component
	for _, capability := range capabilities {
		r.capabilities[capability] = append(r.capabilities[capability], component)
	}
}

// Get returns the named component, or false if none is registered.
func (r *SimpleRegistry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// AllOf returns a sorted snapshot of the components registered under the
// given capability.
func (r *SimpleRegistry) AllOf(capability string) []any {
	r.mu.RLock()
	items := r.capabilities[capability]
	snapshot := make([]any, len(items))
	copy(snapshot, items)
	r.mu.RUnlock()
	return SortByOrder(snapshot)
}

// GetAs looks up a named component and asserts it to type T.
//
// Returns false when the name is unknown or the component has a different
// type.
func GetAs[T any](registry ComponentRegistry, name string) (T, bool) {
	var zero T
	if registry == nil {
		return zero, false
	}
	c, ok := registry.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
