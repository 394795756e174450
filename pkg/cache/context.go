package cache

import (
	"context"
	"fmt"
	"log/slog"

	"cachegate/pkg/intercept"
)

// OperationContext is the per-invocation state the three cache operations
// execute against.
//
// It wraps the MethodInvocation and owns key generation, storage
// resolution, and error dispatch. A fresh context is built for every
// intercepted invocation; it is not safe for concurrent use.
type OperationContext struct {
	// Invocation is the intercepted method invocation.
	Invocation intercept.MethodInvocation

	// Registry resolves named collaborators (key generators, resolvers,
	// managers).
	Registry intercept.ComponentRegistry

	// KeyGenerator is the default generator used when the descriptor names
	// none.
	KeyGenerator intercept.KeyGenerator

	// Resolver is the default resolver used when the descriptor names
	// neither a resolver nor a manager.
	Resolver Resolver

	// ErrorHandler receives transient storage failures.
	ErrorHandler ErrorHandler

	// Logger receives debug output.
	Logger *slog.Logger

	result          any
	hasResult       bool
	cachedResult    any
	hasCachedResult bool
	cacheMiss       bool
}

// NewOperationContext builds a context for one invocation, applying
// defaults for any unset collaborator.
func NewOperationContext(invocation intercept.MethodInvocation, registry intercept.ComponentRegistry, keyGen intercept.KeyGenerator, resolver Resolver, handler ErrorHandler, logger *slog.Logger) *OperationContext {
	if keyGen == nil {
		keyGen = intercept.SimpleKeyGenerator{}
	}
	if handler == nil {
		handler = LoggingErrorHandler{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationContext{
		Invocation:   invocation,
		Registry:     registry,
		KeyGenerator: keyGen,
		Resolver:     resolver,
		ErrorHandler: handler,
		Logger:       logger,
	}
}

// GenerateKey derives the cache key for the invocation.
//
// A non-empty preferredName selects a generator from the registry; an
// unknown name is an error. Otherwise the default generator applies.
func (c *OperationContext) GenerateKey(preferredName string) (any, error) {
	generator := c.KeyGenerator
	if preferredName != "" {
		named, ok := intercept.GetAs[intercept.KeyGenerator](c.Registry, preferredName)
		if !ok {
			return nil, fmt.Errorf("no key generator named %q", preferredName)
		}
		generator = named
	}
	return generator.Generate(c.Invocation.Target(), c.Invocation.Method(), c.Invocation.Arguments())
}

// ResolveCaches resolves the storages the descriptor operates on.
//
// Resolution precedence: the descriptor's named resolver, then all caches
// of the descriptor's named manager, then the default resolver.
func (c *OperationContext) ResolveCaches(ctx context.Context, cacheable *Cacheable) ([]Storage, error) {
	if cacheable.CacheResolver != "" {
		resolver, ok := intercept.GetAs[Resolver](c.Registry, cacheable.CacheResolver)
		if !ok {
			return nil, fmt.Errorf("no cache resolver named %q", cacheable.CacheResolver)
		}
		return resolver.ResolveCaches(ctx, cacheable)
	}

	if cacheable.CacheManager != "" {
		manager, ok := intercept.GetAs[Manager](c.Registry, cacheable.CacheManager)
		if !ok {
			return nil, fmt.Errorf("no cache manager named %q", cacheable.CacheManager)
		}
		merged := newStorageSet()
		for _, name := range manager.CacheNames() {
			storage, err := manager.GetCache(ctx, name)
			if err != nil {
				return nil, err
			}
			if storage != nil {
				merged.add(storage)
			}
		}
		return merged.ordered, nil
	}

	if c.Resolver == nil {
		return nil, fmt.Errorf("no cache resolver configured")
	}
	return c.Resolver.ResolveCaches(ctx, cacheable)
}

// evalContext builds the condition evaluation context, carrying the method
// result when one has been captured.
func (c *OperationContext) evalContext() *intercept.EvalContext {
	ec := &intercept.EvalContext{
		Target: c.Invocation.Target(),
		Method: c.Invocation.Method(),
		Args:   c.Invocation.Arguments(),
	}
	if c.hasResult {
		ec.Result = c.result
	}
	return ec
}

// SetResult captures the method return value.
func (c *OperationContext) SetResult(result any) {
	c.result = result
	c.hasResult = true
}

// Result returns the captured method return value.
func (c *OperationContext) Result() any { return c.result }

// HasResult reports whether a method result has been captured.
func (c *OperationContext) HasResult() bool { return c.hasResult }

// SetCachedResult captures a value served from cache.
func (c *OperationContext) SetCachedResult(value any) {
	c.cachedResult = value
	c.hasCachedResult = true
}

// CachedResult returns the value served from cache.
func (c *OperationContext) CachedResult() any { return c.cachedResult }

// HasCachedResult reports whether a cache hit was recorded.
func (c *OperationContext) HasCachedResult() bool { return c.hasCachedResult }

// MarkCacheMiss records that the read-through found no entry.
func (c *OperationContext) MarkCacheMiss() { c.cacheMiss = true }

// IsCacheMiss reports whether the read-through found no entry.
func (c *OperationContext) IsCacheMiss() bool { return c.cacheMiss }

// OnGetError dispatches a get failure to the error handler.
func (c *OperationContext) OnGetError(ctx context.Context, err error, cacheName string, key any) error {
	return c.ErrorHandler.OnGetError(ctx, err, cacheName, key)
}

// OnPutError dispatches a put failure to the error handler.
func (c *OperationContext) OnPutError(ctx context.Context, err error, cacheName string, key any) error {
	return c.ErrorHandler.OnPutError(ctx, err, cacheName, key)
}

// OnEvictError dispatches an evict failure to the error handler.
func (c *OperationContext) OnEvictError(ctx context.Context, err error, cacheName string, key any) error {
	return c.ErrorHandler.OnEvictError(ctx, err, cacheName, key)
}

// OnClearError dispatches a clear failure to the error handler.
func (c *OperationContext) OnClearError(ctx context.Context, err error, cacheName string) error {
	return c.ErrorHandler.OnClearError(ctx, err, cacheName)
}
