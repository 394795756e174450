package cache

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"cachegate/internal/observability/tracing"
	"cachegate/pkg/intercept"
)

// InterceptorConfig holds the collaborators of the cache interceptor.
type InterceptorConfig struct {
	// Registry resolves named collaborators for descriptors.
	Registry intercept.ComponentRegistry

	// KeyGenerator is the default key generator.
	// Default: SimpleKeyGenerator.
	KeyGenerator intercept.KeyGenerator

	// Resolver is the default cache resolver.
	Resolver Resolver

	// ErrorHandler receives transient storage failures.
	// Default: LoggingErrorHandler.
	ErrorHandler ErrorHandler

	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

// Interceptor orchestrates the three cache operations around a method
// invocation.
//
// Per invocation: before-invocation evictions run first; a Cacheable
// read-through may short-circuit the method with a cached value; after the
// method returns, CachePut commits the result, a Cacheable miss commits the
// result to the resolved caches, and after-invocation evictions run last.
// All phases share one operation context.
type Interceptor struct {
	registry     intercept.ComponentRegistry
	keyGenerator intercept.KeyGenerator
	resolver     Resolver
	errorHandler ErrorHandler
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewInterceptor creates a cache interceptor with the given configuration.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = intercept.SimpleKeyGenerator{}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = LoggingErrorHandler{Logger: cfg.Logger}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Interceptor{
		registry:     cfg.Registry,
		keyGenerator: cfg.KeyGenerator,
		resolver:     cfg.Resolver,
		errorHandler: cfg.ErrorHandler,
		logger:       cfg.Logger,
		tracer:       tracing.GetTracer(),
	}
}

func cacheableOf(method intercept.Method) *Cacheable {
	if a, ok := method.DirectAnnotation(intercept.KindCacheable).(*Cacheable); ok {
		return a
	}
	return nil
}

func cachePutOf(method intercept.Method) *CachePut {
	if a, ok := method.DirectAnnotation(intercept.KindCachePut).(*CachePut); ok {
		return a
	}
	return nil
}

func cacheEvictOf(method intercept.Method) *CacheEvict {
	if a, ok := method.DirectAnnotation(intercept.KindCacheEvict).(*CacheEvict); ok {
		return a
	}
	return nil
}

// Invoke applies the cache phases around the invocation.
func (i *Interceptor) Invoke(ctx context.Context, invocation intercept.MethodInvocation) (any, error) {
	method := invocation.Method()
	cacheable := cacheableOf(method)
	put := cachePutOf(method)
	evict := cacheEvictOf(method)

	if cacheable == nil && put == nil && evict == nil {
		return invocation.Proceed(ctx)
	}

	ctx, span := i.tracer.Start(ctx, "cache.invoke")
	defer span.End()

	oc := NewOperationContext(invocation, i.registry, i.keyGenerator, i.resolver, i.errorHandler, i.logger)

	if evict != nil && evict.BeforeInvocation {
		op := &CacheEvictOperation{Descriptor: evict}
		if err := op.Execute(ctx, oc); err != nil {
			return nil, err
		}
	}

	if cacheable != nil {
		op := &CacheableOperation{Descriptor: cacheable}
		if err := op.Execute(ctx, oc); err != nil {
			return nil, err
		}
	}

	var result any
	if oc.HasCachedResult() {
		result = oc.CachedResult()
		oc.SetResult(result)
	} else {
		var err error
		result, err = invocation.Proceed(ctx)
		if err != nil {
			return nil, err
		}
		oc.SetResult(result)
	}

	if put != nil {
		op := &CachePutOperation{Descriptor: &put.Cacheable}
		if err := op.Execute(ctx, oc); err != nil {
			return nil, err
		}
	}

	if cacheable != nil && oc.IsCacheMiss() {
		// Commit the return value to every cache the Cacheable resolves
		// to, with the descriptor TTL.
		op := &CachePutOperation{Descriptor: cacheable}
		if err := op.Execute(ctx, oc); err != nil {
			return nil, err
		}
	}

	if evict != nil && !evict.BeforeInvocation {
		op := &CacheEvictOperation{Descriptor: evict}
		if err := op.Execute(ctx, oc); err != nil {
			return nil, err
		}
	}

	return result, nil
}
