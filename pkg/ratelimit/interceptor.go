package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"cachegate/internal/observability/tracing"
	"cachegate/pkg/intercept"
)

// InterceptorConfig holds the collaborators of the rate-limit interceptor.
type InterceptorConfig struct {
	// Registry resolves named collaborators for descriptors.
	Registry intercept.ComponentRegistry

	// KeyGenerator is the default key generator.
	// Default: SimpleKeyGenerator.
	KeyGenerator intercept.KeyGenerator

	// Resolver is the default storage resolver.
	Resolver Resolver

	// Logger receives debug output. Default: slog.Default().
	Logger *slog.Logger
}

// Interceptor orchestrates consumption across the resolved storages around
// a method invocation.
//
// Storages are consumed in resolution order; the first denial stops the
// loop, previously successful consumptions are rolled back in reverse
// (best-effort), and the method is either failed with ExceededError or
// silently skipped per the descriptor. When the method itself fails after
// all storages allowed, the successful consumptions are rolled back the
// same way.
//
// The interceptor declares the lowest precedence so other cross-cutting
// concerns run first.
type Interceptor struct {
	registry     intercept.ComponentRegistry
	keyGenerator intercept.KeyGenerator
	resolver     Resolver
	logger       *slog.Logger
	tracer       trace.Tracer
}

// NewInterceptor creates a rate-limit interceptor with the given
// configuration.
func NewInterceptor(cfg InterceptorConfig) *Interceptor {
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = intercept.SimpleKeyGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Interceptor{
		registry:     cfg.Registry,
		keyGenerator: cfg.KeyGenerator,
		resolver:     cfg.Resolver,
		logger:       cfg.Logger,
		tracer:       tracing.GetTracer(),
	}
}

// Order sorts the rate-limit interceptor after all other application
// interceptors.
func (i *Interceptor) Order() int {
	return intercept.LowestPrecedence
}

func rateLimitOf(method intercept.Method) *RateLimit {
	if a, ok := method.DirectAnnotation(intercept.KindRateLimit).(*RateLimit); ok {
		return a
	}
	return nil
}

// resolveStorages applies the descriptor's resolution precedence: named
// resolver, then declared names through the named manager, then the
// default resolver.
func (i *Interceptor) resolveStorages(ctx context.Context, descriptor *RateLimit) ([]Storage, error) {
	if descriptor.RateLimitResolver != "" {
		resolver, ok := intercept.GetAs[Resolver](i.registry, descriptor.RateLimitResolver)
		if !ok {
			return nil, fmt.Errorf("no rate limit resolver named %q", descriptor.RateLimitResolver)
		}
		return resolver.ResolveStorages(ctx, descriptor)
	}

	if descriptor.RateLimitManager != "" {
		manager, ok := intercept.GetAs[Manager](i.registry, descriptor.RateLimitManager)
		if !ok {
			return nil, fmt.Errorf("no rate limit manager named %q", descriptor.RateLimitManager)
		}
		named := &ManagerResolver{Manager: manager}
		return named.ResolveStorages(ctx, descriptor)
	}

	if i.resolver == nil {
		return nil, fmt.Errorf("no rate limit resolver configured")
	}
	return i.resolver.ResolveStorages(ctx, descriptor)
}

func (i *Interceptor) generateKey(descriptor *RateLimit, invocation intercept.MethodInvocation) (string, error) {
	generator := i.keyGenerator
	if descriptor.KeyGenerator != "" {
		named, ok := intercept.GetAs[intercept.KeyGenerator](i.registry, descriptor.KeyGenerator)
		if !ok {
			return "", fmt.Errorf("no key generator named %q", descriptor.KeyGenerator)
		}
		generator = named
	}
	key, err := generator.Generate(invocation.Target(), invocation.Method(), invocation.Arguments())
	if err != nil {
		return "", err
	}
	return fmt.Sprint(key), nil
}

// rollback reverses the given consumptions in reverse order, best-effort.
//
// Storages without rollback support are skipped; failures are swallowed and
// logged at debug severity.
func (i *Interceptor) rollback(ctx context.Context, storages []Storage, identifier string, descriptor *RateLimit) {
	for n := len(storages) - 1; n >= 0; n-- {
		capable, ok := storages[n].(RollbackCapable)
		if !ok {
			continue
		}
		if err := capable.RollbackConsume(ctx, identifier, descriptor.Window); err != nil {
			i.logger.DebugContext(ctx, "rollback failed",
				slog.String("storage", storages[n].Name()),
				slog.String("identifier", identifier),
				slog.String("error", err.Error()))
		}
	}
}

// Invoke applies the rate-limit phases around the invocation.
func (i *Interceptor) Invoke(ctx context.Context, invocation intercept.MethodInvocation) (any, error) {
	descriptor := rateLimitOf(invocation.Method())
	if descriptor == nil {
		return invocation.Proceed(ctx)
	}

	ec := &intercept.EvalContext{
		Target: invocation.Target(),
		Method: invocation.Method(),
		Args:   invocation.Arguments(),
	}
	if descriptor.Unless != nil {
		veto, err := descriptor.Unless.ShouldApply(ctx, ec)
		if err != nil {
			return nil, err
		}
		if veto {
			return invocation.Proceed(ctx)
		}
	}
	if descriptor.Condition != nil {
		apply, err := descriptor.Condition.ShouldApply(ctx, ec)
		if err != nil {
			return nil, err
		}
		if !apply {
			return invocation.Proceed(ctx)
		}
	}

	ctx, span := i.tracer.Start(ctx, "ratelimit.consume")
	defer span.End()

	storages, err := i.resolveStorages(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	identifier, err := i.generateKey(descriptor, invocation)
	if err != nil {
		return nil, err
	}

	successful := make([]Storage, 0, len(storages))
	for _, storage := range storages {
		result, err := storage.TryConsume(ctx, identifier, descriptor.Limit, descriptor.Window)
		if err != nil {
			i.rollback(ctx, successful, identifier, descriptor)
			return nil, err
		}
		if result.Allowed {
			successful = append(successful, storage)
			continue
		}

		i.rollback(ctx, successful, identifier, descriptor)
		if descriptor.ThrowOnExceeded {
			return nil, &ExceededError{Result: result}
		}
		i.logger.DebugContext(ctx, "rate limit exceeded, skipping invocation",
			slog.String("storage", storage.Name()),
			slog.String("identifier", identifier))
		return nil, nil
	}

	result, err := invocation.Proceed(ctx)
	if err != nil {
		i.rollback(ctx, successful, identifier, descriptor)
		return nil, err
	}
	return result, nil
}
