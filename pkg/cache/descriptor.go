package cache

import (
	"time"

	"cachegate/pkg/intercept"
)

// Cacheable describes read-through caching for a method.
//
// It is the descriptor attached to a method under
// intercept.KindCacheable. String fields name components in the host
// registry; nil conditions default to always-apply.
type Cacheable struct {
	// CacheNames are the caches participating in the operation.
	// Duplicates are removed during resolution.
	CacheNames []string

	// Condition gates the operation: it runs only when the condition
	// applies. Nil means always.
	Condition intercept.Condition

	// Unless vetoes the operation: it is skipped when the veto applies.
	// Nil means never.
	Unless intercept.Condition

	// KeyGenerator names the key generator to use; empty selects the
	// default.
	KeyGenerator string

	// CacheManager names the manager whose caches participate; empty
	// defers to CacheResolver or the default resolver.
	CacheManager string

	// CacheResolver names the resolver to use; empty defers to
	// CacheManager or the default resolver.
	CacheResolver string

	// TTL overrides the storage default for values committed by this
	// descriptor. Nil applies the storage default.
	TTL *time.Duration
}

// CachePut describes write-through caching for a method: the return value
// is committed to the resolved caches after every invocation.
type CachePut struct {
	Cacheable
}

// CacheEvict describes eviction for a method.
type CacheEvict struct {
	Cacheable

	// AllEntries clears the resolved caches entirely instead of evicting
	// one key.
	AllEntries bool

	// BeforeInvocation runs the eviction before the method executes, so
	// entries are gone even when the method fails.
	BeforeInvocation bool
}

// ttlArgs converts the descriptor TTL to the variadic Put form.
func (c *Cacheable) ttlArgs() []time.Duration {
	if c.TTL == nil {
		return nil
	}
	return []time.Duration{*c.TTL}
}
