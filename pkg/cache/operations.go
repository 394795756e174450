package cache

import (
	"context"

	"cachegate/pkg/intercept"
)

// shouldSkip evaluates the descriptor's unless/condition pair.
//
// The operation is skipped when unless applies or when condition does not.
func shouldSkip(ctx context.Context, oc *OperationContext, condition, unless intercept.Condition) (bool, error) {
	if unless != nil {
		veto, err := unless.ShouldApply(ctx, oc.evalContext())
		if err != nil {
			return false, err
		}
		if veto {
			return true, nil
		}
	}
	if condition != nil {
		apply, err := condition.ShouldApply(ctx, oc.evalContext())
		if err != nil {
			return false, err
		}
		if !apply {
			return true, nil
		}
	}
	return false, nil
}

// CacheableOperation is the read-through operation.
//
// It attempts a get against each resolved cache in order; the first hit
// wins and is recorded as the cached result. When no cache holds the key,
// the context is marked as a cache miss.
type CacheableOperation struct {
	Descriptor *Cacheable
}

// Execute runs the read-through against the operation context.
func (op *CacheableOperation) Execute(ctx context.Context, oc *OperationContext) error {
	skip, err := shouldSkip(ctx, oc, op.Descriptor.Condition, op.Descriptor.Unless)
	if err != nil || skip {
		return err
	}

	storages, err := oc.ResolveCaches(ctx, op.Descriptor)
	if err != nil {
		return err
	}
	key, err := oc.GenerateKey(op.Descriptor.KeyGenerator)
	if err != nil {
		return err
	}

	for _, storage := range storages {
		entry, err := storage.Get(ctx, key)
		if err != nil {
			if herr := oc.OnGetError(ctx, err, storage.Name(), key); herr != nil {
				return herr
			}
			continue
		}
		if entry != nil {
			oc.SetCachedResult(entry.Get())
			return nil
		}
	}

	oc.MarkCacheMiss()
	return nil
}

// CachePutOperation is the write-through operation.
//
// It commits the captured method result to every resolved cache with the
// descriptor's TTL. Failures on one cache are dispatched to the error
// handler and do not abort the remaining caches.
type CachePutOperation struct {
	Descriptor *Cacheable
}

// Execute runs the write-through against the operation context.
func (op *CachePutOperation) Execute(ctx context.Context, oc *OperationContext) error {
	skip, err := shouldSkip(ctx, oc, op.Descriptor.Condition, op.Descriptor.Unless)
	if err != nil || skip {
		return err
	}
	if !oc.HasResult() {
		return nil
	}

	storages, err := oc.ResolveCaches(ctx, op.Descriptor)
	if err != nil {
		return err
	}
	key, err := oc.GenerateKey(op.Descriptor.KeyGenerator)
	if err != nil {
		return err
	}

	for _, storage := range storages {
		if err := storage.Put(ctx, key, oc.Result(), op.Descriptor.ttlArgs()...); err != nil {
			if herr := oc.OnPutError(ctx, err, storage.Name(), key); herr != nil {
				return herr
			}
		}
	}
	return nil
}

// CacheEvictOperation removes one key or all entries from the resolved
// caches.
//
// The non-throwing EvictIfPresent is used for single-key eviction; Evict's
// NoSuchEntry failure is reserved for direct storage callers. No failure
// aborts the remaining caches.
type CacheEvictOperation struct {
	Descriptor *CacheEvict
}

// Execute runs the eviction against the operation context.
func (op *CacheEvictOperation) Execute(ctx context.Context, oc *OperationContext) error {
	skip, err := shouldSkip(ctx, oc, op.Descriptor.Condition, op.Descriptor.Unless)
	if err != nil || skip {
		return err
	}

	storages, err := oc.ResolveCaches(ctx, &op.Descriptor.Cacheable)
	if err != nil {
		return err
	}

	if op.Descriptor.AllEntries {
		for _, storage := range storages {
			if err := storage.Clear(ctx); err != nil {
				if herr := oc.OnClearError(ctx, err, storage.Name()); herr != nil {
					return herr
				}
			}
		}
		return nil
	}

	key, err := oc.GenerateKey(op.Descriptor.KeyGenerator)
	if err != nil {
		return err
	}
	for _, storage := range storages {
		if _, err := storage.EvictIfPresent(ctx, key); err != nil {
			if herr := oc.OnEvictError(ctx, err, storage.Name(), key); herr != nil {
				return herr
			}
		}
	}
	return nil
}
