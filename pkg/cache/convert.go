package cache

import (
	"context"
	"fmt"
)

// ValueConverter converts cached payloads to caller-requested types.
//
// The conversion service is a host concern; the default converter only
// succeeds when the payload already has the requested type.
type ValueConverter interface {
	// Convert converts value to the type of the target example.
	Convert(value any, target any) (any, error)
}

// GetAs retrieves the value for the key converted to T.
//
// A miss or a nil payload returns the zero value with ok=false. A live
// entry whose payload is not a T (and which the converter cannot convert)
// returns an error.
func GetAs[T any](ctx context.Context, s Storage, key any, converter ...ValueConverter) (T, bool, error) {
	var zero T

	entry, err := s.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if entry == nil {
		return zero, false, nil
	}
	value := entry.Get()
	if value == nil {
		return zero, false, nil
	}

	if typed, ok := value.(T); ok {
		return typed, true, nil
	}

	if len(converter) > 0 && converter[0] != nil {
		converted, err := converter[0].Convert(value, zero)
		if err != nil {
			return zero, false, fmt.Errorf("cache %q: converting value for key %v: %w", s.Name(), key, err)
		}
		typed, ok := converted.(T)
		if !ok {
			return zero, false, fmt.Errorf("cache %q: converter returned %T for key %v", s.Name(), converted, key)
		}
		return typed, true, nil
	}

	return zero, false, fmt.Errorf("cache %q: value for key %v has type %T", s.Name(), key, value)
}
