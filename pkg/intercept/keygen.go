package intercept

import (
	"context"
	"fmt"
	"strings"
)

// KeyGenerator derives a cache or rate-limit key from an invocation.
//
// Implementations must be deterministic: the same target, method, and
// arguments must always produce the same key.
type KeyGenerator interface {
	// Generate returns the key for the given invocation elements.
	Generate(target any, method Method, args []any) (any, error)
}

// KeyGeneratorFunc adapts a function to the KeyGenerator interface.
type KeyGeneratorFunc func(target any, method Method, args []any) (any, error)

// Generate calls the underlying function.
func (f KeyGeneratorFunc) Generate(target any, method Method, args []any) (any, error) {
	return f(target, method, args)
}

// SimpleKeyGenerator is the default key generator.
//
// Key derivation:
//   - no arguments: the method name
//   - one argument: the argument itself
//   - otherwise: the method name joined with the string forms of all
//     arguments, colon-separated
type SimpleKeyGenerator struct{}

// Generate derives the key per the SimpleKeyGenerator rules.
func (SimpleKeyGenerator) Generate(_ any, method Method, args []any) (any, error) {
	switch len(args) {
	case 0:
		return method.Name(), nil
	case 1:
		return args[0], nil
	default:
		parts := make([]string, 0, len(args)+1)
		parts = append(parts, method.Name())
		for _, arg := range args {
			parts = append(parts, fmt.Sprint(arg))
		}
		return strings.Join(parts, ":"), nil
	}
}

// EvalContext is the state a Condition evaluates against.
type EvalContext struct {
	// Target is the invocation target.
	Target any

	// Method is the invoked method's metadata.
	Method Method

	// Args are the invocation arguments.
	Args []any

	// Result is the method return value, when the condition is evaluated
	// after the method completed. Nil before invocation.
	Result any
}

// Condition is the expression/condition evaluation capability.
//
// The expression language itself is a host concern; the library only asks
// whether a descriptor applies to a given invocation. Evaluation may
// suspend, so a context is threaded through.
type Condition interface {
	// ShouldApply reports whether the guarded behavior applies.
	ShouldApply(ctx context.Context, ec *EvalContext) (bool, error)
}

// ConditionFunc adapts a function to the Condition interface.
type ConditionFunc func(ctx context.Context, ec *EvalContext) (bool, error)

// ShouldApply calls the underlying function.
func (f ConditionFunc) ShouldApply(ctx context.Context, ec *EvalContext) (bool, error) {
	return f(ctx, ec)
}

// Always is a Condition that always applies.
func Always() Condition {
	return ConditionFunc(func(context.Context, *EvalContext) (bool, error) { return true, nil })
}

// Never is a Condition that never applies.
func Never() Condition {
	return ConditionFunc(func(context.Context, *EvalContext) (bool, error) { return false, nil })
}
