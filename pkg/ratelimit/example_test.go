package ratelimit_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cachegate/pkg/clock"
	"cachegate/pkg/intercept"
	"cachegate/pkg/ratelimit"
)

// Example demonstrates a method guarded by a fixed-window limit: two
// invocations pass, the third is denied with the limit metadata.
func Example() {
	ctx := context.Background()

	manager := ratelimit.NewCompositeManager(ratelimit.CompositeManagerConfig{
		CreateIfNotFound: true,
		DefaultStorageConfig: ratelimit.MemoryStorageConfig{
			Clock:         clock.NewMockClock(time.Date(2025, 6, 1, 12, 0, 10, 0, time.UTC)),
			EnableMetrics: true,
		},
	})

	interceptor := ratelimit.NewInterceptor(ratelimit.InterceptorConfig{
		Registry: intercept.NewSimpleRegistry(),
		Resolver: ratelimit.NewCompositeResolver(manager),
	})

	method := intercept.NewSimpleMethod("CreateOrder", map[intercept.AnnotationKind]any{
		intercept.KindRateLimit: ratelimit.NewRateLimit([]string{"orders"}, 2, time.Minute),
	})

	for n := 0; n < 3; n++ {
		invocation := intercept.NewSimpleInvocation(nil, method, []any{"u:1"},
			func(context.Context, []any) (any, error) {
				return "accepted", nil
			})
		result, err := interceptor.Invoke(ctx, invocation)

		var exceeded *ratelimit.ExceededError
		switch {
		case errors.As(err, &exceeded):
			fmt.Println("denied, remaining:", exceeded.Result.RemainingCount)
		case err != nil:
			fmt.Println("error:", err)
		default:
			fmt.Println(result)
		}
	}
	// Output:
	// accepted
	// accepted
	// denied, remaining: 0
}
