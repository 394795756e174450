// Package tracing provides OpenTelemetry tracing integration.
//
// The library does not configure an exporter; it only creates spans through
// the global tracer provider, so the host application decides where traces
// go.
//
// Example usage:
//
//	import "cachegate/internal/observability/tracing"
//
//	func consume(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "ratelimit.consume")
//	    defer span.End()
//	    // ... perform the check ...
//	}
package tracing
