package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the cachegate library.
var tracer = otel.Tracer("cachegate")

// GetTracer returns the global tracer for creating spans.
// The interceptors use it to open spans around cache and rate-limit
// operations.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "cache.invoke")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
