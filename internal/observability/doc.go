// Package observability provides the observability infrastructure shared by
// the caching and rate-limiting engines: structured logging and
// OpenTelemetry tracing.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - tracing: OpenTelemetry tracer handle used by the interceptors
package observability
