// Package logging builds the structured loggers used by the caching and
// rate-limiting engines.
//
// Loggers are standard log/slog instances configured for the library's
// needs: JSON or text encoding, a level read from CACHEGATE_LOG_LEVEL
// (with LOG_LEVEL as fallback), source locations on warn-capable setups,
// and a component tag distinguishing the cache, rate-limit, and sweeper
// subsystems. Context plumbing lets a host hand one logger down through
// every storage operation of a sweep or invocation.
//
// Example usage:
//
//	logger := logging.WithComponent(logging.NewLogger(), "sweeper")
//	ctx := logging.WithLogger(context.Background(), logger)
package logging
