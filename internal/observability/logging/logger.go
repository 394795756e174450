package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler encoding.
type Format string

const (
	// FormatJSON emits one JSON object per record, suitable for log
	// collectors.
	FormatJSON Format = "json"

	// FormatText emits human-readable key=value records for local
	// development.
	FormatText Format = "text"
)

// Options configures a logger built by New.
type Options struct {
	// Level is the minimum record level. Default: info.
	Level slog.Level

	// Format selects the encoding. Default: FormatJSON.
	Format Format

	// Writer receives the records. Default: os.Stdout.
	Writer io.Writer
}

// New creates a structured logger from the given options.
//
// Source locations are attached when the level admits warnings (debug,
// info, and warn), so that swallowed best-effort failures (rollbacks,
// sweep errors) remain traceable; error-only setups omit them.
func New(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Level <= slog.LevelWarn,
	}

	var handler slog.Handler
	if opts.Format == FormatText {
		handler = slog.NewTextHandler(opts.Writer, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Writer, handlerOpts)
	}
	return slog.New(handler)
}

// NewLogger creates a JSON logger at the level configured for the library.
//
// The level comes from CACHEGATE_LOG_LEVEL, falling back to LOG_LEVEL
// (debug, info, warn, error; default info).
func NewLogger() *slog.Logger {
	return New(Options{Level: levelFromEnv(), Format: FormatJSON})
}

// NewTextLogger creates a text logger at the level configured for the
// library. This is useful for local development and debugging.
func NewTextLogger() *slog.Logger {
	return New(Options{Level: levelFromEnv(), Format: FormatText})
}

// ParseLevel resolves a level name to a slog.Level.
//
// Unknown names resolve to info, matching the library's warn-and-default
// configuration style.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelFromEnv() slog.Level {
	raw := os.Getenv("CACHEGATE_LOG_LEVEL")
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	return ParseLevel(raw)
}

// WithComponent returns a logger tagged with the emitting library
// component ("cache", "ratelimit", "sweeper").
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// FromContext retrieves the logger from the context, or returns the
// default logger if none was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger attaches a logger to the context for downstream components.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

type loggerContextKey struct{}
