package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatsAndLevels(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantJSON  bool
		wantDebug bool
	}{
		{
			name:      "json at info",
			opts:      Options{Format: FormatJSON},
			wantJSON:  true,
			wantDebug: false,
		},
		{
			name:      "text at debug",
			opts:      Options{Level: slog.LevelDebug, Format: FormatText},
			wantJSON:  false,
			wantDebug: true,
		},
		{
			name:     "default format is json",
			opts:     Options{},
			wantJSON: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Writer = &buf
			logger := New(tt.opts)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))

			logger.Info("sweep finished", slog.Int("invalidated", 3))
			line := buf.String()
			require.NotEmpty(t, line)
			if tt.wantJSON {
				var record map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &record))
				assert.Equal(t, "sweep finished", record["msg"])
			} else {
				assert.Contains(t, line, "sweep finished")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: " warn ", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func TestNewLogger_LevelFromEnvironment(t *testing.T) {
	t.Setenv("CACHEGATE_LOG_LEVEL", "debug")
	logger := NewLogger()
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestNewLogger_FallsBackToGenericVariable(t *testing.T) {
	t.Setenv("CACHEGATE_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "error")
	logger := NewTextLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(Options{Writer: &buf}), "sweeper")

	logger.Info("started")
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &record))
	assert.Equal(t, "sweeper", record["component"])
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger := New(Options{Format: FormatText})
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
