package slogutil

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineShape = regexp.MustCompile(`^\d{4}-\d\d-\d\dT\d\d:\d\d:\d\dZ \[(debug|info|warn|error)\] [^\n]*\n$`)

func TestHandlerLineShape(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Info("Loaded manifest", "path", "api.yaml", "types", 12)

	line := buf.String()
	assert.Regexp(t, lineShape, line)
	assert.True(t, strings.HasSuffix(line, " [info] Loaded manifest | path=api.yaml types=12\n"), line)
}

func TestHandlerOmitsSeparatorWithoutAttrs(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).Warn("No inputs")
	assert.True(t, strings.HasSuffix(buf.String(), " [warn] No inputs\n"), buf.String())
}

func TestHandlerLevels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug - 2, "[debug]"},
		{slog.LevelDebug, "[debug]"},
		{slog.LevelInfo, "[info]"},
		{slog.LevelWarn, "[warn]"},
		{slog.LevelError, "[error]"},
		{slog.LevelError + 4, "[error]"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, slog.LevelDebug-4).Log(context.Background(), tt.level, "render")
			assert.Contains(t, buf.String(), " "+tt.want+" render")
		})
	}
}

func TestHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("resolving Bag`1")
	logger.Info("printed 3 namespaces")
	logger.Warn("unknown extension")
	logger.Error("snapshot store failed")

	out := buf.String()
	assert.NotContains(t, out, "resolving")
	assert.NotContains(t, out, "printed")
	assert.Contains(t, out, "unknown extension")
	assert.Contains(t, out, "snapshot store failed")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("input", "a.yaml").WithGroup("render")
	logger.Info("Rendered surface", "types", 3, slog.Group("opts", "nullable", true))

	assert.Contains(t, buf.String(), "| input=a.yaml render.types=3 render.opts.nullable=true\n")
}

func TestHandlerValueFormatting(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	NewLogger(&buf, slog.LevelInfo).Info("m",
		"path", "My Docs/a.cs",
		"quote", `say "hi"`,
		"took", 1500*time.Millisecond,
		"at", at,
		"empty", "",
	)

	out := buf.String()
	assert.Contains(t, out, `path="My Docs/a.cs"`)
	assert.Contains(t, out, `quote="say \"hi\""`)
	assert.Contains(t, out, "took=1.5s")
	assert.Contains(t, out, "at=2026-03-01T09:30:00Z")
	assert.Contains(t, out, "empty=\n")
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, LevelFromString(input), "input %q", input)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{3, false, slog.LevelDebug},
		{0, true, LevelSilent},
		{5, true, LevelSilent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromVerbosity(tt.verbosity, tt.quiet), "verbosity=%d quiet=%v", tt.verbosity, tt.quiet)
	}
}

func TestDiscardLoggerIsDisabled(t *testing.T) {
	logger := NewDiscardLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}

func TestTeeHandlerFansOutPerLevel(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(NewTeeHandler(
		NewHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)).With("cmd", "dump")

	logger.Debug("expanding inputs")
	logger.Warn("input changed while loading")

	assert.NotContains(t, console.String(), "expanding inputs")
	assert.Contains(t, console.String(), "input changed while loading | cmd=dump")
	require.Equal(t, 2, strings.Count(file.String(), "\n"))
	assert.Contains(t, file.String(), "expanding inputs | cmd=dump")
}
