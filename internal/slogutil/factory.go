package slogutil

import (
	"io"
	"log/slog"

	"apidump/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewCLILogger builds the logger for one command invocation.
//
// Records go to w (usually stderr) in cfg.Format. When cfg.File is set every
// record at the effective level is also appended to that file, rotating at
// cfg.MaxSize. Explicit -v/-q flags override cfg.Level.
// The returned closer releases the log file.
func NewCLILogger(w io.Writer, cfg config.LoggingConfig, verbosity int, quiet bool) (*slog.Logger, io.Closer, error) {
	level := EffectiveLevel(cfg, verbosity, quiet)
	console := consoleHandler(w, cfg.Format, level)

	if cfg.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(cfg.File, ParseSize(cfg.MaxSize), cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	fileLevel := level
	if quiet {
		fileLevel = LevelFromString(cfg.Level)
	}
	file := NewHandler(rf, &slog.HandlerOptions{Level: fileLevel})
	return slog.New(NewTeeHandler(console, file)), rf, nil
}

// EffectiveLevel resolves the console level: flags beat config.
func EffectiveLevel(cfg config.LoggingConfig, verbosity int, quiet bool) slog.Level {
	if quiet || verbosity > 0 {
		return LevelFromVerbosity(verbosity, quiet)
	}
	if cfg.Level != "" {
		return LevelFromString(cfg.Level)
	}
	return slog.LevelWarn
}

func consoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return NewHandler(w, opts)
}
