// Package logging builds the process-wide structured logger.
//
// Components receive a *slog.Logger and tag themselves with a
// "component" attribute; nothing else in the codebase touches handler
// construction.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn",
	// "error").
	Level string

	// Format is the output format ("json" or "text").
	Format string

	// Writer is the output writer. Defaults to os.Stderr.
	Writer io.Writer
}

// New creates a structured logger from cfg.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json", "":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	return slog.New(handler), nil
}

// parseLevel parses a log level string.
func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
