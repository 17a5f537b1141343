// Package logging provides the structured logger used throughout the
// node, wrapping log/slog the way the teacher wraps log.Logger: one
// constructor returning a ready-to-use *slog.Logger, configured from the
// node's log level rather than threading handler options through every
// caller.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a *slog.Logger writing JSON lines to stderr at the given
// level ("debug", "info", "warn", "error"; unrecognized values fall back
// to "info"), tagged with the node's run ID so concurrent node logs in a
// shared terminal or aggregator can be told apart.
func New(level, runID string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler).With("run_id", runID)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
