// Package logging configures the process-wide slog logger that scheduler
// components derive their child loggers from.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a text logger at the given level, installs it as the slog
// default, and returns it. level comes from CHORES_LOG_LEVEL and is one of
// debug, info, warn, or error, case-insensitive; anything unrecognized
// falls back to info so a typo never silences the process.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
