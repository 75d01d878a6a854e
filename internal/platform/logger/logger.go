// Package logger configures the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New builds a JSON slog logger and installs it as the default. Debug mode
// lowers the level and attaches source locations.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	addSource := false
	if debug {
		level = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: addSource,
			Level:     level,
		}),
	)
	slog.SetDefault(logger)
	return logger
}
