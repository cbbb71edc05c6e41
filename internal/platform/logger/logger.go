package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns the structured logger used across the application. The level is
// controlled by CUSTODIA_LOG_LEVEL (debug, info, warn, error).
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("CUSTODIA_LOG_LEVEL")) {
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
