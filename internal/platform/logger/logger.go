package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger used across handlers and services.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
