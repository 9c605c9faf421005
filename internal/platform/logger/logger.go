package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output to stdout; services receive it
// through constructor options so tests can swap in a silent handler.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
