package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Records pick up the
// active trace/span ids through the wrapping handler.
func NewLogger(env string) *slog.Logger {
	var level slog.Level

	switch env {
	case "dev", "test":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}

	json := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(withTrace(json)).With("env", env)
}
