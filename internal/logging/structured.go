package logging

import (
	"log/slog"
	"os"
)

// InitStructured reconfigures the operational logger. The daemon calls
// it once with the resolved configuration; level is the single
// effective level (an empty string keeps the current one).
// format: "text" (default) or "json" (Loki/ELK compatible)
// level: "debug", "info", "warn", "error"
func InitStructured(format, level string) {
	SetLevelFromString(level)

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	opLogger.Store(slog.New(handler))
}

// WithRequest returns the operational logger annotated with a request
// correlation id.
func WithRequest(requestID string) *slog.Logger {
	l := opLogger.Load()
	if requestID == "" {
		return l
	}
	return l.With("request_id", requestID)
}
