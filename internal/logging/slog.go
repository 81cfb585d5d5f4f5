// Package logging owns the daemon's structured logger. The logger lives
// behind an atomic pointer so InitStructured can swap handlers at
// startup while earlier-captured references stay valid, and the level
// can be changed at runtime without rebuilding the handler.
package logging

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	opLogger atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

// Before InitStructured runs, logs go to stderr as text at info level.
func init() {
	logLevel.Set(slog.LevelInfo)
	opLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// Op returns the operational logger. Cache and service code logs
// through it; per-request logging goes through WithRequest.
func Op() *slog.Logger {
	return opLogger.Load()
}

// SetLevel changes the log level for all loggers vended by this package.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

// SetLevelFromString sets the log level from its textual form
// ("debug", "info", "warn", "error"). Unknown values leave the level
// unchanged.
func SetLevelFromString(level string) {
	switch level {
	case "debug", "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "info", "INFO":
		logLevel.Set(slog.LevelInfo)
	case "warn", "WARN", "warning", "WARNING":
		logLevel.Set(slog.LevelWarn)
	case "error", "ERROR":
		logLevel.Set(slog.LevelError)
	}
}
