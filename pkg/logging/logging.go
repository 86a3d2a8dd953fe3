// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a level name (debug, info, warn, error) into a slog.Level.
// Unknown or empty names map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// LevelFromEnv returns the level named by LOG_LEVEL, or info.
func LevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// NewTextLogger returns a human-readable logger writing to w.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewStructuredLogger returns a JSON logger writing to w, tagged with the
// module name and version.
func NewStructuredLogger(w io.Writer, name, version string, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(slog.String("module", name), slog.String("version", version))
}

// SetDefaultLogger installs a text logger writing to w as the slog default.
func SetDefaultLogger(w io.Writer, level slog.Level) {
	slog.SetDefault(NewTextLogger(w, level))
}

// SetDefaultStructuredLogger installs a JSON logger writing to w as the slog
// default, tagged with name and version.
func SetDefaultStructuredLogger(w io.Writer, name, version string, level slog.Level) {
	slog.SetDefault(NewStructuredLogger(w, name, version, level))
}
