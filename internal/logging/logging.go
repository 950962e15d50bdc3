package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelOff is above every level the simulator logs at; it silences a logger.
const LevelOff = slog.Level(12)

// NewLogger builds the logger for a run from the configured level name and
// format, writing to w. Unlike ParseLevel it rejects names it does not know.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error", "off", "none", "quiet":
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return NewLoggerWithWriter(ParseLevel(level), format, w), nil
}

// NewLoggerWithWriter creates a logger writing to w. The CLI passes the
// command's stderr so stdout stays reserved for the report.
//
// format: "text" (human-readable) or "json" (structured)
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return NewLoggerWithWriter(LevelOff, "text", io.Discard)
}

// ParseLevel converts a string log level to slog.Level.
// Returns slog.LevelWarn for unrecognized values.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "off", "none", "quiet":
		return LevelOff
	default:
		return slog.LevelWarn
	}
}
