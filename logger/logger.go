// Package logger provides the leveled logger used across the service. The
// console implementation is meant for humans, the JSON implementation for
// log collectors, and TestLogger for assertions in tests.
package logger

import (
	"io"
	"os"
	"strings"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "NONE"
	}
}

// LevelFromString converts a case-insensitive level name into a LogLevel.
// Unknown names map to LevelInfo.
func LevelFromString(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "none", "off":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger is an interface for logging
type Logger interface {
	// With will return a new logger using metadata as the base context
	With(metadata map[string]any) Logger
	// WithPrefix will return a new logger with a prefix prepended to the message
	WithPrefix(prefix string) Logger
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// IsLevelEnabled returns true if the given log level is enabled
	IsLevelEnabled(level LogLevel) bool
}

// New returns a logger writing to stderr in the given format ("json" or
// "console") at the given level.
func New(format string, level LogLevel) Logger {
	return NewWithWriter(os.Stderr, format, level)
}

// NewWithWriter is like New but writes to w.
func NewWithWriter(w io.Writer, format string, level LogLevel) Logger {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return NewJSONLogger(w, level)
	}
	return NewConsoleLogger(w, level)
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewJSONLogger(io.Discard, LevelNone)
}

func cloneMetadata(src map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(src)+len(extra))
	for k, v := range src {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
