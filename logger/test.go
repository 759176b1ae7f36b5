package logger

import (
	"fmt"
	"strings"
	"sync"
)

// TestLogEntry is one message captured by TestLogger.
type TestLogEntry struct {
	Severity string
	Message  string
	Metadata map[string]any
}

type testSink struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

// TestLogger records every message it receives. Loggers derived through
// With and WithPrefix share the parent's record. Safe for concurrent use.
type TestLogger struct {
	sink     *testSink
	metadata map[string]any
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a new Logger instance useful for testing
func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &testSink{}}
}

func (c *TestLogger) With(metadata map[string]any) Logger {
	return &TestLogger{sink: c.sink, metadata: cloneMetadata(c.metadata, metadata)}
}

func (c *TestLogger) WithPrefix(string) Logger { return c }

func (c *TestLogger) IsLevelEnabled(LogLevel) bool { return true }

func (c *TestLogger) log(severity, msg string, args ...any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	c.sink.mu.Lock()
	c.sink.entries = append(c.sink.entries, TestLogEntry{Severity: severity, Message: msg, Metadata: c.metadata})
	c.sink.mu.Unlock()
}

func (c *TestLogger) Trace(msg string, args ...any) { c.log("TRACE", msg, args...) }
func (c *TestLogger) Debug(msg string, args ...any) { c.log("DEBUG", msg, args...) }
func (c *TestLogger) Info(msg string, args ...any)  { c.log("INFO", msg, args...) }
func (c *TestLogger) Warn(msg string, args ...any)  { c.log("WARN", msg, args...) }
func (c *TestLogger) Error(msg string, args ...any) { c.log("ERROR", msg, args...) }

// Logs returns a copy of the captured entries.
func (c *TestLogger) Logs() []TestLogEntry {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	out := make([]TestLogEntry, len(c.sink.entries))
	copy(out, c.sink.entries)
	return out
}

// Count returns how many captured messages at severity contain substr. An
// empty severity matches all severities.
func (c *TestLogger) Count(severity, substr string) int {
	n := 0
	for _, e := range c.Logs() {
		if (severity == "" || e.Severity == severity) && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}
