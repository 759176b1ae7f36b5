package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// JSONLogEntry is a single line written by the JSON logger.
type JSONLogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type jsonLogger struct {
	mu        *sync.Mutex
	out       io.Writer
	level     LogLevel
	component string
	metadata  map[string]any
	ts        *time.Time // for unit testing
}

var _ Logger = (*jsonLogger)(nil)

// NewJSONLogger returns a Logger that writes one JSON object per line to w.
func NewJSONLogger(w io.Writer, level LogLevel) Logger {
	return &jsonLogger{mu: &sync.Mutex{}, out: w, level: level}
}

func (c *jsonLogger) clone() *jsonLogger {
	return &jsonLogger{
		mu:        c.mu,
		out:       c.out,
		level:     c.level,
		component: c.component,
		metadata:  cloneMetadata(c.metadata, nil),
		ts:        c.ts,
	}
}

func (c *jsonLogger) With(metadata map[string]any) Logger {
	l := c.clone()
	l.metadata = cloneMetadata(c.metadata, metadata)
	if comp, ok := l.metadata["component"].(string); ok {
		l.component = comp
		delete(l.metadata, "component")
	}
	return l
}

func (c *jsonLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	switch {
	case l.component == "":
		l.component = prefix
	case !strings.Contains(l.component, prefix):
		l.component = l.component + " " + prefix
	}
	return l
}

func (c *jsonLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.level && c.level != LevelNone
}

func (c *jsonLogger) log(level LogLevel, msg string, args ...any) {
	if !c.IsLevelEnabled(level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry := JSONLogEntry{
		Timestamp: time.Now(),
		Severity:  level.String(),
		Message:   msg,
		Component: c.component,
		Metadata:  c.metadata,
	}
	if c.ts != nil {
		entry.Timestamp = *c.ts
	}
	buf, err := json.Marshal(entry)
	if err != nil {
		buf = []byte(fmt.Sprintf(`{"severity":"ERROR","message":%q}`, "json.Marshal: "+err.Error()))
	}
	buf = append(buf, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.out.Write(buf)
}

func (c *jsonLogger) Trace(msg string, args ...any) { c.log(LevelTrace, msg, args...) }
func (c *jsonLogger) Debug(msg string, args ...any) { c.log(LevelDebug, msg, args...) }
func (c *jsonLogger) Info(msg string, args ...any)  { c.log(LevelInfo, msg, args...) }
func (c *jsonLogger) Warn(msg string, args ...any)  { c.log(LevelWarn, msg, args...) }
func (c *jsonLogger) Error(msg string, args ...any) { c.log(LevelError, msg, args...) }
