package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	reset      = "\033[0m"
	gray       = "\033[1;90m"
	green      = "\033[32m"
	magenta    = "\033[35m"
	red        = "\033[31m"
	whiteBold  = "\033[37;1m"
	cyanBold   = "\033[36;1m"
	blueBold   = "\033[34;1m"
	yellowBold = "\033[33;1m"
	purple     = "\u001b[38;5;200m"
)

type consoleLogger struct {
	mu       *sync.Mutex
	out      io.Writer
	color    bool
	level    LogLevel
	prefixes []string
	metadata map[string]any
}

var _ Logger = (*consoleLogger)(nil)

// NewConsoleLogger returns a Logger that writes human readable lines to w.
// Colors are used only when w is a terminal.
func NewConsoleLogger(w io.Writer, level LogLevel) Logger {
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("TERM") != "dumb" {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &consoleLogger{mu: &sync.Mutex{}, out: w, color: color, level: level}
}

func (c *consoleLogger) clone() *consoleLogger {
	return &consoleLogger{
		mu:       c.mu,
		out:      c.out,
		color:    c.color,
		level:    c.level,
		prefixes: slices.Clone(c.prefixes),
		metadata: cloneMetadata(c.metadata, nil),
	}
}

func (c *consoleLogger) paint(code, s string) string {
	if !c.color {
		return s
	}
	return code + s + reset
}

func (c *consoleLogger) With(metadata map[string]any) Logger {
	l := c.clone()
	l.metadata = cloneMetadata(c.metadata, metadata)
	return l
}

func (c *consoleLogger) WithPrefix(prefix string) Logger {
	l := c.clone()
	if !slices.Contains(l.prefixes, prefix) {
		l.prefixes = append(l.prefixes, prefix)
	}
	return l
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.level && c.level != LevelNone
}

func (c *consoleLogger) log(level LogLevel, levelColor, msgColor, msg string, args ...any) {
	if !c.IsLevelEnabled(level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	var b strings.Builder
	b.WriteString(time.Now().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(c.paint(levelColor, fmt.Sprintf("[%-5s]", level)))
	b.WriteByte(' ')
	if len(c.prefixes) > 0 {
		b.WriteString(c.paint(purple, strings.Join(c.prefixes, " ")))
		b.WriteByte(' ')
	}
	b.WriteString(c.paint(msgColor, msg))
	if len(c.metadata) > 0 {
		buf, _ := json.Marshal(c.metadata)
		b.WriteByte(' ')
		b.WriteString(c.paint(gray, string(buf)))
	}
	b.WriteByte('\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, b.String())
}

func (c *consoleLogger) Trace(msg string, args ...any) {
	c.log(LevelTrace, cyanBold, gray, msg, args...)
}

func (c *consoleLogger) Debug(msg string, args ...any) {
	c.log(LevelDebug, blueBold, green, msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...any) {
	c.log(LevelInfo, yellowBold, whiteBold, msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...any) {
	c.log(LevelWarn, magenta, magenta, msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...any) {
	c.log(LevelError, red, red, msg, args...)
}
