package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, LevelTrace, LevelFromString("TRACE"))
	assert.Equal(t, LevelDebug, LevelFromString(" debug "))
	assert.Equal(t, LevelWarn, LevelFromString("warning"))
	assert.Equal(t, LevelError, LevelFromString("error"))
	assert.Equal(t, LevelNone, LevelFromString("off"))
	assert.Equal(t, LevelInfo, LevelFromString("bogus"))
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, LevelInfo)
	l.Debug("hidden %d", 1)
	l.Info("cache read %s - %s", "flavors", "hit")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO ] cache read flavors - hit")
}

func TestConsoleLoggerPrefixAndMetadata(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, LevelTrace).WithPrefix("[cache]").With(map[string]any{"key": "flavors"})
	l.Warn("slow")
	out := buf.String()
	assert.Contains(t, out, "[cache] slow")
	assert.Contains(t, out, `{"key":"flavors"}`)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, LevelDebug).(*jsonLogger)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.ts = &ts
	l.WithPrefix("resolve").With(map[string]any{"entity": "location"}).Error("fetch %s - failure", "location:7")

	var entry JSONLogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry.Severity)
	assert.Equal(t, "fetch location:7 - failure", entry.Message)
	assert.Equal(t, "resolve", entry.Component)
	assert.Equal(t, "location", entry.Metadata["entity"])
	assert.True(t, ts.Equal(entry.Timestamp))
}

func TestJSONLoggerNone(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "json", LevelNone)
	l.Error("nothing")
	assert.Empty(t, buf.String())
	assert.False(t, l.IsLevelEnabled(LevelError))
}

func TestTestLoggerConcurrent(t *testing.T) {
	l := NewTestLogger()
	child := l.With(map[string]any{"a": 1})
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			child.Info("message %d", i)
		}()
	}
	wg.Wait()
	assert.Len(t, l.Logs(), 50)
	assert.Equal(t, 50, l.Count("INFO", "message"))
	assert.Equal(t, 0, l.Count("ERROR", ""))
	assert.True(t, strings.HasPrefix(l.Logs()[0].Message, "message "))
}
