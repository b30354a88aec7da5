package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is one captured log entry
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is an slog.Handler that buffers records so tests can assert
// on what was logged. It captures every level and is safe for concurrent
// use.
type LogRecorder struct {
	mu      sync.Mutex
	records []LogRecord
	t       *testing.T
}

// NewLogger returns a logger wired to a fresh recorder. Records are also
// echoed to the test log for debugging.
func NewLogger(t *testing.T) (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{t: t}
	return slog.New(rec), rec
}

func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.records = append(h.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

func (h *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *LogRecorder) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything captured so far
func (h *LogRecorder) Records() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LogRecord, len(h.records))
	copy(out, h.records)
	return out
}

// ByLevel returns captured records at exactly the given level
func (h *LogRecorder) ByLevel(level slog.Level) []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []LogRecord
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Contains reports whether any record at the given level has message as a
// substring
func (h *LogRecorder) Contains(level slog.Level, message string) bool {
	for _, r := range h.ByLevel(level) {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return false
}

// AssertLogged fails the test when no record at level contains message
func AssertLogged(t *testing.T, rec *LogRecorder, level slog.Level, message string) {
	t.Helper()
	if rec.Contains(level, message) {
		return
	}
	t.Errorf("expected log at level %s containing %q", level, message)
	for _, r := range rec.ByLevel(level) {
		t.Logf("  captured: %s", r.Message)
	}
}
