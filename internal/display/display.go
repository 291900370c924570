// Package display is the receiving end of captured clipboard text: a bounded
// in-memory list that the IPC surface reads from, plus optional sinks that
// see each entry as it arrives.
package display

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.klb.dev/cbview/internal/message"
)

const previewLen = 120

// Sink receives every captured entry. Must not block.
type Sink interface {
	Show(e message.Entry)
}

// List holds captured entries, oldest first.
type List struct {
	max   int
	sinks []Sink
	now   func() time.Time

	mu      sync.RWMutex
	entries []message.Entry
}

// NewList returns a list that keeps at most max entries (0 = unbounded).
func NewList(max int, sinks ...Sink) *List {
	return &List{max: max, sinks: sinks, now: time.Now}
}

// Append records text as a new entry. Identical consecutive captures are
// kept as separate entries.
func (l *List) Append(text string) {
	e := message.Entry{
		ID:         uuid.NewString(),
		Text:       text,
		CapturedAt: l.now(),
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if l.max > 0 && len(l.entries) > l.max {
		drop := len(l.entries) - l.max
		l.entries = append(l.entries[:0:0], l.entries[drop:]...)
	}
	total := len(l.entries)
	l.mu.Unlock()

	logEntry(e, total)
	for _, s := range l.sinks {
		s.Show(e)
	}
}

// Entries returns a copy of the newest n entries (all when n <= 0).
func (l *List) Entries(n int) []message.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tail := message.Tail(l.entries, n)
	out := make([]message.Entry, len(tail))
	copy(out, tail)
	return out
}

// Len returns the number of stored entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// logEntry logs a capture at INFO and, at DEBUG, a preview of the text.
func logEntry(e message.Entry, total int) {
	slog.Info("clipboard captured", "id", e.ID, "chars", len([]rune(e.Text)), "total", total)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("clipboard entry", "id", e.ID, "preview", Preview(e.Text, previewLen))
}

// Preview shortens s to at most n runes, marking the cut with an ellipsis.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
