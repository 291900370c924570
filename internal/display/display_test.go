package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.klb.dev/cbview/internal/message"
)

type recordingSink struct {
	shown []message.Entry
}

func (s *recordingSink) Show(e message.Entry) { s.shown = append(s.shown, e) }

func TestListKeepsDuplicates(t *testing.T) {
	l := NewList(0)
	l.Append("same")
	l.Append("same")

	got := l.Entries(0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Error("entries share an ID")
	}
}

func TestListDropsOldestBeyondMax(t *testing.T) {
	l := NewList(3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		l.Append(s)
	}

	var texts []string
	for _, e := range l.Entries(0) {
		texts = append(texts, e.Text)
	}
	if got := strings.Join(texts, ","); got != "c,d,e" {
		t.Errorf("entries = %s, want c,d,e", got)
	}
	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	l := NewList(0)
	l.Append("a")
	l.Append("b")

	got := l.Entries(1)
	if len(got) != 1 || got[0].Text != "b" {
		t.Fatalf("Entries(1) = %+v", got)
	}
	got[0].Text = "mutated"
	if l.Entries(0)[1].Text != "b" {
		t.Error("caller mutation leaked into the list")
	}
}

func TestAppendFeedsSinks(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	sink := &recordingSink{}
	l := NewList(0, sink)
	l.now = func() time.Time { return fixed }

	l.Append("hello")

	if len(sink.shown) != 1 {
		t.Fatalf("sink saw %d entries, want 1", len(sink.shown))
	}
	if e := sink.shown[0]; e.Text != "hello" || !e.CapturedAt.Equal(fixed) || e.ID == "" {
		t.Errorf("entry = %+v", e)
	}
}

func TestConsoleText(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	c.Show(message.Entry{Text: "line one\nline\ttwo", CapturedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})

	if got, want := buf.String(), "03:04:05 line one\\nline\\ttwo\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleJSON(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	c.Show(message.Entry{ID: "id-1", Text: "hi"})

	var e message.Entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if e.ID != "id-1" || e.Text != "hi" {
		t.Errorf("decoded = %+v", e)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 8, "truncate…"},
		{"héllo wörld", 5, "héllo…"},
	}
	for _, tt := range tests {
		if got := Preview(tt.in, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
