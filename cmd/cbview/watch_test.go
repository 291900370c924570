package main

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.klb.dev/cbview/internal/display"
	"go.klb.dev/cbview/internal/loopback"
	"go.klb.dev/cbview/internal/message"
	"go.klb.dev/cbview/internal/viewer"
	"go.klb.dev/cbview/internal/winhost"
	"go.klb.dev/cbview/internal/wire"
)

type staticFetcher struct{ text string }

func (f staticFetcher) Fetch() (message.Content, error) { return message.NewText(f.text), nil }

func TestResolveHost(t *testing.T) {
	tests := []struct {
		flag, goos string
		want       string
		wantErr    bool
	}{
		{"auto", "windows", hostNative, false},
		{"auto", "linux", hostLoopback, false},
		{"", "darwin", hostLoopback, false},
		{"native", "windows", hostNative, false},
		{"native", "linux", "", true},
		{"loopback", "windows", hostLoopback, false},
		{"x11", "linux", "", true},
	}
	for _, tt := range tests {
		got, err := resolveHost(tt.flag, tt.goos)
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveHost(%q, %q) err = %v, wantErr %v", tt.flag, tt.goos, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveHost(%q, %q) = %q, want %q", tt.flag, tt.goos, got, tt.want)
		}
	}

	if _, err := resolveHost("native", "linux"); !errors.Is(err, winhost.ErrUnsupported) {
		t.Errorf("native on linux err = %v, want ErrUnsupported", err)
	}
}

// newTestServer returns an IPC server whose viewer has captured texts.
func newTestServer(t *testing.T, texts ...string) *ipcServer {
	t.Helper()
	list := display.NewList(0)
	h := loopback.New()
	obs := viewer.New(h, staticFetcher{}, list)
	self := h.Attach(obs)
	if err := obs.Attach(self); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { _ = obs.Detach() })
	for _, s := range texts {
		list.Append(s)
	}
	return &ipcServer{list: list, viewer: obs, host: hostLoopback, backend: "test"}
}

func TestRespondList(t *testing.T) {
	srv := newTestServer(t, "one", "two", "three")

	resp := srv.respond(&message.Message{Type: message.TypeList, Limit: 2})
	if resp.Type != message.TypeEntries {
		t.Fatalf("Type = %s, want ENTRIES", resp.Type)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Text != "two" || resp.Entries[1].Text != "three" {
		t.Errorf("Entries = %+v, want [two three]", resp.Entries)
	}
}

func TestRespondStatus(t *testing.T) {
	srv := newTestServer(t, "one")

	resp := srv.respond(&message.Message{Type: message.TypeStatus})
	if resp.Type != message.TypeStatusResponse || resp.Status == nil {
		t.Fatalf("resp = %+v, want STATUS_RESPONSE", resp)
	}
	st := resp.Status
	if !st.Registered {
		t.Error("expected viewer to report registered")
	}
	if st.Host != hostLoopback || st.Backend != "test" || st.Entries != 1 {
		t.Errorf("status = %+v", st)
	}
	if st.Next != "none" {
		t.Errorf("Next = %s, want none for a single viewer", st.Next)
	}
}

func TestRespondUnknown(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.respond(&message.Message{Type: "PING"})
	if resp.Type != message.TypeError {
		t.Fatalf("Type = %s, want ERROR", resp.Type)
	}
	if !strings.Contains(resp.Error, "PING") {
		t.Errorf("Error = %q", resp.Error)
	}
}

func TestRoundTripOverConn(t *testing.T) {
	srv := newTestServer(t, "hello")

	client, server := net.Pipe()
	defer client.Close()
	go srv.handleConn(server)

	resp, err := roundTrip(client, &message.Message{Type: message.TypeList})
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Text != "hello" {
		t.Errorf("Entries = %+v", resp.Entries)
	}
}

func TestRoundTripErrorResponse(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	go func() {
		defer server.Close()
		wc := wire.New(server)
		if _, err := wc.ReadMsg(); err != nil {
			return
		}
		_ = wc.WriteMsg(message.Errorf("watcher is shutting down"))
	}()

	_, err := roundTrip(client, &message.Message{Type: message.TypeStatus})
	if err == nil || err.Error() != "watcher is shutting down" {
		t.Fatalf("err = %v, want server error", err)
	}
}

func TestPrintEntries(t *testing.T) {
	var buf bytes.Buffer
	printEntries(&buf, nil)
	if !strings.Contains(buf.String(), "Nothing captured") {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	printEntries(&buf, []message.Entry{{Text: "a\nb", CapturedAt: time.Now()}})
	if out := buf.String(); !strings.Contains(out, `a\nb`) || strings.Count(out, "\n") != 1 {
		t.Errorf("output = %q, want one escaped line", out)
	}
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	st := &message.Status{
		Host:       hostNative,
		Backend:    "windows",
		Registered: true,
		Self:       "0x00001001",
		Next:       "0x00002002",
		StartedAt:  now.Add(-30 * time.Second),
		Counters:   message.Counters{Relayed: 7, Absorbed: 1},
	}

	var buf bytes.Buffer
	printStatus(&buf, st, now)
	out := buf.String()
	for _, want := range []string{"0x00002002", "30s ago", "Relayed:", "Chain repairs:"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFmtAge(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-5 * time.Second), "5s ago"},
		{now.Add(-3 * time.Minute), "3m ago"},
		{now.Add(-2 * time.Hour), now.Add(-2 * time.Hour).Format("15:04:05")},
	}
	for _, tt := range tests {
		if got := fmtAge(tt.at, now); got != tt.want {
			t.Errorf("fmtAge(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
