// Package message defines the clipboard content types shared by the fetch
// and display sides, and the local IPC protocol spoken by cbview sub-commands.
//
// IPC messages are newline-delimited JSON; each message is exactly one line:
// <json>\n
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Format is the declared format of fetched clipboard content, as a MIME type.
type Format string

const (
	FormatNone  Format = ""
	FormatText  Format = "text/plain"
	FormatImage Format = "image/png"
)

// Content is one fetch of the shared clipboard. The zero value means the
// clipboard held nothing readable.
type Content struct {
	Format Format
	Data   []byte
}

// NewText returns text content.
func NewText(s string) Content {
	return Content{Format: FormatText, Data: []byte(s)}
}

// Empty reports whether the fetch produced no data.
func (c Content) Empty() bool { return len(c.Data) == 0 }

// IsText reports whether the content declares a text format.
func (c Content) IsText() bool { return c.Format == FormatText }

// Entry is a piece of captured text.
type Entry struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"captured_at"`
}

// Type identifies the kind of IPC message.
type Type string

const (
	TypeList           Type = "LIST"
	TypeEntries        Type = "ENTRIES"
	TypeStatus         Type = "STATUS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeError          Type = "ERROR"
)

// Counters mirrors the router's notification counters.
type Counters struct {
	Received      uint64 `json:"received"`
	Captured      uint64 `json:"captured"`
	FetchFailures uint64 `json:"fetch_failures"`
	Relayed       uint64 `json:"relayed"`
	RelayFailures uint64 `json:"relay_failures"`
	Absorbed      uint64 `json:"absorbed"`
	Ignored       uint64 `json:"ignored"`
}

// Status describes a running watcher.
type Status struct {
	Host       string    `json:"host"`
	Backend    string    `json:"backend"`
	Registered bool      `json:"registered"`
	Self       string    `json:"self"`
	Next       string    `json:"next"`
	Entries    int       `json:"entries"`
	StartedAt  time.Time `json:"started_at"`
	Counters   Counters  `json:"counters"`
}

// Message is the top-level IPC envelope.
type Message struct {
	Type Type `json:"type"`

	// LIST: maximum number of newest entries to return; 0 means all.
	Limit int `json:"limit,omitempty"`

	// ENTRIES, oldest first.
	Entries []Entry `json:"entries,omitempty"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Errorf builds an ERROR message.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message decode: missing type")
	}
	return &m, nil
}

// Tail returns the last n entries, or all of them when n <= 0.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
