// Package clip reads the system clipboard and watches it for changes.
// Build constraints select the appropriate implementation:
//
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go    Linux via golang.design/x/clipboard, byte comparison
//	clip_other.go    headless stub
//
// The viewer never writes the clipboard, so backends are read-only.
package clip

import (
	"errors"

	"go.klb.dev/cbview/internal/message"
)

// ErrUnavailable is returned by Fetch when the backend could not reach a
// clipboard at all.
var ErrUnavailable = errors.New("clipboard unavailable")

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Fetch returns the current clipboard content, preferring text over
	// images. An empty Content and nil error means nothing readable.
	Fetch() (message.Content, error)

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. Hosts with a native change
	// notification do not need it.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// headlessBackend is a no-op backend for environments without a display
// server. Fetch reports ErrUnavailable and Watch never fires.
type headlessBackend struct {
	watchCh chan struct{}
}

func newHeadless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string                    { return "headless (no-op)" }
func (b *headlessBackend) Fetch() (message.Content, error) { return message.Content{}, ErrUnavailable }
func (b *headlessBackend) Watch() <-chan struct{}          { return b.watchCh }
func (b *headlessBackend) Close()                          {}

// notify performs a non-blocking send on a watch channel.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
