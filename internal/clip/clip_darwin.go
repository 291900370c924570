//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger cbview_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"

	"go.klb.dev/cbview/internal/message"
)

const darwinPollInterval = 100 * time.Millisecond

type darwinBackend struct {
	initErr    error
	lastChange C.NSInteger
	watchCh    chan struct{}
	done       chan struct{}
}

// New returns the macOS clipboard backend.
func New() Backend {
	err := clipboard.Init()
	if err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	b := &darwinBackend{
		initErr:    err,
		lastChange: C.cbview_changeCount(),
		watchCh:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) poll() {
	t := time.NewTicker(darwinPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			cc := C.cbview_changeCount()
			if cc != b.lastChange {
				b.lastChange = cc
				notify(b.watchCh)
			}
		}
	}
}

func (b *darwinBackend) Fetch() (message.Content, error) {
	if b.initErr != nil {
		return message.Content{}, fmt.Errorf("%w: %v", ErrUnavailable, b.initErr)
	}
	return readClipboard(), nil
}

func (b *darwinBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *darwinBackend) Close()                 { close(b.done) }
