//go:build windows

package clip

import (
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"

	"go.klb.dev/cbview/internal/message"
)

const windowsPollInterval = 100 * time.Millisecond

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procGetClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")
)

type windowsBackend struct {
	initErr error
	lastSeq uintptr
	watchCh chan struct{}
	done    chan struct{}
}

// New returns the Windows clipboard backend. Under the native viewer chain
// only Fetch is used; Watch serves the loopback host.
func New() Backend {
	err := clipboard.Init()
	if err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	b := &windowsBackend{
		initErr: err,
		lastSeq: sequenceNumber(),
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func sequenceNumber() uintptr {
	seq, _, _ := procGetClipboardSequenceNumber.Call()
	return seq
}

func (b *windowsBackend) poll() {
	t := time.NewTicker(windowsPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if seq := sequenceNumber(); seq != b.lastSeq {
				b.lastSeq = seq
				notify(b.watchCh)
			}
		}
	}
}

func (b *windowsBackend) Fetch() (message.Content, error) {
	if b.initErr != nil {
		return message.Content{}, fmt.Errorf("%w: %v", ErrUnavailable, b.initErr)
	}
	return readClipboard(), nil
}

func (b *windowsBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *windowsBackend) Close()                 { close(b.done) }
