// Package winhost runs a clipboard viewer on the native Win32 viewer chain.
// A hidden window owns the observer handle; its window procedure turns each
// message into a router.Notification and falls back to DefWindowProc for
// anything the viewer does not consume.
package winhost

import (
	"errors"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/router"
)

// ErrUnsupported is returned on platforms without a native viewer chain.
var ErrUnsupported = errors.New("winhost: native clipboard viewer chain requires Windows")

// Observer is what the host drives: attached once the window exists, fed
// every window message, detached when the window closes.
type Observer interface {
	Attach(self chain.Handle) error
	Handle(n router.Notification) bool
	Detach() error
}
