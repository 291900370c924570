// Package router classifies notifications delivered to a clipboard viewer
// and applies the viewer-chain protocol: capture and relay on content
// changes, splice or relay on chain changes, and leave everything else to
// the host's default processing.
package router

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/message"
)

// Notification codes, matching the Win32 viewer-chain messages.
const (
	MsgDrawClipboard uint32 = 0x0308 // WM_DRAWCLIPBOARD
	MsgChangeCBChain uint32 = 0x030D // WM_CHANGECBCHAIN
)

// Kind classifies a notification.
type Kind int

const (
	KindOther Kind = iota
	KindContentChanged
	KindTopologyChanged
)

func (k Kind) String() string {
	switch k {
	case KindContentChanged:
		return "content-changed"
	case KindTopologyChanged:
		return "topology-changed"
	default:
		return "other"
	}
}

// Notification is one raw message as delivered by the host.
type Notification struct {
	Msg    uint32
	WParam uintptr
	LParam uintptr
}

// ContentChanged builds a content-changed notification.
func ContentChanged() Notification {
	return Notification{Msg: MsgDrawClipboard}
}

// TopologyChanged builds the notification announcing that removed is leaving
// the chain and replacement follows it.
func TopologyChanged(removed, replacement chain.Handle) Notification {
	return Notification{
		Msg:    MsgChangeCBChain,
		WParam: uintptr(removed),
		LParam: uintptr(replacement),
	}
}

// Kind classifies n.
func (n Notification) Kind() Kind {
	switch n.Msg {
	case MsgDrawClipboard:
		return KindContentChanged
	case MsgChangeCBChain:
		return KindTopologyChanged
	default:
		return KindOther
	}
}

// Removed is the handle leaving the chain. Meaningful for topology changes only.
func (n Notification) Removed() chain.Handle { return chain.Handle(n.WParam) }

// Replacement is the handle that follows the removed one. Meaningful for
// topology changes only.
func (n Notification) Replacement() chain.Handle { return chain.Handle(n.LParam) }

// Fetcher reads the current clipboard content. An empty Content with a nil
// error means there was nothing to read.
type Fetcher interface {
	Fetch() (message.Content, error)
}

// Display receives captured text. Fire-and-forget.
type Display interface {
	Append(text string)
}

// Relayer re-delivers a notification to a specific chain member.
type Relayer interface {
	Relay(to chain.Handle, n Notification) error
}

// FetchError wraps a failed content fetch. It is logged, never returned.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch clipboard: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// RelayError wraps a failed forward to the next link. It is logged, never
// returned: the next topology change repairs a stale link.
type RelayError struct {
	To  chain.Handle
	Msg uint32
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay 0x%04X to %s: %v", e.Msg, e.To, e.Err)
}
func (e *RelayError) Unwrap() error { return e.Err }

// Stats is a snapshot of the router's counters.
type Stats struct {
	Received      uint64
	Captured      uint64
	FetchFailures uint64
	Relayed       uint64
	RelayFailures uint64
	Absorbed      uint64
	Ignored       uint64
}

// Router handles notifications for one registered observer.
type Router struct {
	reg     *chain.Registry
	relay   Relayer
	fetch   Fetcher
	display Display

	received      atomic.Uint64
	captured      atomic.Uint64
	fetchFailures atomic.Uint64
	relayed       atomic.Uint64
	relayFailures atomic.Uint64
	absorbed      atomic.Uint64
	ignored       atomic.Uint64
}

// New returns a router over reg.
func New(reg *chain.Registry, relay Relayer, fetch Fetcher, display Display) *Router {
	return &Router{
		reg:     reg,
		relay:   relay,
		fetch:   fetch,
		display: display,
	}
}

// Handle applies the chain protocol to n and reports whether it consumed the
// notification. false means the caller should apply default processing; that
// is the answer for every notification while the registry is not registered.
func (r *Router) Handle(n Notification) bool {
	if !r.reg.Registered() {
		return false
	}
	r.received.Add(1)

	switch n.Kind() {
	case KindContentChanged:
		slog.Debug("clipboard changed", "next", r.reg.Next())
		r.capture()
		r.forward(n)
		return true

	case KindTopologyChanged:
		removed, replacement := n.Removed(), n.Replacement()
		next := r.reg.Next()
		slog.Debug("viewer chain changed", "removed", removed, "replacement", replacement, "next", next)
		if removed != chain.None && removed == next {
			r.reg.SetNext(replacement)
			r.absorbed.Add(1)
			slog.Info("next viewer left chain", "removed", removed, "next", replacement)
			return true
		}
		r.forward(n)
		return true

	default:
		r.ignored.Add(1)
		return false
	}
}

// Stats returns a snapshot of the counters.
func (r *Router) Stats() Stats {
	return Stats{
		Received:      r.received.Load(),
		Captured:      r.captured.Load(),
		FetchFailures: r.fetchFailures.Load(),
		Relayed:       r.relayed.Load(),
		RelayFailures: r.relayFailures.Load(),
		Absorbed:      r.absorbed.Load(),
		Ignored:       r.ignored.Load(),
	}
}

// capture fetches the clipboard and hands text to the display. Failures
// only cost this capture.
func (r *Router) capture() {
	content, err := r.fetch.Fetch()
	if err != nil {
		r.fetchFailures.Add(1)
		slog.Warn("clipboard fetch failed", "err", &FetchError{Err: err})
		return
	}
	if content.Empty() || !content.IsText() {
		slog.Debug("no text on clipboard", "format", content.Format, "size_bytes", len(content.Data))
		return
	}
	r.captured.Add(1)
	r.display.Append(string(content.Data))
}

// forward relays n unchanged to the next link, if there is one.
func (r *Router) forward(n Notification) {
	next := r.reg.Next()
	if next == chain.None {
		return
	}
	if err := r.relay.Relay(next, n); err != nil {
		r.relayFailures.Add(1)
		slog.Warn("relay to next viewer failed", "err", &RelayError{To: next, Msg: n.Msg, Err: err})
		return
	}
	r.relayed.Add(1)
}
