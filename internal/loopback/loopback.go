// Package loopback is an in-process clipboard viewer chain. It implements the
// host primitives with the same semantics as the Win32 viewer chain: viewers
// register at the head, removals are announced to the head as a chain-change
// notification, and content changes are delivered to the head only. Every
// other viewer depends on its predecessor to relay.
//
// It backs cbview on platforms without a native viewer chain, where a clip
// backend's watch channel drives Publish.
package loopback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/router"
)

// firstHandle is where handle allocation starts; small values look like
// sentinels in logs.
const firstHandle chain.Handle = 0x10000

// ErrNoSuchObserver is returned when a handle does not name an attached
// receiver.
var ErrNoSuchObserver = errors.New("loopback: no such observer")

// Receiver consumes notifications delivered to an attached handle.
type Receiver interface {
	Handle(n router.Notification) bool
}

// Host is the in-process chain. Deliveries run synchronously on the calling
// goroutine, without the lock held, so receivers may relay re-entrantly.
type Host struct {
	mu        sync.Mutex
	receivers map[chain.Handle]Receiver
	head      chain.Handle
	nextID    chain.Handle
}

// New returns an empty chain.
func New() *Host {
	return &Host{
		receivers: make(map[chain.Handle]Receiver),
		nextID:    firstHandle,
	}
}

// Attach allocates a handle for r. The handle is not in the chain until it
// is registered.
func (h *Host) Attach(r Receiver) chain.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID += 2
	h.receivers[id] = r
	return id
}

// Detach invalidates handle. Relays to it fail from now on.
func (h *Host) Detach(handle chain.Handle) {
	h.mu.Lock()
	delete(h.receivers, handle)
	if h.head == handle {
		h.head = chain.None
	}
	h.mu.Unlock()
}

// Register implements chain.Registrar.
func (h *Host) Register(self chain.Handle) (chain.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.receivers[self]; !ok {
		return chain.None, fmt.Errorf("register %s: %w", self, ErrNoSuchObserver)
	}
	prior := h.head
	h.head = self
	slog.Debug("loopback: viewer registered", "self", self, "prior_head", prior)
	return prior, nil
}

// Unregister implements chain.Registrar. Removing the head moves the head to
// next; removing anything else is announced to the head.
func (h *Host) Unregister(self, next chain.Handle) error {
	h.mu.Lock()
	if _, ok := h.receivers[self]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("unregister %s: %w", self, ErrNoSuchObserver)
	}
	head := h.head
	if head == self {
		h.head = next
		h.mu.Unlock()
		slog.Debug("loopback: head viewer removed", "self", self, "head", next)
		return nil
	}
	recv := h.receivers[head]
	h.mu.Unlock()

	if recv == nil {
		return nil
	}
	slog.Debug("loopback: announcing viewer removal", "self", self, "next", next, "head", head)
	recv.Handle(router.TopologyChanged(self, next))
	return nil
}

// Relay implements router.Relayer.
func (h *Host) Relay(to chain.Handle, n router.Notification) error {
	h.mu.Lock()
	recv, ok := h.receivers[to]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("relay to %s: %w", to, ErrNoSuchObserver)
	}
	recv.Handle(n)
	return nil
}

// Publish announces a content change to the head of the chain. It reports
// whether anyone was there to receive it.
func (h *Host) Publish() bool {
	h.mu.Lock()
	recv := h.receivers[h.head]
	h.mu.Unlock()
	if recv == nil {
		return false
	}
	recv.Handle(router.ContentChanged())
	return true
}

// Head returns the first viewer in the chain.
func (h *Host) Head() chain.Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.head
}
