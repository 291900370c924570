// Package chain tracks this observer's position in the shared clipboard
// viewer chain. The only state it owns is the next link: the handle of the
// observer that notifications must be forwarded to.
package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Handle is an opaque observer identifier in the host's addressing space
// (a window handle on Windows).
type Handle uintptr

// None marks the end of the chain.
const None Handle = 0

// String formats the handle the way Win32 tools print window handles.
func (h Handle) String() string {
	if h == None {
		return "none"
	}
	return fmt.Sprintf("0x%08X", uintptr(h))
}

// Registrar is the host's chain-registration primitive.
type Registrar interface {
	// Register inserts self at the head of the chain and returns the previous
	// head, or None if the chain was empty.
	Register(self Handle) (Handle, error)

	// Unregister removes self from the chain. next is self's current next
	// link so the host can splice the chain.
	Unregister(self, next Handle) error
}

// ErrAlreadyRegistered is returned by Register when the registry is already
// part of the chain.
var ErrAlreadyRegistered = errors.New("chain: already registered")

// RegistrationError reports that the host refused to add an observer to the
// chain. The observer must not route notifications afterwards.
type RegistrationError struct {
	Self Handle
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("chain: register %s: %v", e.Self, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Registry holds the next link for one observer. All chain-protocol reads and
// writes happen on the host's delivery thread; the mutex only serves status
// snapshots taken from other goroutines.
type Registry struct {
	self Handle
	host Registrar

	mu         sync.RWMutex
	registered bool
	next       Handle
}

// NewRegistry returns an unregistered registry for self.
func NewRegistry(self Handle, host Registrar) *Registry {
	return &Registry{self: self, host: host}
}

// Self returns the handle this registry registers.
func (r *Registry) Self() Handle { return r.self }

// Register joins the chain and stores the prior head as the next link.
// The host call is made without holding the lock: hosts may deliver
// notifications synchronously while registering.
func (r *Registry) Register() (Handle, error) {
	if r.Registered() {
		return None, ErrAlreadyRegistered
	}

	prior, err := r.host.Register(r.self)
	if err != nil {
		return None, &RegistrationError{Self: r.self, Err: err}
	}

	r.mu.Lock()
	r.registered = true
	r.next = prior
	r.mu.Unlock()

	slog.Info("joined viewer chain", "self", r.self, "next", prior)
	return prior, nil
}

// Unregister leaves the chain, passing the current next link to the host.
// It is a no-op when not registered. A host failure is logged and returned,
// but the registry is unregistered either way.
func (r *Registry) Unregister() error {
	r.mu.Lock()
	if !r.registered {
		r.mu.Unlock()
		return nil
	}
	next := r.next
	r.registered = false
	r.next = None
	r.mu.Unlock()

	if err := r.host.Unregister(r.self, next); err != nil {
		slog.Warn("leaving viewer chain failed", "self", r.self, "next", next, "err", err)
		return fmt.Errorf("chain: unregister %s: %w", r.self, err)
	}
	slog.Info("left viewer chain", "self", r.self, "next", next)
	return nil
}

// Registered reports whether the registry is currently part of the chain.
func (r *Registry) Registered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registered
}

// Next returns the stored next link.
func (r *Registry) Next() Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.next
}

// SetNext replaces the stored next link. No validation is done here.
func (r *Registry) SetNext(h Handle) {
	r.mu.Lock()
	r.next = h
	r.mu.Unlock()
}
