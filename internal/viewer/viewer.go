// Package viewer ties the chain registry and the notification router together
// into one clipboard viewer. A Viewer is what host adapters talk to: they
// attach it once their observer handle exists, feed it every notification,
// and detach it on shutdown.
package viewer

import (
	"sync"
	"time"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/message"
	"go.klb.dev/cbview/internal/router"
)

// Host is the set of chain primitives a viewer needs from its host.
type Host interface {
	chain.Registrar
	router.Relayer
}

// Viewer is this process's participant in the viewer chain.
type Viewer struct {
	host    Host
	fetch   router.Fetcher
	display router.Display

	mu        sync.RWMutex
	reg       *chain.Registry
	router    *router.Router
	self      chain.Handle
	startedAt time.Time
	last      router.Stats
}

// New returns a detached viewer.
func New(host Host, fetch router.Fetcher, display router.Display) *Viewer {
	return &Viewer{host: host, fetch: fetch, display: display}
}

// Attach registers self with the host. The registry and router exist only
// between a successful Attach and the matching Detach.
func (v *Viewer) Attach(self chain.Handle) error {
	v.mu.RLock()
	attached := v.reg != nil
	v.mu.RUnlock()
	if attached {
		return chain.ErrAlreadyRegistered
	}

	reg := chain.NewRegistry(self, v.host)
	rt := router.New(reg, v.host, v.fetch, v.display)
	if _, err := reg.Register(); err != nil {
		return err
	}

	v.mu.Lock()
	v.reg, v.router = reg, rt
	v.self = self
	v.startedAt = time.Now()
	v.mu.Unlock()
	return nil
}

// Handle routes n. Notifications arriving while detached are left to the
// host's default processing.
func (v *Viewer) Handle(n router.Notification) bool {
	v.mu.RLock()
	rt := v.router
	v.mu.RUnlock()
	if rt == nil {
		return false
	}
	return rt.Handle(n)
}

// Detach leaves the chain. Calling it on a detached viewer does nothing.
func (v *Viewer) Detach() error {
	v.mu.Lock()
	reg, rt := v.reg, v.router
	v.reg, v.router = nil, nil
	if rt != nil {
		v.last = rt.Stats()
	}
	v.mu.Unlock()

	if reg == nil {
		return nil
	}
	return reg.Unregister()
}

// Status returns a snapshot suitable for the IPC status response.
// Counters survive Detach so a final status still reports them.
func (v *Viewer) Status() message.Status {
	v.mu.RLock()
	defer v.mu.RUnlock()

	st := message.Status{
		Self:      v.self.String(),
		Next:      chain.None.String(),
		StartedAt: v.startedAt,
	}
	stats := v.last
	if v.reg != nil {
		st.Registered = v.reg.Registered()
		st.Next = v.reg.Next().String()
		stats = v.router.Stats()
	}
	st.Counters = message.Counters{
		Received:      stats.Received,
		Captured:      stats.Captured,
		FetchFailures: stats.FetchFailures,
		Relayed:       stats.Relayed,
		RelayFailures: stats.RelayFailures,
		Absorbed:      stats.Absorbed,
		Ignored:       stats.Ignored,
	}
	return st
}
