//go:build !windows

package winhost

import (
	"context"

	"go.klb.dev/cbview/internal/chain"
	"go.klb.dev/cbview/internal/router"
)

// Host is unavailable off Windows; every method reports ErrUnsupported.
type Host struct{}

// New returns a host whose Run fails with ErrUnsupported.
func New() *Host { return &Host{} }

func (h *Host) Register(chain.Handle) (chain.Handle, error)   { return chain.None, ErrUnsupported }
func (h *Host) Unregister(chain.Handle, chain.Handle) error   { return ErrUnsupported }
func (h *Host) Relay(chain.Handle, router.Notification) error { return ErrUnsupported }

// Run reports ErrUnsupported.
func (h *Host) Run(context.Context, Observer) error { return ErrUnsupported }
