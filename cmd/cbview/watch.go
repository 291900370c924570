package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cbview/internal/clip"
	"go.klb.dev/cbview/internal/display"
	"go.klb.dev/cbview/internal/ipc"
	"go.klb.dev/cbview/internal/loopback"
	"go.klb.dev/cbview/internal/message"
	"go.klb.dev/cbview/internal/viewer"
	"go.klb.dev/cbview/internal/winhost"
	"go.klb.dev/cbview/internal/wire"
)

const (
	hostAuto     = "auto"
	hostNative   = "native"
	hostLoopback = "loopback"

	ipcReadTimeout = 5 * time.Second
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Join the clipboard viewer chain and capture copied text",
		Long: `Registers this process as a clipboard viewer and captures text every time
the clipboard changes. Change notifications are always passed on to the next
viewer in the chain, and the chain is repaired when viewers leave.

Hosts:
  native    the Win32 clipboard viewer chain (Windows only)
  loopback  an in-process chain driven by polling the clipboard
  auto      native on Windows, loopback elsewhere

Precedence (lowest → highest): defaults → config file → CBVIEW_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("host", hostAuto, "viewer chain host: auto|native|loopback")
	f.Int("max-entries", 500, "captured entries kept in memory (0 = unbounded)")
	f.Bool("echo", false, "print each captured entry to stdout")
	f.String("output", "text", "echo format: text|json")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

// resolveHost maps the --host flag to a concrete host for goos.
func resolveHost(s, goos string) (string, error) {
	switch s {
	case hostAuto, "":
		if goos == "windows" {
			return hostNative, nil
		}
		return hostLoopback, nil
	case hostNative:
		if goos != "windows" {
			return "", winhost.ErrUnsupported
		}
		return hostNative, nil
	case hostLoopback:
		return hostLoopback, nil
	default:
		return "", fmt.Errorf("unknown host %q (want auto, native or loopback)", s)
	}
}

func runWatch(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	hostKind, err := resolveHost(v.GetString("host"), runtime.GOOS)
	if err != nil {
		return err
	}

	var sinks []display.Sink
	if v.GetBool("echo") {
		sinks = append(sinks, display.NewConsole(os.Stdout, v.GetString("output") == "json"))
	}
	list := display.NewList(v.GetInt("max-entries"), sinks...)

	backend := clip.New()
	defer backend.Close()

	slog.Info("cbview watch starting",
		"version", Version,
		"host", hostKind,
		"backend", backend.Name(),
		"max_entries", v.GetInt("max-entries"),
	)

	var (
		host viewer.Host
		run  func(context.Context, *viewer.Viewer) error
	)
	switch hostKind {
	case hostNative:
		wh := winhost.New()
		host = wh
		run = func(ctx context.Context, obs *viewer.Viewer) error { return wh.Run(ctx, obs) }
	default:
		lb := loopback.New()
		host = lb
		run = func(ctx context.Context, obs *viewer.Viewer) error {
			return runLoopback(ctx, lb, backend, obs)
		}
	}
	obs := viewer.New(host, backend, list)

	srv := &ipcServer{list: list, viewer: obs, host: hostKind, backend: backend.Name()}
	ipcLn, err := ipc.Listen()
	if err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		defer ipcLn.Close()
		go srv.serve(ipcLn)
	}

	if err := run(ctx, obs); err != nil {
		return err
	}
	st := obs.Status()
	slog.Info("cbview watch stopped",
		"captured", st.Counters.Captured,
		"relayed", st.Counters.Relayed,
		"relay_failures", st.Counters.RelayFailures,
	)
	return nil
}

// runLoopback joins the in-process chain and publishes a content change for
// every clipboard change the backend reports.
func runLoopback(ctx context.Context, host *loopback.Host, backend clip.Backend, obs *viewer.Viewer) error {
	self := host.Attach(obs)
	defer host.Detach(self)

	if err := obs.Attach(self); err != nil {
		return err
	}
	defer func() { _ = obs.Detach() }()

	slog.Info("loopback clipboard viewer running", "self", self)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-backend.Watch():
			host.Publish()
		}
	}
}

// ipcServer answers list and status requests from other cbview processes.
type ipcServer struct {
	list    *display.List
	viewer  *viewer.Viewer
	host    string
	backend string
}

func (s *ipcServer) serve(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *ipcServer) handleConn(conn net.Conn) {
	defer conn.Close()
	wc := wire.New(conn)
	wc.SetReadDeadline(ipcReadTimeout)

	req, err := wc.ReadMsg()
	if err != nil {
		slog.Debug("ipc: unreadable request", "err", err)
		return
	}
	if err := wc.WriteMsg(s.respond(req)); err != nil {
		slog.Debug("ipc: response failed", "type", req.Type, "err", err)
	}
}

func (s *ipcServer) respond(req *message.Message) *message.Message {
	switch req.Type {
	case message.TypeList:
		return &message.Message{
			Type:    message.TypeEntries,
			Entries: s.list.Entries(req.Limit),
		}

	case message.TypeStatus:
		st := s.viewer.Status()
		st.Host = s.host
		st.Backend = s.backend
		st.Entries = s.list.Len()
		return &message.Message{Type: message.TypeStatusResponse, Status: &st}

	default:
		return message.Errorf("unsupported request %q", req.Type)
	}
}
