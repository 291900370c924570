// Package ipc provides the local endpoint a running "cbview watch" serves
// and the list/status sub-commands dial: a Unix domain socket, or a named
// pipe on Windows.
package ipc

import (
	"net"
	"os"
	"path/filepath"
)

// SocketPath returns the platform-appropriate path for the IPC endpoint.
//
//   - $CBVIEW_SOCKET when set
//   - Linux:   $XDG_RUNTIME_DIR/cbview.sock
//   - macOS / fallback: $TMPDIR/cbview.sock
//   - Windows: \\.\pipe\cbview
func SocketPath() string {
	if s := os.Getenv("CBVIEW_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a watcher appears to be listening. It does a
// cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := Dial()
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC endpoint.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the IPC endpoint.
func Dial() (net.Conn, error) {
	return dialIPC(SocketPath())
}

func defaultSocketDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

func unixSocketPath() string {
	return filepath.Join(defaultSocketDir(), "cbview.sock")
}
