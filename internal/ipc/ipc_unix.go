//go:build !windows

package ipc

import (
	"errors"
	"net"
	"os"
	"time"
)

func socketPath() string { return unixSocketPath() }

// listenIPC removes a stale socket left by a crashed run, but refuses to
// take over a socket another watcher is still serving.
func listenIPC(path string) (net.Listener, error) {
	if c, err := net.DialTimeout("unix", path, time.Second); err == nil {
		_ = c.Close()
		return nil, errors.New("another cbview watcher is listening on " + path)
	}
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

func dialIPC(path string) (net.Conn, error) {
	return net.DialTimeout("unix", path, 2*time.Second)
}
