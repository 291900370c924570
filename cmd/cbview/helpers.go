package main

import (
	"errors"
	"fmt"
	"net"
	"time"

	"go.klb.dev/cbview/internal/ipc"
	"go.klb.dev/cbview/internal/message"
	"go.klb.dev/cbview/internal/wire"
)

// request sends req to the running watcher over IPC and returns its answer.
func request(req *message.Message) (*message.Message, error) {
	conn, err := ipc.Dial()
	if err != nil {
		return nil, fmt.Errorf("no running watcher at %s (start one with \"cbview watch\"): %w", ipc.SocketPath(), err)
	}
	defer conn.Close()
	return roundTrip(conn, req)
}

func roundTrip(conn net.Conn, req *message.Message) (*message.Message, error) {
	wc := wire.New(conn)
	if err := wc.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Type, err)
	}
	wc.SetReadDeadline(ipcReadTimeout)
	resp, err := wc.ReadMsg()
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Type, err)
	}
	if resp.Type == message.TypeError {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

func fmtAge(t, now time.Time) string {
	age := now.Sub(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}
