package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/victorgvargas/carousel/internal/protocol"
)

// ============================================================================
// IPC: Unix domain socket, line-delimited JSON
// ============================================================================
//   -> {"type": "navigate", "data": {"index": 2}}
//   <- {"status": "ok", "state": {...}}
//   <- {"status": "error", "error": "msg"}
// One response line per command line; a connection may send many.
// ============================================================================

const maxIPCLine = 64 << 10

// errSocketInUse is returned when another process still serves the socket.
var errSocketInUse = errors.New("socket in use by a running daemon")

// runIPCServer serves socketPath until ctx is canceled. It returns after every
// open connection has finished.
func runIPCServer(ctx context.Context, socketPath string, events chan<- Event, logger *slog.Logger) error {
	if err := claimSocket(socketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0o666); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	logger.Info("IPC listening", "socket", socketPath)

	var conns sync.WaitGroup
	defer conns.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}
			logger.Error("IPC accept failed", "error", err)
			continue
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			handleIPCConnection(ctx, conn, events, ipcReplyTimeout, logger)
		}()
	}
}

// claimSocket removes a stale socket file left by a crashed daemon, but
// refuses to steal one that still accepts connections.
func claimSocket(path string) error {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if c, err := net.DialTimeout("unix", path, 200*time.Millisecond); err == nil {
		c.Close()
		return fmt.Errorf("%s: %w", path, errSocketInUse)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}

// handleIPCConnection serves one client until it hangs up or ctx ends.
func handleIPCConnection(ctx context.Context, conn net.Conn, events chan<- Event, replyTimeout time.Duration, logger *slog.Logger) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	logger.Debug("IPC connection opened")

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), maxIPCLine)
	enc := json.NewEncoder(conn)

	for sc.Scan() {
		line := sc.Bytes()
		logger.Debug("IPC command", "line", string(line))

		if err := enc.Encode(submitCommand(ctx, line, events, replyTimeout)); err != nil {
			logger.Warn("IPC reply failed", "error", err)
			return
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		logger.Warn("IPC connection dropped", "error", err)
		if errors.Is(err, bufio.ErrTooLong) {
			_ = enc.Encode(protocol.Response{Status: "error", Error: "command line too long"})
		}
		return
	}
	logger.Debug("IPC connection closed")
}

// submitCommand decodes line, queues it for the daemon loop and waits for
// the outcome. Every failure is reported as an error Response.
func submitCommand(ctx context.Context, line []byte, events chan<- Event, replyTimeout time.Duration) protocol.Response {
	cmd, err := protocol.UnmarshalCommand(line)
	if err != nil {
		return protocol.Response{Status: "error", Error: fmt.Sprintf("parse command: %v", err)}
	}

	reply := make(chan protocol.Response, 1)
	select {
	case events <- IPCCommand{Command: cmd, Reply: reply}:
	default:
		return protocol.Response{Status: "error", Error: "event queue full"}
	}

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()

	select {
	case resp := <-reply:
		return resp
	case <-timer.C:
		return protocol.Response{Status: "error", Error: "timed out waiting for daemon"}
	case <-ctx.Done():
		return protocol.Response{Status: "error", Error: "daemon shutting down"}
	}
}
