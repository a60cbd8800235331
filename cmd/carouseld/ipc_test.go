package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/victorgvargas/carousel/internal/protocol"
)

// serveEvents answers IPC commands the way the daemon loop would, using d.
func serveEvents(ctx context.Context, d *daemon, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			d.handle(ev)
		}
	}
}

func TestSubmitCommand_ParseError(t *testing.T) {
	events := make(chan Event, 1)
	resp := submitCommand(context.Background(), []byte(`{"type":"warp"}`), events, time.Second)
	if resp.Status != "error" {
		t.Fatalf("expected error, got %+v", resp)
	}
	if len(events) != 0 {
		t.Fatalf("invalid command reached the daemon")
	}
}

func TestSubmitCommand_QueueFull(t *testing.T) {
	events := make(chan Event) // unbuffered and nobody reading
	resp := submitCommand(context.Background(), []byte(`{"type":"next"}`), events, time.Second)
	if resp.Status != "error" || resp.Error != "event queue full" {
		t.Fatalf("expected queue full error, got %+v", resp)
	}
}

func TestSubmitCommand_ReplyTimeout(t *testing.T) {
	events := make(chan Event, 1) // accepted but never answered
	resp := submitCommand(context.Background(), []byte(`{"type":"next"}`), events, 20*time.Millisecond)
	if resp.Status != "error" {
		t.Fatalf("expected timeout error, got %+v", resp)
	}
}

func TestHandleIPCConnection(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 4)
	go serveEvents(ctx, d, events)

	server, client := net.Pipe()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go handleIPCConnection(ctx, server, events, time.Second, logger)
	defer client.Close()

	r := bufio.NewReader(client)
	roundTrip := func(line string) protocol.Response {
		t.Helper()
		_ = client.SetDeadline(time.Now().Add(time.Second))
		if _, err := io.WriteString(client, line+"\n"); err != nil {
			t.Fatalf("write: %v", err)
		}
		out, err := r.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp protocol.Response
		if err := json.Unmarshal(out, &resp); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		return resp
	}

	resp := roundTrip(`{"type":"navigate","data":{"index":1}}`)
	if resp.Status != "ok" || resp.State == nil || resp.State.DesiredIndex != 1 {
		t.Fatalf("unexpected navigate response %+v", resp)
	}

	resp = roundTrip(`{"type":"navigate","data":{"index":-1}}`)
	if resp.Status != "error" {
		t.Fatalf("expected contract violation, got %+v", resp)
	}

	resp = roundTrip(`not json`)
	if resp.Status != "error" {
		t.Fatalf("expected parse error, got %+v", resp)
	}

	// The connection survives errors.
	resp = roundTrip(`{"type":"state_request"}`)
	if resp.Status != "ok" || resp.State.PageCount != defaultPages {
		t.Fatalf("unexpected state response %+v", resp)
	}
}

func TestRunIPCServer_WithClient(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 4)
	go serveEvents(ctx, d, events)

	sock := filepath.Join(t.TempDir(), "carouseld.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() { done <- runIPCServer(ctx, sock, events, logger) }()

	var (
		resp protocol.Response
		err  error
	)
	waitUntil(t, time.Second, func() bool {
		resp, err = protocol.Send(sock, protocol.Next{}, time.Second)
		return err == nil
	}, "IPC server never answered")
	if resp.State == nil || resp.State.DesiredIndex != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.State.Transform.Rotation != 1 {
		t.Fatalf("rotation = %d, want 1", resp.State.Transform.Rotation)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runIPCServer: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("IPC server did not stop")
	}
}

func TestRunIPCServer_RefusesLiveSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "busy.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	err = runIPCServer(context.Background(), sock, make(chan Event), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !errors.Is(err, errSocketInUse) {
		t.Fatalf("err = %v, want errSocketInUse", err)
	}
}

func TestClaimSocket_RemovesStaleFile(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "stale.sock")
	if err := os.WriteFile(sock, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := claimSocket(sock); err != nil {
		t.Fatalf("claimSocket: %v", err)
	}
	if _, err := os.Stat(sock); !os.IsNotExist(err) {
		t.Fatalf("stale socket still present: %v", err)
	}
}

func TestHandleIPCConnection_LineTooLong(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go handleIPCConnection(context.Background(), server, make(chan Event, 1), time.Second, logger)

	_ = client.SetDeadline(time.Now().Add(2 * time.Second))
	go func() {
		_, _ = client.Write(bytes.Repeat([]byte("x"), maxIPCLine+1))
	}()

	var resp protocol.Response
	if err := json.NewDecoder(client).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "error" || resp.Error != "command line too long" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
