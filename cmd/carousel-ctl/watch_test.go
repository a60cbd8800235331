package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
	"github.com/victorgvargas/carousel/internal/protocol"
)

// stateFeed serves frames to each client then waits for it to hang up.
func stateFeed(t *testing.T, frames ...protocol.Frame) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			b, _ := json.Marshal(f)
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testFrames() []protocol.Frame {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	init := protocol.NewSnapshot(carousel.Initial(), 3, 400*time.Millisecond)
	return []protocol.Frame{
		{Type: protocol.FrameStateInit, Ts: &ts, Data: init},
		{Type: protocol.FrameSwipe, Ts: &ts, Data: protocol.SwipeData{
			Direction: "left",
			Initial:   gesture.Vector{X: 700, Y: 500},
			Position:  gesture.Vector{X: 300, Y: 500},
			Velocity:  1.5,
		}},
		{Type: protocol.FrameTap, Ts: &ts, Data: protocol.TapData{X: 10, Y: 20}},
	}
}

func TestWatch_Text(t *testing.T) {
	url := stateFeed(t, testFrames()...)

	out, err := runCtl(t, "--ws", url, "watch", "--count", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "state_init")
	assert.Contains(t, lines[0], "active=0 desired=0 phase=idle")
	assert.Contains(t, lines[1], "swipe")
	assert.Contains(t, lines[1], "left from (700,500) to (300,500)")
	assert.Contains(t, lines[2], "tap")
	assert.Contains(t, lines[2], "at (10,20)")
	assert.True(t, strings.HasPrefix(lines[0], "03:04:05.000"))
}

func TestWatch_JSON(t *testing.T) {
	url := stateFeed(t, testFrames()[:1]...)

	out, err := runCtl(t, "--ws", url, "--format", "json", "watch", "--count", "1")
	require.NoError(t, err)

	var f protocol.RawFrame
	require.NoError(t, json.Unmarshal([]byte(out), &f))
	assert.Equal(t, protocol.FrameStateInit, f.Type)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	url := stateFeed(t)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--ws", url, "watch"})
	cmd.SetOut(&strings.Builder{})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatch_ConnectFailure(t *testing.T) {
	_, err := runCtl(t, "--ws", "ws://127.0.0.1:1/ws/state", "watch", "--count", "1")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, exitCode(err))
}
