package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/victorgvargas/carousel/internal/protocol"
)

const snapshotWait = time.Second

// stateServer upgrades HTTP requests into feed subscribers. Every new
// subscriber is greeted with a state_init frame fetched from the daemon loop.
type stateServer struct {
	logger *slog.Logger
	feed   *feed
	events chan<- Event
	now    func() time.Time

	upgrader websocket.Upgrader
}

func newStateServer(logger *slog.Logger, events chan<- Event, cfg FeedConfig) *stateServer {
	return &stateServer{
		logger: logger,
		feed:   newFeed(logger, cfg),
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *stateServer) Feed() *feed { return s.feed }

// Register mounts the WebSocket endpoint on mux.
func (s *stateServer) Register(mux *http.ServeMux, path string) {
	mux.HandleFunc(path, s.serveWS)
}

func (s *stateServer) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	sub := newSubscriber(conn, r.RemoteAddr, s.feed.sendBuf, s.logger)

	// Join before the snapshot is taken so no change slips between the two.
	// Broadcasts are held until state_init has been queued.
	s.feed.addAwaiting(sub)
	go sub.writePump()
	go sub.readPump(s.feed)

	s.feed.sendTo(sub.id, s.greeting(r.Context()))
}

// greeting builds the state_init frame, or returns nil when no snapshot
// could be had.
func (s *stateServer) greeting(ctx context.Context) []byte {
	snap, ok := s.requestSnapshot(ctx)
	if !ok {
		return nil
	}
	now := s.now()
	msg, err := json.Marshal(protocol.Frame{Type: protocol.FrameStateInit, Ts: &now, Data: snap})
	if err != nil {
		s.logger.Warn("state_init marshal failed", "error", err)
		return nil
	}
	return msg
}

// requestSnapshot asks the daemon loop for the current state.
func (s *stateServer) requestSnapshot(ctx context.Context) (protocol.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, snapshotWait)
	defer cancel()

	reply := make(chan protocol.Snapshot, 1)
	select {
	case s.events <- RequestStateSnapshot{Reply: reply}:
	case <-ctx.Done():
		s.logger.Warn("state snapshot not requested", "error", ctx.Err())
		return protocol.Snapshot{}, false
	}

	select {
	case snap := <-reply:
		return snap, true
	case <-ctx.Done():
		s.logger.Warn("state snapshot not answered", "error", ctx.Err())
		return protocol.Snapshot{}, false
	}
}
