package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ============================================================================
// State feed: subscriber set + per-subscriber pumps
// ============================================================================
//
// The feed goroutine owns the subscriber set and is the only closer of a
// subscriber's outbound queue. A subscriber that cannot keep up is dropped.
// A subscriber joining with addAwaiting gets no broadcast before its first
// direct frame; broadcasts meanwhile are held and follow that frame.
//
// ============================================================================

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	defaultSendBuf = 32
)

// FeedConfig sizes the feed queues. Zero values pick defaults.
type FeedConfig struct {
	SendBuf  int // per subscriber
	FrameBuf int // inbound frames awaiting fan-out
}

// frameConn is the part of *websocket.Conn the pumps use.
type frameConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

type addressed struct {
	id  string
	msg []byte
}

type joining struct {
	sub   *subscriber
	await bool
}

type leaving struct {
	sub    *subscriber
	reason string
}

type feed struct {
	logger  *slog.Logger
	sendBuf int

	frames  chan []byte
	direct  chan addressed
	join    chan joining
	leave   chan leaving
	stopped chan struct{}

	count atomic.Int32
}

func newFeed(logger *slog.Logger, cfg FeedConfig) *feed {
	if cfg.SendBuf <= 0 {
		cfg.SendBuf = defaultSendBuf
	}
	if cfg.FrameBuf <= 0 {
		cfg.FrameBuf = broadcastQueueSize
	}
	return &feed{
		logger:  logger,
		sendBuf: cfg.SendBuf,
		frames:  make(chan []byte, cfg.FrameBuf),
		direct:  make(chan addressed, 16),
		join:    make(chan joining, 16),
		leave:   make(chan leaving, 16),
		stopped: make(chan struct{}),
	}
}

// Run fans frames out until ctx is canceled, then disconnects everyone.
func (f *feed) Run(ctx context.Context) {
	defer close(f.stopped)

	subs := make(map[string]*subscriber)
	drop := func(s *subscriber, reason string) {
		if subs[s.id] != s {
			return
		}
		delete(subs, s.id)
		f.count.Store(int32(len(subs)))
		close(s.out)
		f.logger.Info("feed subscriber dropped", "client_id", s.id, "remote_addr", s.remoteAddr, "reason", reason, "subscribers", len(subs))
	}

	f.logger.Info("state feed running")
	for {
		select {
		case <-ctx.Done():
			for _, s := range subs {
				drop(s, "shutdown")
			}
			f.logger.Info("state feed stopped")
			return

		case j := <-f.join:
			s := j.sub
			s.awaiting = j.await
			subs[s.id] = s
			f.count.Store(int32(len(subs)))
			f.logger.Info("feed subscriber joined", "client_id", s.id, "remote_addr", s.remoteAddr, "subscribers", len(subs))

		case l := <-f.leave:
			drop(l.sub, l.reason)

		case a := <-f.direct:
			if s, ok := subs[a.id]; ok && !s.deliver(a.msg) {
				drop(s, "slow_client")
			}

		case msg := <-f.frames:
			for _, s := range subs {
				queued := s.offer
				if s.awaiting {
					queued = s.hold
				}
				if !queued(msg) {
					drop(s, "slow_client")
				}
			}
		}
	}
}

// Subscribers reports how many subscribers are connected.
func (f *feed) Subscribers() int { return int(f.count.Load()) }

// Publish queues msg for every subscriber without blocking. It reports false
// when the frame was dropped.
func (f *feed) Publish(msg []byte) bool {
	select {
	case f.frames <- msg:
		return true
	default:
		f.logger.Warn("state feed queue full, dropping frame", "bytes", len(msg))
		return false
	}
}

// sendTo queues msg for one subscriber only, ahead of any broadcasts held for
// it. A nil msg just releases the held broadcasts. It gives up once the feed
// has stopped.
func (f *feed) sendTo(id string, msg []byte) {
	select {
	case f.direct <- addressed{id: id, msg: msg}:
	case <-f.stopped:
	}
}

func (f *feed) add(s *subscriber) { f.enter(joining{sub: s}) }

// addAwaiting joins s but holds broadcasts for it until the next sendTo
// addressed to it.
func (f *feed) addAwaiting(s *subscriber) { f.enter(joining{sub: s, await: true}) }

func (f *feed) enter(j joining) {
	select {
	case f.join <- j:
	case <-f.stopped:
	}
}

func (f *feed) remove(s *subscriber, reason string) {
	select {
	case f.leave <- leaving{sub: s, reason: reason}:
	case <-f.stopped:
	}
}

// ============================================================================
// Subscriber
// ============================================================================

type subscriber struct {
	id         string
	conn       frameConn
	out        chan []byte
	remoteAddr string
	logger     *slog.Logger

	// Owned by the feed goroutine.
	awaiting bool
	held     [][]byte
}

func newSubscriber(conn frameConn, remoteAddr string, sendBuf int, logger *slog.Logger) *subscriber {
	id := uuid.NewString()
	return &subscriber{
		id:         id,
		conn:       conn,
		out:        make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger.With("client_id", id),
	}
}

// offer queues msg unless the subscriber is backed up. Only the feed
// goroutine calls it.
func (s *subscriber) offer(msg []byte) bool {
	select {
	case s.out <- msg:
		return true
	default:
		return false
	}
}

// hold keeps msg back while the subscriber awaits its first direct frame.
// Holding more than the queue could take counts as falling behind.
func (s *subscriber) hold(msg []byte) bool {
	if len(s.held) >= cap(s.out) {
		return false
	}
	s.held = append(s.held, msg)
	return true
}

// deliver offers a direct frame, then releases anything held behind it.
func (s *subscriber) deliver(msg []byte) bool {
	if msg != nil && !s.offer(msg) {
		return false
	}
	s.awaiting = false
	held := s.held
	s.held = nil
	for _, m := range held {
		if !s.offer(m) {
			return false
		}
	}
	return true
}

// writePump drains out onto the connection and keeps it alive with pings.
// A closed out means the feed dropped us. The connection is closed on return,
// which also ends readPump.
func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer s.conn.Close()

	for {
		select {
		case msg, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logExit("write", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logExit("ping", err)
				return
			}
		}
	}
}

// readPump discards client messages, handling pongs, until the connection
// fails. It then asks the feed to drop the subscriber.
func (s *subscriber) readPump(f *feed) {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.logExit("read", err)
			f.remove(s, "disconnected")
			return
		}
	}
}

func (s *subscriber) logExit(op string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		s.logger.Debug("ws closed by peer", "op", op, "code", ce.Code, "reason", ce.Text)
		return
	}
	s.logger.Info("ws connection ended", "op", op, "remote_addr", s.remoteAddr, "error", err)
}
