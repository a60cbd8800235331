package main

import (
	"time"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/protocol"
)

// StateBroadcast is a state change published by the daemon for WebSocket
// clients. Only the daemon goroutine produces them.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastCarouselChanged is emitted after every state change.
type BroadcastCarouselChanged struct {
	Snapshot protocol.Snapshot
	At       time.Time
}

// BroadcastSwipe is emitted when a swipe is released.
type BroadcastSwipe struct {
	Swipe protocol.SwipeData
	At    time.Time
}

// BroadcastTap is emitted for a tap on the surface.
type BroadcastTap struct {
	Tap protocol.TapData
	At  time.Time
}

func (BroadcastCarouselChanged) broadcastMarker() {}
func (BroadcastSwipe) broadcastMarker()           {}
func (BroadcastTap) broadcastMarker()             {}

// frameFor converts a broadcast into its wire frame.
func frameFor(b StateBroadcast) (protocol.Frame, bool) {
	var (
		typ  string
		data any
		at   time.Time
	)
	switch b := b.(type) {
	case BroadcastCarouselChanged:
		typ, data, at = protocol.FrameCarouselChanged, b.Snapshot, b.At
	case BroadcastSwipe:
		typ, data, at = protocol.FrameSwipe, b.Swipe, b.At
	case BroadcastTap:
		typ, data, at = protocol.FrameTap, b.Tap, b.At
	default:
		return protocol.Frame{}, false
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return protocol.Frame{Type: typ, Ts: &at, Data: data}, true
}

// coalescable reports whether b may be replaced by a newer broadcast of the
// same kind before it is sent. Only in-drag updates qualify.
func coalescable(b StateBroadcast) bool {
	cc, ok := b.(BroadcastCarouselChanged)
	return ok && cc.Snapshot.Phase == carousel.Dragging.String()
}
