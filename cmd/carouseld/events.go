package main

import (
	"github.com/victorgvargas/carousel/internal/protocol"
)

// ============================================================================
// Daemon events
// ============================================================================
// Everything that can change the carousel arrives on one channel and is
// handled on the daemon goroutine: raw input, timer fires, IPC commands and
// snapshot requests from the state WebSocket.
// ============================================================================

// Event is a marker interface for everything the daemon loop consumes.
type Event interface {
	eventMarker()
}

// InputEvent is one raw evdev event read from device Device.
type InputEvent deviceEvent

// timerFired carries a scheduler callback back onto the daemon goroutine.
type timerFired struct {
	fire func()
}

// IPCCommand is a decoded client command. The daemon answers on Reply, which
// must be buffered.
type IPCCommand struct {
	Command protocol.Command
	Reply   chan protocol.Response
}

// RequestStateSnapshot asks the daemon for the current state. Reply must be
// buffered; the daemon never blocks on it.
type RequestStateSnapshot struct {
	Reply chan protocol.Snapshot
}

func (InputEvent) eventMarker()           {}
func (timerFired) eventMarker()           {}
func (IPCCommand) eventMarker()           {}
func (RequestStateSnapshot) eventMarker() {}
