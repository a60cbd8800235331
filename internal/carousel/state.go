// Package carousel implements the paged carousel engine: a pure reducer over
// navigation intents, a pure visual transform derived from the resulting
// state, and the Controller binding layer that wires a gesture recognizer and
// timers to them.
//
// Sign convention: a positive offset or rotation moves the strip toward the
// next page, a negative one toward the previous page.
package carousel

import (
	"fmt"
	"math"
)

// State is the authoritative carousel position record. It is a value type and
// is never mutated in place by this package.
//
// DragOffset is NaN while settled. Any other value is the offset of a drag in
// progress, in pixels.
type State struct {
	ActiveIndex  int
	DesiredIndex int
	DragOffset   float64
}

// Initial returns the mount-time state: page 0, settled.
func Initial() State {
	return State{DragOffset: math.NaN()}
}

// Settled reports whether no manual drag offset is present.
func (s State) Settled() bool {
	return math.IsNaN(s.DragOffset)
}

// Transitioning reports whether an automatic transition is in flight.
func (s State) Transitioning() bool {
	return s.ActiveIndex != s.DesiredIndex
}

// Phase is the state-machine view of a State.
type Phase int

const (
	Idle Phase = iota
	Dragging
	Transitioning
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Transitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Phase classifies s. A transition in flight wins over a stale drag offset.
func (s State) Phase() Phase {
	switch {
	case s.Transitioning():
		return Transitioning
	case s.Settled():
		return Idle
	default:
		return Dragging
	}
}

func (s State) String() string {
	return fmt.Sprintf("State(active=%d desired=%d offset=%v phase=%s)",
		s.ActiveIndex, s.DesiredIndex, s.DragOffset, s.Phase())
}
