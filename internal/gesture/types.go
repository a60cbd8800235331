// Package gesture turns raw pointer and touch sample streams into normalized
// swipe and tap events.
//
// A Recognizer owns the transient state of exactly one gesture at a time and
// the listener registrations on the surface it tracks. It is not safe for
// concurrent use: all methods and all dispatched listeners are expected to run
// on a single goroutine (the daemon loop or the game Update loop).
package gesture

import (
	"fmt"
	"time"
)

// Direction is the dominant-axis direction of a swipe sample.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (must be left, right, up or down)", s)
	}
}

// Vector is an (x, y) pair in pixels, or pixels per millisecond for velocities.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InputSource identifies which device family produced a PointerEvent.
type InputSource int

const (
	SourceTouch InputSource = iota
	SourceMouse
)

func (s InputSource) String() string {
	if s == SourceMouse {
		return "mouse"
	}
	return "touch"
}

// PointerEvent is one timestamped pointer sample as delivered by the platform.
//
// Touches is the number of simultaneous contacts for touch input (start and
// move events carry the contacts still down; end events may carry zero).
// Timestamp is measured from an arbitrary but fixed origin.
type PointerEvent struct {
	Source     InputSource
	X, Y       float64
	Touches    int
	Timestamp  time.Duration
	Cancelable bool

	passive   bool
	prevented bool
}

// PreventDefault suppresses the platform's default handling of the event
// (page scroll for a touch move). It has no effect on events that are not
// cancelable or that were delivered to a passive registration.
func (e *PointerEvent) PreventDefault() {
	if e.Cancelable && !e.passive {
		e.prevented = true
	}
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *PointerEvent) DefaultPrevented() bool {
	return e.prevented
}

// SwipeEvent is an immutable snapshot emitted once a gesture has crossed its
// distance threshold.
//
// Deltas are measured against the previously accepted sample; before the
// threshold is first crossed that is the gesture start. Position and Initial
// are rotation corrected.
type SwipeEvent struct {
	AbsX, AbsY     float64
	DeltaX, DeltaY float64
	Direction      Direction
	First          bool
	Initial        Vector
	Position       Vector
	Velocity       float64
	VelocityVector Vector
	Event          *PointerEvent
}

// TapEvent is emitted on release for a gesture that never qualified as a swipe.
type TapEvent struct {
	Event *PointerEvent
}
