// Package protocol defines the wire formats shared by carouseld and its
// clients: line-delimited JSON command envelopes over the IPC socket, and the
// JSON frames pushed over the state WebSocket.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
)

// ============================================================================
// IPC commands
// ============================================================================

// Command is a request a client can send over the IPC socket.
type Command interface {
	commandMarker()
}

// Navigate jumps to page Index.
type Navigate struct {
	Index int `json:"index"`
}

// Next advances one page.
type Next struct{}

// Prev retreats one page.
type Prev struct{}

// StateRequest asks for the current carousel snapshot.
type StateRequest struct{}

func (Navigate) commandMarker()     {}
func (Next) commandMarker()         {}
func (Prev) commandMarker()         {}
func (StateRequest) commandMarker() {}

// Envelope wraps a command with a type discriminator.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalCommand decodes one JSON envelope.
func UnmarshalCommand(data []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "navigate":
		var c Navigate
		if len(env.Data) == 0 {
			return nil, fmt.Errorf("unmarshal Navigate: missing data")
		}
		if err := json.Unmarshal(env.Data, &c); err != nil {
			return nil, fmt.Errorf("unmarshal Navigate: %w", err)
		}
		return c, nil
	case "next":
		return Next{}, nil
	case "prev":
		return Prev{}, nil
	case "state_request":
		return StateRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown command type: %q", env.Type)
	}
}

// MarshalCommand encodes c as a JSON envelope.
func MarshalCommand(c Command) ([]byte, error) {
	var env Envelope

	switch c := c.(type) {
	case Navigate:
		env.Type = "navigate"
		data, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("marshal Navigate: %w", err)
		}
		env.Data = data
	case Next:
		env.Type = "next"
	case Prev:
		env.Type = "prev"
	case StateRequest:
		env.Type = "state_request"
	default:
		return nil, fmt.Errorf("unsupported command type: %T", c)
	}

	return json.Marshal(env)
}

// Response is the reply to every IPC command.
type Response struct {
	Status string    `json:"status"`          // "ok" or "error"
	Error  string    `json:"error,omitempty"` // set when Status == "error"
	State  *Snapshot `json:"state,omitempty"`
}

// ============================================================================
// State snapshot and WebSocket frames
// ============================================================================

// Snapshot is the externally visible carousel state. DragOffset is nil while
// settled since JSON has no NaN.
type Snapshot struct {
	PageCount    int                      `json:"page_count"`
	ActiveIndex  int                      `json:"active_index"`
	DesiredIndex int                      `json:"desired_index"`
	DragOffset   *float64                 `json:"drag_offset"`
	Phase        string                   `json:"phase"`
	Transform    carousel.VisualTransform `json:"transform"`
	TransitionMS int64                    `json:"transition_ms"`
	CSS          string                   `json:"css_transition,omitempty"`
	Translate    string                   `json:"css_transform"`
}

// NewSnapshot builds a Snapshot from an engine state.
func NewSnapshot(s carousel.State, pageCount int, transition time.Duration) Snapshot {
	vt := carousel.ComputeTransform(s, pageCount)
	snap := Snapshot{
		PageCount:    pageCount,
		ActiveIndex:  s.ActiveIndex,
		DesiredIndex: s.DesiredIndex,
		Phase:        s.Phase().String(),
		Transform:    vt,
		TransitionMS: transition.Milliseconds(),
		CSS:          vt.Transition.CSS(transition),
		Translate:    vt.ScreenTranslate(),
	}
	if !math.IsNaN(s.DragOffset) {
		off := s.DragOffset
		snap.DragOffset = &off
	}
	return snap
}

// Frame is the envelope of every WebSocket text frame.
type Frame struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// Frame types.
const (
	FrameStateInit       = "state_init"
	FrameCarouselChanged = "carousel_changed"
	FrameSwipe           = "swipe"
	FrameTap             = "tap"
)

// SwipeData is the payload of a "swipe" frame, sent on release of a swipe.
type SwipeData struct {
	Direction string         `json:"direction"`
	Initial   gesture.Vector `json:"initial"`
	Position  gesture.Vector `json:"position"`
	Velocity  float64        `json:"velocity"`
}

// TapData is the payload of a "tap" frame.
type TapData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawFrame is a Frame decoded by a client without knowing the payload type.
type RawFrame struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}
