package main

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
	"github.com/victorgvargas/carousel/internal/protocol"
)

var goldenTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func snapshotFor(s carousel.State) protocol.Snapshot {
	return protocol.NewSnapshot(s, 3, carousel.DefaultTransitionDuration)
}

// Frames are a public wire format; the golden files pin it byte for byte.
func TestFrameGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	cases := []struct {
		name string
		b    StateBroadcast
	}{
		{
			name: "carousel_changed_transitioning",
			b: BroadcastCarouselChanged{
				Snapshot: snapshotFor(carousel.State{ActiveIndex: 0, DesiredIndex: 1, DragOffset: math.NaN()}),
				At:       goldenTime,
			},
		},
		{
			name: "carousel_changed_dragging",
			b: BroadcastCarouselChanged{
				Snapshot: snapshotFor(carousel.State{DragOffset: -42.5}),
				At:       goldenTime,
			},
		},
		{
			name: "swipe",
			b: BroadcastSwipe{
				Swipe: protocol.SwipeData{
					Direction: "left",
					Initial:   gesture.Vector{X: 700, Y: 900},
					Position:  gesture.Vector{X: 300, Y: 900},
					Velocity:  8.5,
				},
				At: goldenTime,
			},
		},
		{
			name: "tap",
			b:    BroadcastTap{Tap: protocol.TapData{X: 50, Y: 60}, At: goldenTime},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, ok := frameFor(tc.b)
			if !ok {
				t.Fatalf("no frame for %T", tc.b)
			}
			b, err := json.Marshal(frame)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			g.Assert(t, tc.name, b)
		})
	}

	t.Run("state_init", func(t *testing.T) {
		ts := goldenTime
		b, err := json.Marshal(protocol.Frame{
			Type: protocol.FrameStateInit,
			Ts:   &ts,
			Data: snapshotFor(carousel.Initial()),
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		g.Assert(t, "state_init", b)
	})
}

func TestFrameFor_DefaultsTimestamp(t *testing.T) {
	frame, ok := frameFor(BroadcastTap{})
	if !ok || frame.Ts == nil || frame.Ts.IsZero() {
		t.Fatalf("expected a filled-in timestamp, got %+v", frame)
	}
}

func TestCoalescable(t *testing.T) {
	if !coalescable(BroadcastCarouselChanged{Snapshot: snapshotFor(carousel.State{DragOffset: 5})}) {
		t.Fatalf("drag updates should coalesce")
	}
	if coalescable(BroadcastCarouselChanged{Snapshot: snapshotFor(carousel.Initial())}) {
		t.Fatalf("settled updates must not coalesce")
	}
	if coalescable(BroadcastSwipe{}) {
		t.Fatalf("swipes must not coalesce")
	}
}
