package carousel

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTransform_ShortestPath(t *testing.T) {
	tests := []struct {
		name            string
		pages           int
		active, desired int
		want            int
	}{
		{"0 to 5 of 6 goes back", 6, 0, 5, -1},
		{"5 to 0 of 6 goes forward", 6, 5, 0, 1},
		{"0 to 1 of 3", 3, 0, 1, 1},
		{"0 to 2 of 3 wraps", 3, 0, 2, -1},
		{"half way keeps sign", 4, 0, 2, 1},
		{"2 to 0 of 4 half way", 4, 2, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{ActiveIndex: tt.active, DesiredIndex: tt.desired, DragOffset: math.NaN()}
			vt := ComputeTransform(s, tt.pages)
			assert.Equal(t, tt.want, vt.Rotation)
			assert.Equal(t, TransitionSmooth, vt.Transition)
			assert.Equal(t, Percent, vt.Unit)
			assert.InDelta(t, float64(tt.want)*100/float64(tt.pages+2), vt.Offset, 1e-12)
		})
	}
}

func TestComputeTransform_DragSignOverridesRotation(t *testing.T) {
	s := State{ActiveIndex: 0, DesiredIndex: 5, DragOffset: 120}
	vt := ComputeTransform(s, 6)
	assert.Equal(t, 1, vt.Rotation)
	assert.InDelta(t, 12.5, vt.Offset, 1e-12)

	s.DragOffset = -3
	assert.Equal(t, -1, ComputeTransform(s, 6).Rotation)
}

func TestComputeTransform_DragTracksOneToOne(t *testing.T) {
	s := Reduce(Initial(), Drag{Offset: -42})
	vt := ComputeTransform(s, 3)
	assert.Equal(t, TransitionNone, vt.Transition)
	assert.Equal(t, Pixels, vt.Unit)
	assert.Equal(t, -42.0, vt.Offset)
	assert.Equal(t, 0, vt.Rotation)

	s = Reduce(s, Settle{})
	vt = ComputeTransform(s, 3)
	assert.Equal(t, TransitionElastic, vt.Transition)
	assert.Equal(t, 0.0, vt.Offset)
}

func TestComputeTransform_ZeroDragSnapsBack(t *testing.T) {
	vt := ComputeTransform(State{DragOffset: 0}, 3)
	assert.Equal(t, TransitionElastic, vt.Transition)
	assert.Equal(t, 0.0, vt.Offset)
}

func TestComputeTransform_StripLayout(t *testing.T) {
	vt := ComputeTransform(State{ActiveIndex: 2, DesiredIndex: 2, DragOffset: math.NaN()}, 4)
	assert.Equal(t, 6, vt.SlideCount)
	assert.Equal(t, 600.0, vt.StripWidthPercent)
	assert.Equal(t, -300.0, vt.StripLeftPercent)

	pages := make([]int, vt.SlideCount)
	for slot := range pages {
		pages[slot] = SlidePage(slot, 4)
	}
	assert.Equal(t, []int{3, 0, 1, 2, 3, 0}, pages)
}

func TestTransitionCSS(t *testing.T) {
	assert.Equal(t, "transform 400ms ease", TransitionSmooth.CSS(DefaultTransitionDuration))
	assert.Equal(t, "transform 250ms cubic-bezier(0.68, -0.55, 0.265, 1.55)", TransitionElastic.CSS(250*time.Millisecond))
	assert.Empty(t, TransitionNone.CSS(DefaultTransitionDuration))
}

func TestScreenTranslate(t *testing.T) {
	assert.Equal(t, "translateX(42px)", VisualTransform{Offset: -42}.ScreenTranslate())
	assert.Equal(t, "translateX(0px)", VisualTransform{}.ScreenTranslate())
	assert.Equal(t, "translateX(-20%)", VisualTransform{Offset: 20, Unit: Percent}.ScreenTranslate())
}

func TestVisualTransformJSON(t *testing.T) {
	vt := ComputeTransform(State{ActiveIndex: 1, DesiredIndex: 2, DragOffset: math.NaN()}, 4)
	b, err := json.Marshal(vt)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"transition":"smooth"`)
	assert.Contains(t, string(b), `"unit":"%"`)

	var back VisualTransform
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, vt, back)

	assert.Error(t, json.Unmarshal([]byte(`{"transition":"bouncy"}`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"unit":"em"}`), &back))
}
