package carousel

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DefaultTransitionDuration is the duration of both the smooth and the elastic
// animation, and the delay of the settle timer.
const DefaultTransitionDuration = 400 * time.Millisecond

// Transition is the animation style the renderer should apply when moving to a
// VisualTransform.
type Transition int

const (
	// TransitionNone applies the transform immediately (finger tracking).
	TransitionNone Transition = iota
	// TransitionSmooth is a monotonic eased animation for page changes.
	TransitionSmooth
	// TransitionElastic overshoots and bounces back; used when a drag settles.
	TransitionElastic
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionSmooth:
		return "smooth"
	case TransitionElastic:
		return "elastic"
	default:
		return fmt.Sprintf("Transition(%d)", int(t))
	}
}

// MarshalText encodes the transition by name.
func (t Transition) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Transition) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none":
		*t = TransitionNone
	case "smooth":
		*t = TransitionSmooth
	case "elastic":
		*t = TransitionElastic
	default:
		return fmt.Errorf("unknown transition %q", b)
	}
	return nil
}

// Curve returns the cubic-bezier control points (x1, y1, x2, y2) of the
// animation. TransitionNone reports a linear curve.
func (t Transition) Curve() [4]float64 {
	switch t {
	case TransitionSmooth:
		return [4]float64{0.25, 0.1, 0.25, 1}
	case TransitionElastic:
		return [4]float64{0.68, -0.55, 0.265, 1.55}
	default:
		return [4]float64{0, 0, 1, 1}
	}
}

// CSS renders a CSS transition property value for the transform, or "" for
// TransitionNone.
func (t Transition) CSS(d time.Duration) string {
	ms := d.Milliseconds()
	switch t {
	case TransitionSmooth:
		return fmt.Sprintf("transform %dms ease", ms)
	case TransitionElastic:
		return fmt.Sprintf("transform %dms cubic-bezier(0.68, -0.55, 0.265, 1.55)", ms)
	default:
		return ""
	}
}

// Unit is the unit of VisualTransform.Offset.
type Unit int

const (
	Pixels Unit = iota
	// Percent is relative to the full strip width.
	Percent
)

func (u Unit) String() string {
	if u == Percent {
		return "%"
	}
	return "px"
}

// MarshalText encodes the unit as its CSS suffix.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Unit) UnmarshalText(b []byte) error {
	switch string(b) {
	case "px":
		*u = Pixels
	case "%":
		*u = Percent
	default:
		return fmt.Errorf("unknown unit %q", b)
	}
	return nil
}

// VisualTransform is what the rendering collaborator applies to the slide
// strip. It is derived from State and never stored.
//
// The strip holds SlideCount = pageCount+2 slides: slot 0 shows the last page
// and slot pageCount+1 shows the first, so wrapping never jumps across the
// strip. StripLeftPercent positions the active page's slot in the viewport.
//
// Offset follows the package sign convention: positive moves toward the next
// page, which on screen means shifting the strip left.
type VisualTransform struct {
	Transition Transition `json:"transition"`
	Offset     float64    `json:"offset"`
	Unit       Unit       `json:"unit"`

	// Rotation is the direction of an in-flight transition: +1 toward the
	// next page, -1 toward the previous one, 0 when not transitioning.
	Rotation int `json:"rotation"`

	SlideCount        int     `json:"slide_count"`
	StripWidthPercent float64 `json:"strip_width_percent"`
	StripLeftPercent  float64 `json:"strip_left_percent"`
}

// ComputeTransform derives the visual transform for s on a carousel of
// pageCount pages. It is pure.
func ComputeTransform(s State, pageCount int) VisualTransform {
	vt := VisualTransform{
		SlideCount:        pageCount + 2,
		StripWidthPercent: float64(100 * (pageCount + 2)),
		StripLeftPercent:  -float64(s.ActiveIndex+1) * 100,
	}

	switch {
	case s.Transitioning():
		vt.Rotation = rotationDir(s, pageCount)
		vt.Transition = TransitionSmooth
		vt.Unit = Percent
		vt.Offset = float64(vt.Rotation) * 100 / float64(pageCount+2)
	case !s.Settled() && s.DragOffset != 0:
		vt.Transition = TransitionNone
		vt.Unit = Pixels
		vt.Offset = s.DragOffset
	default:
		// Settled, or a drag released exactly at rest: snap back.
		vt.Transition = TransitionElastic
		vt.Unit = Pixels
	}
	return vt
}

// rotationDir picks the shorter way around the cycle. A manual drag in progress
// overrides it so a fling continues the way the user pulled.
func rotationDir(s State, pageCount int) int {
	if !s.Settled() && s.DragOffset != 0 {
		if s.DragOffset > 0 {
			return 1
		}
		return -1
	}

	dist := s.DesiredIndex - s.ActiveIndex
	dir := sign(dist)
	if math.Abs(float64(dist)) > float64(pageCount)/2 {
		dir = -dir
	}
	return dir
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// SlidePage returns the page shown in strip slot (0 <= slot < pageCount+2).
func SlidePage(slot, pageCount int) int {
	return wrap(slot-1, pageCount)
}

// ScreenTranslate renders the on-screen CSS translation for vt, converting the
// package sign convention into screen coordinates.
func (vt VisualTransform) ScreenTranslate() string {
	x := -vt.Offset
	if x == 0 {
		x = 0 // no "-0"
	}
	return "translateX(" + strconv.FormatFloat(x, 'f', -1, 64) + vt.Unit.String() + ")"
}
