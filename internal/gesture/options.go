package gesture

// DefaultThresholdPx is the swipe distance threshold used when none is
// configured, and the fallback for directions missing from a per-direction map.
const DefaultThresholdPx = 10.0

// Threshold is the minimum absolute displacement on the dominant axis before a
// motion counts as a swipe. It is either uniform or keyed by direction.
type Threshold struct {
	px     float64
	perDir map[Direction]float64
}

// Uniform returns a threshold that applies px to every direction.
func Uniform(px float64) Threshold {
	return Threshold{px: px}
}

// PerDirection returns a threshold keyed by direction. Directions with no entry
// (or a zero entry) use DefaultThresholdPx. The map is copied.
func PerDirection(m map[Direction]float64) Threshold {
	cp := make(map[Direction]float64, len(m))
	for d, v := range m {
		cp[d] = v
	}
	return Threshold{perDir: cp}
}

// For returns the threshold that applies to samples moving in direction d.
func (t Threshold) For(d Direction) float64 {
	if t.perDir == nil {
		return t.px
	}
	if v := t.perDir[d]; v != 0 {
		return v
	}
	return DefaultThresholdPx
}

// IsDirectional reports whether the threshold was built with PerDirection.
func (t Threshold) IsDirectional() bool {
	return t.perDir != nil
}

// Options are the recognizer settings that may change while a gesture is in
// flight without disturbing it.
type Options struct {
	Threshold Threshold

	// PreventDefaultTouchmove suppresses the default action of cancelable move
	// events once a swipe is recognized. When false, touch listeners are
	// registered passive.
	PreventDefaultTouchmove bool

	// RotationDeg compensates for a rotated coordinate frame before any delta
	// or direction math.
	RotationDeg float64

	TrackMouse bool
	TrackTouch bool
}

// DefaultOptions returns the documented defaults: 10 px uniform threshold,
// no default suppression, no rotation, touch tracked, mouse not tracked.
func DefaultOptions() Options {
	return Options{
		Threshold:  Uniform(DefaultThresholdPx),
		TrackTouch: true,
	}
}

// SwipeHandler receives swipe events.
type SwipeHandler func(SwipeEvent)

// Handlers are the caller-supplied callbacks. Any of them may be nil.
type Handlers struct {
	OnSwipeStart SwipeHandler
	OnSwiping    SwipeHandler
	OnSwiped     SwipeHandler

	OnSwipedLeft  SwipeHandler
	OnSwipedRight SwipeHandler
	OnSwipedUp    SwipeHandler
	OnSwipedDown  SwipeHandler

	OnTap func(TapEvent)
}

// forDirection is the direction to handler routing table used on release.
func (h Handlers) forDirection(d Direction) SwipeHandler {
	switch d {
	case Left:
		return h.OnSwipedLeft
	case Right:
		return h.OnSwipedRight
	case Up:
		return h.OnSwipedUp
	case Down:
		return h.OnSwipedDown
	}
	return nil
}

// observesSwipes reports whether any swipe-relevant callback is registered.
// Default suppression keys off this, not off the direction of the current
// gesture.
func (h Handlers) observesSwipes() bool {
	return h.OnSwiping != nil || h.OnSwiped != nil ||
		h.OnSwipedLeft != nil || h.OnSwipedRight != nil ||
		h.OnSwipedUp != nil || h.OnSwipedDown != nil
}
