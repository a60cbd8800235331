package gesture

import (
	"fmt"
	"log/slog"
	"time"
)

// gestureState is the transient per-gesture record. The zero value means no
// gesture is in flight.
type gestureState struct {
	active    bool
	first     bool
	swiping   bool
	initial   Vector
	last      Vector
	start     time.Duration
	lastSwipe SwipeEvent
}

// Recognizer converts start/move/end pointer samples of one interaction into
// swipe and tap callbacks.
//
// Touch listeners live on the attached Target for as long as it stays
// attached. Mouse gestures additionally listen on the document scope from
// press to release so a drag may leave the element.
type Recognizer struct {
	opts     Options
	handlers Handlers
	document Target
	logger   *slog.Logger

	st gestureState

	target   Target
	touchSub *Subscription
	mouseSub *Subscription
}

// NewRecognizer builds a recognizer. document may be nil, in which case mouse
// drags are only tracked while listeners on the attached target see them.
func NewRecognizer(h Handlers, opts Options, document Target, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recognizer{
		opts:     opts,
		handlers: h,
		document: document,
		logger:   logger,
	}
}

func (r *Recognizer) Options() Options { return r.opts }

// SetOptions replaces the options without touching in-flight gesture state.
// Turning TrackTouch off releases the touch listeners; turning it back on
// re-registers them on the current target.
func (r *Recognizer) SetOptions(opts Options) {
	r.opts = opts
	switch {
	case !opts.TrackTouch && r.touchSub != nil:
		r.touchSub.Release()
		r.touchSub = nil
	case opts.TrackTouch && r.touchSub == nil && r.target != nil:
		r.touchSub = r.listenTouch(r.target)
	}
}

// SetHandlers replaces the callbacks.
func (r *Recognizer) SetHandlers(h Handlers) {
	r.handlers = h
}

// Target returns the currently attached target, or nil.
func (r *Recognizer) Target() Target { return r.target }

// InGesture reports whether a gesture has started and not yet ended.
func (r *Recognizer) InGesture() bool { return r.st.active }

// Swiping reports whether the in-flight gesture has crossed its threshold.
func (r *Recognizer) Swiping() bool { return r.st.swiping }

// Attach tracks t. Any previously attached target is released first and an
// in-flight gesture on it is dropped. Attaching the current target again, or
// a nil target, is a no-op.
func (r *Recognizer) Attach(t Target) {
	if t == nil || t == r.target {
		return
	}
	if r.target != nil {
		r.release()
	}
	r.target = t
	if r.opts.TrackTouch {
		r.touchSub = r.listenTouch(t)
	}
}

// Detach stops tracking the current target. An in-flight gesture is dropped
// silently and its document listeners are released.
func (r *Recognizer) Detach() {
	if r.target == nil {
		if r.st.active {
			r.abort()
		}
		return
	}
	r.release()
	r.target = nil
}

func (r *Recognizer) release() {
	if r.st.active {
		r.logger.Debug("dropping in-flight gesture on detach", "swiping", r.st.swiping)
		r.abort()
	}
	r.touchSub.Release()
	r.touchSub = nil
}

func (r *Recognizer) listenTouch(t Target) *Subscription {
	return t.AddListeners(Listeners{
		Start: r.start,
		Move:  r.move,
		End:   r.end,
	}, !r.opts.PreventDefaultTouchmove)
}

// PressStart is the mouse press hook. Bindings expose it only when mouse
// tracking is enabled.
func (r *Recognizer) PressStart(ev *PointerEvent) {
	r.start(ev)
}

func (r *Recognizer) start(ev *PointerEvent) {
	if !r.validSample(ev, "start") {
		return
	}
	if ev.Source == SourceTouch && ev.Touches > 1 {
		r.logger.Debug("ignoring multi-touch start", "touches", ev.Touches)
		return
	}

	// A start while a gesture is in flight replaces it.
	r.mouseSub.Release()
	r.mouseSub = nil
	if r.opts.TrackMouse && ev.Source == SourceMouse && r.document != nil {
		r.mouseSub = r.document.AddListeners(Listeners{
			Move: r.move,
			End:  r.end,
		}, !r.opts.PreventDefaultTouchmove)
	}

	xy := rotate(Vector{X: ev.X, Y: ev.Y}, r.opts.RotationDeg)
	r.st = gestureState{
		active:  true,
		first:   true,
		initial: xy,
		last:    xy,
		start:   ev.Timestamp,
	}
}

func (r *Recognizer) move(ev *PointerEvent) {
	if !r.st.active {
		return
	}
	if ev != nil && ev.Source == SourceTouch && ev.Touches > 1 {
		return
	}
	if !r.validSample(ev, "move") {
		return
	}

	cur := rotate(Vector{X: ev.X, Y: ev.Y}, r.opts.RotationDeg)
	se := measure(r.st.last, cur, ev.Timestamp-r.st.start)

	limit := r.opts.Threshold.For(se.Direction)
	if se.AbsX < limit && se.AbsY < limit && !r.st.swiping {
		return
	}

	se.First = r.st.first
	se.Initial = r.st.initial
	se.Event = ev

	r.st.first = false
	r.st.swiping = true
	r.st.last = cur
	r.st.lastSwipe = se

	if se.First && r.handlers.OnSwipeStart != nil {
		r.handlers.OnSwipeStart(se)
	}
	if r.handlers.OnSwiping != nil {
		r.handlers.OnSwiping(se)
	}

	if r.opts.PreventDefaultTouchmove && r.handlers.observesSwipes() && ev.Cancelable {
		ev.PreventDefault()
	}
}

func (r *Recognizer) end(ev *PointerEvent) {
	if !r.st.active {
		return
	}
	st := r.st
	r.abort()

	if st.swiping {
		se := st.lastSwipe
		se.Event = ev
		if r.handlers.OnSwiped != nil {
			r.handlers.OnSwiped(se)
		}
		if h := r.handlers.forDirection(se.Direction); h != nil {
			h(se)
		}
		return
	}
	if r.handlers.OnTap != nil {
		r.handlers.OnTap(TapEvent{Event: ev})
	}
}

// abort resets transient state and releases the per-gesture document
// listeners. It is the single exit for every gesture path.
func (r *Recognizer) abort() {
	r.st = gestureState{}
	r.mouseSub.Release()
	r.mouseSub = nil
}

func (r *Recognizer) validSample(ev *PointerEvent, phase string) bool {
	if ev != nil && finite(ev.X) && finite(ev.Y) {
		return true
	}
	if strictContracts {
		panic(fmt.Sprintf("gesture: malformed %s sample: %+v", phase, ev))
	}
	r.logger.Warn("dropping malformed pointer sample", "phase", phase)
	return false
}
