package carousel

import (
	"log/slog"
	"math"
	"time"

	"github.com/victorgvargas/carousel/internal/gesture"
)

const (
	DefaultPageWidthPx = 1080.0
	// DefaultCommitRatio is the fraction of the page width a swipe must cover
	// on release to change page.
	DefaultCommitRatio = 1.0 / 3
)

// Observer receives notifications from a Controller. Any field may be nil.
type Observer struct {
	// OnChange fires after every intent that changed the state.
	OnChange func(State, VisualTransform)
	OnSwipe  func(gesture.SwipeEvent)
	OnTap    func(gesture.TapEvent)
}

// GestureHandlers is the attachment object handed to the surface that hosts
// the carousel.
type GestureHandlers struct {
	// Ref registers the tracked surface. Passing nil detaches it.
	Ref func(gesture.Target)

	// OnMouseDown is the press-start hook. It is nil unless mouse tracking
	// is enabled.
	OnMouseDown func(*gesture.PointerEvent)
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithGestureOptions(o gesture.Options) Option {
	return func(c *Controller) { c.gestureOpts = o }
}

// WithDocument sets the document-wide scope that mouse drags are tracked on
// after a press.
func WithDocument(t gesture.Target) Option {
	return func(c *Controller) { c.document = t }
}

func WithTransitionDuration(d time.Duration) Option {
	return func(c *Controller) { c.transition = d }
}

// WithCommitRule sets the page width in pixels and the fraction of it a
// released swipe must cover to change page.
func WithCommitRule(pageWidthPx, ratio float64) Option {
	return func(c *Controller) {
		c.pageWidth = pageWidthPx
		c.commitRatio = ratio
	}
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// timerSlot is one restartable timer. gen invalidates fires that were already
// in flight when the slot was restarted or cancelled.
type timerSlot struct {
	name   string
	gen    uint64
	cancel func()
}

func (t *timerSlot) stop() {
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Controller is the carousel binding layer: it holds the single mutable State
// slot, maps gestures to intents and owns the auto-advance and settle timers.
//
// Controller is not safe for concurrent use. Every method, every scheduler
// fire and every dispatched pointer event must run on one goroutine.
type Controller struct {
	pages       int
	interval    time.Duration
	transition  time.Duration
	pageWidth   float64
	commitRatio float64

	sched       Scheduler
	logger      *slog.Logger
	observer    Observer
	gestureOpts gesture.Options
	document    gesture.Target

	state   State
	rec     *gesture.Recognizer
	running bool

	advance timerSlot
	settle  timerSlot
}

// New creates a carousel of pages pages that auto-advances every interval.
// Timers run on sched and are armed by Start.
func New(pages int, interval time.Duration, sched Scheduler, opts ...Option) (*Controller, error) {
	c := &Controller{
		pages:       pages,
		interval:    interval,
		transition:  DefaultTransitionDuration,
		pageWidth:   DefaultPageWidthPx,
		commitRatio: DefaultCommitRatio,
		sched:       sched,
		logger:      slog.New(slog.DiscardHandler),
		gestureOpts: gesture.DefaultOptions(),
		state:       Initial(),
		advance:     timerSlot{name: "auto_advance"},
		settle:      timerSlot{name: "settle"},
	}
	for _, o := range opts {
		o(c)
	}

	switch {
	case pages < 1:
		return nil, violation("page count %d < 1", pages)
	case interval <= 0:
		return nil, violation("auto-advance interval %v must be positive", interval)
	case c.transition <= 0:
		return nil, violation("transition duration %v must be positive", c.transition)
	case sched == nil:
		return nil, violation("nil scheduler")
	case !(c.pageWidth > 0) || math.IsInf(c.pageWidth, 0):
		return nil, violation("page width %v must be positive", c.pageWidth)
	case !(c.commitRatio > 0 && c.commitRatio <= 1):
		return nil, violation("commit ratio %v must be in (0, 1]", c.commitRatio)
	}

	c.rec = gesture.NewRecognizer(c.swipeHandlers(), c.gestureOpts, c.document, c.logger)
	return c, nil
}

// Start arms the auto-advance timer. It is idempotent.
func (c *Controller) Start() {
	if c.running {
		return
	}
	c.running = true
	c.restart(&c.advance, c.interval, Advance{PageCount: c.pages})
}

// Stop cancels both timers and detaches the tracked surface. A stopped
// Controller still accepts intents but no longer schedules anything.
func (c *Controller) Stop() {
	c.running = false
	c.advance.stop()
	c.settle.stop()
	c.rec.Detach()
}

func (c *Controller) PageCount() int                    { return c.pages }
func (c *Controller) TransitionDuration() time.Duration { return c.transition }
func (c *Controller) State() State                      { return c.state }
func (c *Controller) ActiveIndex() int                  { return c.state.ActiveIndex }

// CurrentTransform is ComputeTransform applied to the current state.
func (c *Controller) CurrentTransform() VisualTransform {
	return ComputeTransform(c.state, c.pages)
}

// NavigateTo starts a transition to target. Out-of-range targets are rejected
// with ErrContractViolation and leave the state untouched.
func (c *Controller) NavigateTo(target int) error {
	return c.Dispatch(Jump{Target: target})
}

func (c *Controller) Next() error { return c.Dispatch(Advance{PageCount: c.pages}) }
func (c *Controller) Prev() error { return c.Dispatch(Retreat{PageCount: c.pages}) }

// Dispatch validates i against this carousel and applies it.
func (c *Controller) Dispatch(i Intent) error {
	if err := ValidateIntent(i, c.pages); err != nil {
		c.logger.Warn("rejecting intent", "intent", i, "error", err)
		return err
	}
	c.apply(i)
	return nil
}

// GestureHandlers returns the surface attachment object.
func (c *Controller) GestureHandlers() GestureHandlers {
	h := GestureHandlers{
		Ref: func(t gesture.Target) {
			if t == nil {
				c.rec.Detach()
				return
			}
			c.rec.Attach(t)
		},
	}
	if c.rec.Options().TrackMouse {
		h.OnMouseDown = c.rec.PressStart
	}
	return h
}

// SetGestureOptions updates the recognizer without disturbing a gesture in
// flight.
func (c *Controller) SetGestureOptions(o gesture.Options) {
	c.gestureOpts = o
	c.rec.SetOptions(o)
}

func (c *Controller) apply(i Intent) {
	prev := c.state
	next := Reduce(prev, i)
	c.state = next

	if c.running {
		if next.ActiveIndex != prev.ActiveIndex || !sameOffset(next.DragOffset, prev.DragOffset) {
			c.restart(&c.advance, c.interval, Advance{PageCount: c.pages})
		}
		if next.DesiredIndex != prev.DesiredIndex {
			c.restart(&c.settle, c.transition, Settle{})
		}
	}

	if sameState(prev, next) {
		return
	}
	c.logger.Debug("carousel intent applied", "intent", i, "active", next.ActiveIndex,
		"desired", next.DesiredIndex, "phase", next.Phase())
	if c.observer.OnChange != nil {
		c.observer.OnChange(next, ComputeTransform(next, c.pages))
	}
}

// restart cancels the slot's pending timer and schedules intent after d.
func (c *Controller) restart(slot *timerSlot, d time.Duration, intent Intent) {
	slot.stop()
	gen := slot.gen
	slot.cancel = c.sched.Schedule(d, func() {
		if slot.gen != gen || !c.running {
			c.logger.Debug("discarding stale timer", "timer", slot.name)
			return
		}
		slot.cancel = nil
		c.apply(intent)
		// The auto-advance timer repeats even when the intent was a no-op
		// (a single page) or did not touch the keys that restart it.
		if slot == &c.advance && slot.cancel == nil && c.running {
			c.restart(slot, d, intent)
		}
	})
}

func (c *Controller) swipeHandlers() gesture.Handlers {
	return gesture.Handlers{
		OnSwiping: func(se gesture.SwipeEvent) {
			c.apply(Drag{Offset: -(se.Position.X - se.Initial.X)})
		},
		OnSwiped: c.swiped,
		OnTap: func(te gesture.TapEvent) {
			if c.observer.OnTap != nil {
				c.observer.OnTap(te)
			}
		},
	}
}

// swiped applies the commit rule on release: a horizontal swipe that covered
// at least commitRatio of the page width changes page, anything else snaps
// back. A transition already in flight is left to the settle timer.
func (c *Controller) swiped(se gesture.SwipeEvent) {
	if c.observer.OnSwipe != nil {
		c.observer.OnSwipe(se)
	}

	travelled := se.Position.X - se.Initial.X
	limit := c.pageWidth * c.commitRatio

	switch {
	case se.Direction == gesture.Left && -travelled >= limit:
		c.apply(Advance{PageCount: c.pages})
	case se.Direction == gesture.Right && travelled >= limit:
		c.apply(Retreat{PageCount: c.pages})
	case c.state.Transitioning():
		c.apply(Drag{Offset: 0})
	default:
		c.apply(Settle{})
	}
}

func sameOffset(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func sameState(a, b State) bool {
	return a.ActiveIndex == b.ActiveIndex && a.DesiredIndex == b.DesiredIndex &&
		sameOffset(a.DragOffset, b.DragOffset)
}
