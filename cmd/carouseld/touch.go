package main

import (
	"time"

	"github.com/victorgvargas/carousel/internal/gesture"
)

// pointerPhase says which listener slot a translated sample goes to.
type pointerPhase int

const (
	phaseStart pointerPhase = iota
	phaseMove
	phaseEnd
)

func (p pointerPhase) String() string {
	switch p {
	case phaseStart:
		return "start"
	case phaseMove:
		return "move"
	default:
		return "end"
	}
}

// pointerSample is one translated pointer event ready for dispatch.
type pointerSample struct {
	Phase pointerPhase
	Event gesture.PointerEvent
}

type touchSlot struct {
	id   int32 // -1 when the slot is free
	x, y float64
}

// touchTranslator folds raw evdev events from one device into pointer
// samples. It understands multitouch protocol B (slots), single-touch
// BTN_TOUCH + ABS_X/ABS_Y panels and relative mice with BTN_LEFT.
//
// State is accumulated between SYN_REPORTs and samples are only produced on
// a report, matching how the kernel groups a frame.
type touchTranslator struct {
	scaleX, scaleY   float64
	screenW, screenH float64

	// multitouch
	mt    bool
	slot  int
	slots [maxTouchSlots]touchSlot

	// single touch
	btnTouch   bool
	absX, absY float64

	// relative mouse
	btnLeft      bool
	mouseX       float64
	mouseY       float64
	mouseMoved   bool
	mouseChanged bool

	// last reported touch frame
	prevContacts int
	prevX, prevY float64

	dropping bool
}

func newTouchTranslator(cfg InputConfig) *touchTranslator {
	t := &touchTranslator{
		scaleX:  cfg.ScaleX,
		scaleY:  cfg.ScaleY,
		screenW: float64(cfg.ScreenWidth),
		screenH: float64(cfg.ScreenHeight),
		mouseX:  float64(cfg.ScreenWidth) / 2,
		mouseY:  float64(cfg.ScreenHeight) / 2,
	}
	for i := range t.slots {
		t.slots[i].id = -1
	}
	return t
}

// Feed consumes one raw event. It returns the samples completed by it, which
// is non-empty only for SYN_REPORT.
func (t *touchTranslator) Feed(ev inputEvent) []pointerSample {
	if t.dropping {
		// After SYN_DROPPED everything up to and including the next report is
		// unreliable.
		if ev.Type == EV_SYN && ev.Code == SYN_REPORT {
			t.dropping = false
			t.mouseMoved = false
			t.mouseChanged = false
		}
		return nil
	}

	switch ev.Type {
	case EV_SYN:
		switch ev.Code {
		case SYN_REPORT:
			return t.report(timestamp(ev))
		case SYN_DROPPED:
			t.dropping = true
		}
	case EV_KEY:
		t.key(ev)
	case EV_ABS:
		t.abs(ev)
	case EV_REL:
		t.rel(ev)
	}
	return nil
}

func (t *touchTranslator) key(ev inputEvent) {
	switch ev.Code {
	case BTN_TOUCH:
		t.btnTouch = ev.Value != evValueRelease
	case BTN_LEFT:
		down := ev.Value != evValueRelease
		if down != t.btnLeft {
			t.btnLeft = down
			t.mouseChanged = true
		}
	}
}

func (t *touchTranslator) abs(ev inputEvent) {
	switch ev.Code {
	case ABS_MT_SLOT:
		t.mt = true
		t.slot = int(ev.Value)
	case ABS_MT_TRACKING_ID:
		t.mt = true
		if s := t.current(); s != nil {
			s.id = ev.Value
		}
	case ABS_MT_POSITION_X:
		t.mt = true
		if s := t.current(); s != nil {
			s.x = float64(ev.Value) * t.scaleX
		}
	case ABS_MT_POSITION_Y:
		t.mt = true
		if s := t.current(); s != nil {
			s.y = float64(ev.Value) * t.scaleY
		}
	case ABS_X:
		t.absX = float64(ev.Value) * t.scaleX
	case ABS_Y:
		t.absY = float64(ev.Value) * t.scaleY
	}
}

func (t *touchTranslator) rel(ev inputEvent) {
	switch ev.Code {
	case REL_X:
		t.mouseX = clamp(t.mouseX+float64(ev.Value), 0, t.screenW-1)
		t.mouseMoved = true
	case REL_Y:
		t.mouseY = clamp(t.mouseY+float64(ev.Value), 0, t.screenH-1)
		t.mouseMoved = true
	}
}

func (t *touchTranslator) current() *touchSlot {
	if t.slot < 0 || t.slot >= len(t.slots) {
		return nil
	}
	return &t.slots[t.slot]
}

// contacts returns the number of touches down and the position of the
// primary one (lowest active slot).
func (t *touchTranslator) contacts() (n int, x, y float64) {
	if !t.mt {
		if t.btnTouch {
			return 1, t.absX, t.absY
		}
		return 0, 0, 0
	}
	for i := len(t.slots) - 1; i >= 0; i-- {
		if t.slots[i].id >= 0 {
			n++
			x, y = t.slots[i].x, t.slots[i].y
		}
	}
	return n, x, y
}

func (t *touchTranslator) report(ts time.Duration) []pointerSample {
	var out []pointerSample

	n, x, y := t.contacts()
	touch := gesture.PointerEvent{
		Source:     gesture.SourceTouch,
		X:          x,
		Y:          y,
		Touches:    n,
		Timestamp:  ts,
		Cancelable: true,
	}
	switch {
	case t.prevContacts == 0 && n > 0:
		out = append(out, pointerSample{Phase: phaseStart, Event: touch})
	case t.prevContacts > 0 && n == 0:
		// The end sample carries the last known position, like a changed touch.
		touch.X, touch.Y = t.prevX, t.prevY
		out = append(out, pointerSample{Phase: phaseEnd, Event: touch})
	case n > 0 && (n != t.prevContacts || x != t.prevX || y != t.prevY):
		out = append(out, pointerSample{Phase: phaseMove, Event: touch})
	}
	t.prevContacts = n
	if n > 0 {
		t.prevX, t.prevY = x, y
	}

	mouse := gesture.PointerEvent{
		Source:     gesture.SourceMouse,
		X:          t.mouseX,
		Y:          t.mouseY,
		Timestamp:  ts,
		Cancelable: true,
	}
	// Motion in the same frame as a press is folded into the press position;
	// motion in the frame of a release is delivered before the release.
	switch {
	case t.mouseChanged && t.btnLeft:
		out = append(out, pointerSample{Phase: phaseStart, Event: mouse})
	case t.mouseChanged:
		if t.mouseMoved {
			out = append(out, pointerSample{Phase: phaseMove, Event: mouse})
		}
		out = append(out, pointerSample{Phase: phaseEnd, Event: mouse})
	case t.mouseMoved:
		out = append(out, pointerSample{Phase: phaseMove, Event: mouse})
	}
	t.mouseMoved = false
	t.mouseChanged = false

	return out
}

// timestamp converts the event timeval into a duration since the epoch.
func timestamp(ev inputEvent) time.Duration {
	return time.Duration(ev.Sec)*time.Second + time.Duration(ev.Usec)*time.Microsecond
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
