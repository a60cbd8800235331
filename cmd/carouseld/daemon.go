package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
	"github.com/victorgvargas/carousel/internal/protocol"
)

// ============================================================================
// Central daemon loop
// ============================================================================
//
// The daemon goroutine is the only owner of the carousel Controller, the
// gesture scopes and the per-device input translators. Other goroutines talk
// to it through Events and hear back through StateBroadcasts or reply
// channels.
//
// ============================================================================

// daemon holds the loop-owned state.
type daemon struct {
	ctrl     *carousel.Controller
	handlers carousel.GestureHandlers

	// surface receives touch samples, document receives mouse samples after
	// a press.
	surface  *gesture.Scope
	document *gesture.Scope

	input       InputConfig
	translators map[int]*touchTranslator

	broadcasts chan<- StateBroadcast
	logger     *slog.Logger
	now        func() time.Time
}

// newDaemon builds the controller and attaches it to the touch surface.
// Timers are armed by run.
func newDaemon(cfg Config, sched carousel.Scheduler, broadcasts chan<- StateBroadcast, logger *slog.Logger) (*daemon, error) {
	d := &daemon{
		surface:     gesture.NewScope("surface"),
		document:    gesture.NewScope("document"),
		input:       cfg.Input,
		translators: make(map[int]*touchTranslator),
		broadcasts:  broadcasts,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}

	opts := append(cfg.CarouselOptions(),
		carousel.WithLogger(logger),
		carousel.WithDocument(d.document),
		carousel.WithObserver(d.observer()),
	)
	ctrl, err := carousel.New(cfg.Carousel.Pages, cfg.AutoAdvanceInterval(), sched, opts...)
	if err != nil {
		return nil, fmt.Errorf("create carousel: %w", err)
	}
	d.ctrl = ctrl
	d.handlers = ctrl.GestureHandlers()
	d.handlers.Ref(d.surface)
	return d, nil
}

func (d *daemon) observer() carousel.Observer {
	return carousel.Observer{
		OnChange: func(s carousel.State, _ carousel.VisualTransform) {
			d.emit(BroadcastCarouselChanged{Snapshot: d.snapshotOf(s), At: d.now()})
		},
		OnSwipe: func(se gesture.SwipeEvent) {
			d.logger.Debug("swipe released", "direction", se.Direction, "velocity", se.Velocity)
			d.emit(BroadcastSwipe{
				Swipe: protocol.SwipeData{
					Direction: se.Direction.String(),
					Initial:   se.Initial,
					Position:  se.Position,
					Velocity:  se.Velocity,
				},
				At: d.now(),
			})
		},
		OnTap: func(te gesture.TapEvent) {
			var tap protocol.TapData
			if te.Event != nil {
				tap = protocol.TapData{X: te.Event.X, Y: te.Event.Y}
			}
			d.logger.Debug("tap", "x", tap.X, "y", tap.Y)
			d.emit(BroadcastTap{Tap: tap, At: d.now()})
		},
	}
}

// emit publishes b without ever blocking the loop.
func (d *daemon) emit(b StateBroadcast) {
	if d.broadcasts == nil {
		return
	}
	select {
	case d.broadcasts <- b:
	default:
		d.logger.Warn("broadcast queue full, dropping", "type", fmt.Sprintf("%T", b))
	}
}

func (d *daemon) snapshotOf(s carousel.State) protocol.Snapshot {
	return protocol.NewSnapshot(s, d.ctrl.PageCount(), d.ctrl.TransitionDuration())
}

func (d *daemon) snapshot() protocol.Snapshot {
	return d.snapshotOf(d.ctrl.State())
}

// run starts the carousel timers and processes events until ctx is canceled,
// events is closed or an input reader fails.
func (d *daemon) run(ctx context.Context, events <-chan Event, readErr <-chan error) error {
	d.ctrl.Start()
	defer d.ctrl.Stop()

	d.logger.Info("carousel started", "pages", d.ctrl.PageCount())

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping (context canceled)")
			return nil

		case ev, ok := <-events:
			if !ok {
				d.logger.Info("daemon stopping (events channel closed)")
				return nil
			}
			d.handle(ev)

		case err := <-readErr:
			return fmt.Errorf("input reader stopped: %w", err)
		}
	}
}

// handle processes a single event on the daemon goroutine.
func (d *daemon) handle(ev Event) {
	switch ev := ev.(type) {
	case InputEvent:
		d.handleInput(deviceEvent(ev))

	case timerFired:
		ev.fire()

	case IPCCommand:
		resp := d.execute(ev.Command)
		select {
		case ev.Reply <- resp:
		default:
			d.logger.Warn("IPC reply dropped (no receiver)")
		}

	case RequestStateSnapshot:
		select {
		case ev.Reply <- d.snapshot():
		default:
		}

	default:
		d.logger.Warn("unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

// execute applies an IPC command and reports the resulting state.
func (d *daemon) execute(c protocol.Command) protocol.Response {
	var err error
	switch c := c.(type) {
	case protocol.Navigate:
		err = d.ctrl.NavigateTo(c.Index)
	case protocol.Next:
		err = d.ctrl.Next()
	case protocol.Prev:
		err = d.ctrl.Prev()
	case protocol.StateRequest:
	default:
		err = fmt.Errorf("unsupported command %T", c)
	}
	if err != nil {
		return protocol.Response{Status: "error", Error: err.Error()}
	}
	snap := d.snapshot()
	return protocol.Response{Status: "ok", State: &snap}
}

func (d *daemon) handleInput(ev deviceEvent) {
	t, ok := d.translators[ev.Device]
	if !ok {
		t = newTouchTranslator(d.input)
		d.translators[ev.Device] = t
	}
	for _, s := range t.Feed(ev.Ev) {
		d.dispatch(s)
	}
}

// dispatch routes a pointer sample: touch goes to the surface scope, a mouse
// press goes to the press hook and the rest of the drag to the document.
func (d *daemon) dispatch(s pointerSample) {
	ev := s.Event
	if ev.Source == gesture.SourceTouch {
		switch s.Phase {
		case phaseStart:
			d.surface.DispatchStart(&ev)
		case phaseMove:
			d.surface.DispatchMove(&ev)
		case phaseEnd:
			d.surface.DispatchEnd(&ev)
		}
		return
	}

	switch s.Phase {
	case phaseStart:
		if d.handlers.OnMouseDown != nil {
			d.handlers.OnMouseDown(&ev)
		}
	case phaseMove:
		d.document.DispatchMove(&ev)
	case phaseEnd:
		d.document.DispatchEnd(&ev)
	}
}

// loopScheduler runs controller timers on wall-clock time and delivers their
// fires onto the daemon goroutine as timerFired events.
type loopScheduler struct {
	events chan<- Event
	done   <-chan struct{}
}

func (s loopScheduler) Schedule(d time.Duration, fire func()) func() {
	t := time.AfterFunc(d, func() {
		select {
		case s.events <- timerFired{fire: fire}:
		case <-s.done:
		}
	})
	return func() { t.Stop() }
}
