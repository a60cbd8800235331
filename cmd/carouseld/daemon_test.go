package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/protocol"
)

func newTestDaemon(t *testing.T, mutate func(*Config)) (*daemon, *carousel.TickScheduler, chan StateBroadcast) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Input.ScreenWidth = 1080
	cfg.Input.ScreenHeight = 1920
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	sched := carousel.NewTickScheduler()
	broadcasts := make(chan StateBroadcast, 256)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	d, err := newDaemon(cfg, sched, broadcasts, logger)
	if err != nil {
		t.Fatalf("newDaemon: %v", err)
	}
	d.ctrl.Start()
	t.Cleanup(d.ctrl.Stop)
	return d, sched, broadcasts
}

func drain(ch chan StateBroadcast) []StateBroadcast {
	var out []StateBroadcast
	for {
		select {
		case b := <-ch:
			out = append(out, b)
		default:
			return out
		}
	}
}

func command(t *testing.T, d *daemon, c protocol.Command) protocol.Response {
	t.Helper()
	reply := make(chan protocol.Response, 1)
	d.handle(IPCCommand{Command: c, Reply: reply})
	select {
	case resp := <-reply:
		return resp
	default:
		t.Fatalf("no reply for %T", c)
		return protocol.Response{}
	}
}

func feedDevice(d *daemon, dev int, evs []inputEvent) {
	for _, ev := range evs {
		d.handle(InputEvent{Device: dev, Ev: ev})
	}
}

func TestDaemon_IPCNavigate(t *testing.T) {
	d, sched, broadcasts := newTestDaemon(t, nil)

	resp := command(t, d, protocol.Navigate{Index: 2})
	if resp.Status != "ok" || resp.State == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.State.DesiredIndex != 2 || resp.State.Phase != "transitioning" {
		t.Fatalf("unexpected state %+v", resp.State)
	}
	// 0 -> 2 of 3 pages is shorter backwards.
	if resp.State.Transform.Rotation != -1 {
		t.Fatalf("rotation = %d, want -1", resp.State.Transform.Rotation)
	}

	sched.Step(carousel.DefaultTransitionDuration)
	resp = command(t, d, protocol.StateRequest{})
	if resp.State.ActiveIndex != 2 || resp.State.Phase != "idle" {
		t.Fatalf("transition did not settle: %+v", resp.State)
	}

	got := drain(broadcasts)
	if len(got) != 2 {
		t.Fatalf("expected 2 carousel_changed broadcasts, got %d", len(got))
	}
	for _, b := range got {
		if _, ok := b.(BroadcastCarouselChanged); !ok {
			t.Fatalf("unexpected broadcast %T", b)
		}
	}
}

func TestDaemon_IPCNavigateOutOfRange(t *testing.T) {
	d, _, broadcasts := newTestDaemon(t, nil)

	resp := command(t, d, protocol.Navigate{Index: 3})
	if resp.Status != "error" || resp.Error == "" {
		t.Fatalf("expected error response, got %+v", resp)
	}
	if resp.State != nil {
		t.Fatalf("error response should not carry state")
	}
	if got := drain(broadcasts); len(got) != 0 {
		t.Fatalf("rejected command must not broadcast, got %d", len(got))
	}
	if d.ctrl.State().DesiredIndex != 0 {
		t.Fatalf("state changed after rejected command")
	}
}

func TestDaemon_NextPrevWrap(t *testing.T) {
	d, sched, _ := newTestDaemon(t, nil)

	resp := command(t, d, protocol.Prev{})
	if resp.State.DesiredIndex != 2 {
		t.Fatalf("prev from 0 should wrap to 2, got %d", resp.State.DesiredIndex)
	}
	sched.Step(carousel.DefaultTransitionDuration)

	resp = command(t, d, protocol.Next{})
	if resp.State.DesiredIndex != 0 {
		t.Fatalf("next from 2 should wrap to 0, got %d", resp.State.DesiredIndex)
	}
}

func TestDaemon_AutoAdvance(t *testing.T) {
	d, sched, _ := newTestDaemon(t, nil)

	sched.Step(time.Duration(defaultAutoAdvanceMS) * time.Millisecond)
	if got := d.ctrl.State().DesiredIndex; got != 1 {
		t.Fatalf("desired after one interval = %d, want 1", got)
	}
}

func TestDaemon_TouchSwipeAdvances(t *testing.T) {
	d, sched, broadcasts := newTestDaemon(t, nil)

	var evs []inputEvent
	evs = append(evs, frame(0, abs(ABS_MT_SLOT, 0), abs(ABS_MT_TRACKING_ID, 1),
		abs(ABS_MT_POSITION_X, 700), abs(ABS_MT_POSITION_Y, 900))...)
	evs = append(evs, frame(16, abs(ABS_MT_POSITION_X, 600))...)
	evs = append(evs, frame(32, abs(ABS_MT_POSITION_X, 300))...)
	evs = append(evs, frame(48, abs(ABS_MT_TRACKING_ID, -1))...)
	feedDevice(d, 0, evs)

	got := drain(broadcasts)

	var sawDrag, sawSwipe bool
	for _, b := range got {
		switch b := b.(type) {
		case BroadcastCarouselChanged:
			if b.Snapshot.Phase == "dragging" {
				sawDrag = true
			}
		case BroadcastSwipe:
			sawSwipe = true
			if b.Swipe.Direction != "left" {
				t.Fatalf("swipe direction = %q, want left", b.Swipe.Direction)
			}
			if b.Swipe.Initial.X != 700 || b.Swipe.Position.X != 300 {
				t.Fatalf("unexpected swipe geometry %+v", b.Swipe)
			}
		}
	}
	if !sawDrag || !sawSwipe {
		t.Fatalf("expected drag and swipe broadcasts, got %#v", got)
	}

	st := d.ctrl.State()
	if st.DesiredIndex != 1 || st.Phase() != carousel.Transitioning {
		t.Fatalf("400px left swipe should advance, state %v", st)
	}

	sched.Step(carousel.DefaultTransitionDuration)
	if d.ctrl.ActiveIndex() != 1 {
		t.Fatalf("active = %d, want 1", d.ctrl.ActiveIndex())
	}
}

func TestDaemon_TapBroadcast(t *testing.T) {
	d, _, broadcasts := newTestDaemon(t, nil)

	var evs []inputEvent
	evs = append(evs, frame(0, key(BTN_TOUCH, evValuePress), abs(ABS_X, 50), abs(ABS_Y, 60))...)
	evs = append(evs, frame(40, key(BTN_TOUCH, evValueRelease))...)
	feedDevice(d, 0, evs)

	got := drain(broadcasts)
	if len(got) != 1 {
		t.Fatalf("expected exactly one broadcast, got %#v", got)
	}
	tap, ok := got[0].(BroadcastTap)
	if !ok || tap.Tap.X != 50 || tap.Tap.Y != 60 {
		t.Fatalf("unexpected broadcast %#v", got[0])
	}
}

func TestDaemon_MouseIgnoredUnlessTracked(t *testing.T) {
	drag := func(d *daemon) {
		var evs []inputEvent
		evs = append(evs, frame(0, key(BTN_LEFT, evValuePress))...)
		evs = append(evs, frame(10, rel(REL_X, -200))...)
		evs = append(evs, frame(20, rel(REL_X, -300))...)
		evs = append(evs, frame(30, key(BTN_LEFT, evValueRelease))...)
		feedDevice(d, 1, evs)
	}

	d, _, _ := newTestDaemon(t, nil)
	drag(d)
	if d.ctrl.State().DesiredIndex != 0 {
		t.Fatalf("mouse drag moved an untracked carousel")
	}

	d, _, _ = newTestDaemon(t, func(c *Config) { c.Gesture.TrackMouse = true })
	drag(d)
	if d.ctrl.State().DesiredIndex != 1 {
		t.Fatalf("tracked mouse drag should advance, state %v", d.ctrl.State())
	}
	if d.document.Len() != 0 {
		t.Fatalf("document listeners leaked after release: %d", d.document.Len())
	}
}

func TestDaemon_DevicesKeepSeparateState(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	feedDevice(d, 0, frame(0, abs(ABS_MT_SLOT, 0), abs(ABS_MT_TRACKING_ID, 1), abs(ABS_MT_POSITION_X, 10)))
	feedDevice(d, 1, frame(5, key(BTN_LEFT, evValuePress)))
	if len(d.translators) != 2 {
		t.Fatalf("expected one translator per device, got %d", len(d.translators))
	}
}

func TestDaemon_StateSnapshotRequest(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	reply := make(chan protocol.Snapshot, 1)
	d.handle(RequestStateSnapshot{Reply: reply})
	snap := <-reply
	if snap.PageCount != defaultPages || snap.DragOffset != nil || snap.Phase != "idle" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestDaemon_RunStopsOnCancel(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 4)
	done := make(chan error, 1)
	go func() { done <- d.run(ctx, events, nil) }()

	reply := make(chan protocol.Response, 1)
	events <- IPCCommand{Command: protocol.Next{}, Reply: reply}
	select {
	case resp := <-reply:
		if resp.Status != "ok" {
			t.Fatalf("unexpected response %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for reply")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for run to stop")
	}
}

func TestLoopScheduler_DeliversOnEventQueue(t *testing.T) {
	events := make(chan Event, 1)
	done := make(chan struct{})
	defer close(done)
	sched := loopScheduler{events: events, done: done}

	fired := false
	sched.Schedule(time.Millisecond, func() { fired = true })

	select {
	case ev := <-events:
		tf, ok := ev.(timerFired)
		if !ok {
			t.Fatalf("unexpected event %T", ev)
		}
		tf.fire()
	case <-time.After(time.Second):
		t.Fatalf("timer never delivered")
	}
	if !fired {
		t.Fatalf("callback not run")
	}

	cancel := sched.Schedule(50*time.Millisecond, func() {})
	cancel()
	select {
	case ev := <-events:
		t.Fatalf("cancelled timer delivered %T", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
