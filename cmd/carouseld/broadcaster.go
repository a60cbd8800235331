package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// RunBroadcaster turns daemon broadcasts into JSON frames and publishes them
// on the feed. It runs as a single goroutine.
//
// In-drag carousel_changed frames are rate limited: the latest pending one is
// published at most once per window, and any other frame publishes it first
// so ordering holds. A zero window disables coalescing.
func RunBroadcaster(ctx context.Context, f *feed, src <-chan StateBroadcast, window time.Duration, logger *slog.Logger) {
	var (
		pending StateBroadcast
		timer   *time.Timer
		fire    <-chan time.Time
	)

	publish := func(b StateBroadcast) {
		frame, ok := frameFor(b)
		if !ok {
			return
		}
		msg, err := json.Marshal(frame)
		if err != nil {
			logger.Warn("broadcast marshal failed", "type", frame.Type, "error", err)
			return
		}
		f.Publish(msg)
	}
	flush := func() {
		if pending != nil {
			publish(pending)
			pending = nil
		}
	}
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, fire = nil, nil
	}
	defer disarm()

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case <-fire:
			timer, fire = nil, nil
			flush()

		case b, ok := <-src:
			if !ok {
				flush()
				logger.Info("broadcaster stopping (source closed)")
				return
			}
			if window > 0 && coalescable(b) {
				// Latest wins; newer drags do not push the deadline out.
				pending = b
				if timer == nil {
					timer = time.NewTimer(window)
					fire = timer.C
				}
				continue
			}
			disarm()
			flush()
			publish(b)
		}
	}
}
