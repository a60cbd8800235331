// Command carousel-demo shows the carousel engine in a desktop window.
//
// Usage:
//
//	carousel-demo [flags]
//
// Controls:
//
//	Drag / swipe   - Move between pages (mouse needs -track-mouse, on by default)
//	Left/Right     - Previous/next page
//	1-9            - Jump to page
//	Esc / Q        - Quit
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/victorgvargas/carousel/internal/gesture"
)

const (
	screenWidth  = 480
	screenHeight = 800
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		pages         = flag.Int("pages", 5, "Number of carousel pages")
		autoAdvanceMS = flag.Int("auto-advance-ms", 5000, "Auto-advance interval in ms")
		thresholdPx   = flag.Float64("threshold-px", gesture.DefaultThresholdPx, "Swipe distance threshold in px")
		trackMouse    = flag.Bool("track-mouse", true, "Recognize mouse drags")
		verbose       = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := gesture.DefaultOptions()
	opts.Threshold = gesture.Uniform(*thresholdPx)
	opts.TrackMouse = *trackMouse
	opts.PreventDefaultTouchmove = true

	g, err := newGame(gameConfig{
		Width:       screenWidth,
		Height:      screenHeight,
		Pages:       *pages,
		AutoAdvance: time.Duration(*autoAdvanceMS) * time.Millisecond,
		Gesture:     opts,
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("carousel demo")
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Error("game stopped", "error", err)
		return 1
	}
	return 0
}
