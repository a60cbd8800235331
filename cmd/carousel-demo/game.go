package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/victorgvargas/carousel/internal/carousel"
	"github.com/victorgvargas/carousel/internal/gesture"
)

var pageColors = []color.RGBA{
	{0xe0, 0x5a, 0x47, 0xff},
	{0x3f, 0x88, 0xc5, 0xff},
	{0x44, 0xbb, 0xa4, 0xff},
	{0xf2, 0xa5, 0x41, 0xff},
	{0x8e, 0x6c, 0x8a, 0xff},
	{0x39, 0x3e, 0x46, 0xff},
}

var background = color.RGBA{0x10, 0x10, 0x14, 0xff}

// Game hosts one carousel in an ebiten window. The window is the touch
// surface; mouse drags continue on the document scope after a press.
type Game struct {
	width, height int

	ctrl     *carousel.Controller
	handlers carousel.GestureHandlers
	sched    *carousel.TickScheduler
	surface  *gesture.Scope
	document *gesture.Scope
	anim     *stripAnimator
	logger   *slog.Logger

	offset float64

	touchID   ebiten.TouchID
	touching  bool
	touchX    float64
	touchY    float64
	mouseDown bool
	mouseX    float64
	mouseY    float64

	swipes int
	taps   int
}

type gameConfig struct {
	Width, Height int
	Pages         int
	AutoAdvance   time.Duration
	Gesture       gesture.Options
}

func newGame(cfg gameConfig, logger *slog.Logger) (*Game, error) {
	g := &Game{
		width:    cfg.Width,
		height:   cfg.Height,
		sched:    carousel.NewTickScheduler(),
		surface:  gesture.NewScope("window"),
		document: gesture.NewScope("document"),
		logger:   logger,
	}

	ctrl, err := carousel.New(cfg.Pages, cfg.AutoAdvance, g.sched,
		carousel.WithLogger(logger),
		carousel.WithGestureOptions(cfg.Gesture),
		carousel.WithDocument(g.document),
		carousel.WithCommitRule(float64(cfg.Width), carousel.DefaultCommitRatio),
		carousel.WithObserver(carousel.Observer{
			OnSwipe: func(se gesture.SwipeEvent) {
				g.swipes++
				logger.Debug("swipe", "direction", se.Direction, "velocity", se.Velocity)
			},
			OnTap: func(gesture.TapEvent) { g.taps++ },
		}),
	)
	if err != nil {
		return nil, err
	}
	g.ctrl = ctrl
	g.handlers = ctrl.GestureHandlers()
	g.handlers.Ref(g.surface)
	g.anim = newStripAnimator(float64(cfg.Width), cfg.Pages, ctrl.TransitionDuration())
	ctrl.Start()
	return g, nil
}

func (g *Game) Update() error {
	g.sched.Step(time.Second / time.Duration(ebiten.TPS()))

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.ctrl.Stop()
		return ebiten.Termination
	}
	g.updateKeys()
	g.updateTouch()
	g.updateMouse()

	g.offset = g.anim.Update(g.ctrl.State(), g.sched.Now())
	return nil
}

func (g *Game) updateKeys() {
	var err error
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight):
		err = g.ctrl.Next()
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft):
		err = g.ctrl.Prev()
	}
	for i := 0; i < 9 && i < g.ctrl.PageCount(); i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			err = g.ctrl.NavigateTo(i)
		}
	}
	if err != nil {
		g.logger.Warn("navigation rejected", "error", err)
	}
}

// updateTouch follows the first finger down. Extra fingers only change the
// contact count, which makes the recognizer ignore the gesture.
func (g *Game) updateTouch() {
	ids := ebiten.AppendTouchIDs(nil)

	if !g.touching {
		pressed := inpututil.AppendJustPressedTouchIDs(nil)
		if len(pressed) == 0 {
			return
		}
		g.touchID, g.touching = pressed[0], true
		x, y := ebiten.TouchPosition(g.touchID)
		g.touchX, g.touchY = float64(x), float64(y)
		g.pointer(phaseStart, gesture.SourceTouch, g.touchX, g.touchY, len(ids))
		return
	}

	if inpututil.IsTouchJustReleased(g.touchID) {
		g.touching = false
		g.pointer(phaseEnd, gesture.SourceTouch, g.touchX, g.touchY, len(ids))
		return
	}

	x, y := ebiten.TouchPosition(g.touchID)
	if fx, fy := float64(x), float64(y); fx != g.touchX || fy != g.touchY {
		g.touchX, g.touchY = fx, fy
		g.pointer(phaseMove, gesture.SourceTouch, fx, fy, len(ids))
	}
}

func (g *Game) updateMouse() {
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.mouseDown = true
		g.mouseX, g.mouseY = x, y
		g.pointer(phaseStart, gesture.SourceMouse, x, y, 0)
	case g.mouseDown && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.mouseDown = false
		g.pointer(phaseEnd, gesture.SourceMouse, x, y, 0)
	case g.mouseDown && (x != g.mouseX || y != g.mouseY):
		g.mouseX, g.mouseY = x, y
		g.pointer(phaseMove, gesture.SourceMouse, x, y, 0)
	}
}

type pointerPhase int

const (
	phaseStart pointerPhase = iota
	phaseMove
	phaseEnd
)

// pointer delivers one sample the way a browser would: touch to the surface,
// mouse press to the press hook and the rest of a mouse drag to the document.
func (g *Game) pointer(phase pointerPhase, src gesture.InputSource, x, y float64, touches int) {
	ev := &gesture.PointerEvent{
		Source:     src,
		X:          x,
		Y:          y,
		Touches:    touches,
		Timestamp:  g.sched.Now(),
		Cancelable: true,
	}

	if src == gesture.SourceTouch {
		switch phase {
		case phaseStart:
			g.surface.DispatchStart(ev)
		case phaseMove:
			g.surface.DispatchMove(ev)
		case phaseEnd:
			g.surface.DispatchEnd(ev)
		}
		return
	}

	switch phase {
	case phaseStart:
		if g.handlers.OnMouseDown != nil {
			g.handlers.OnMouseDown(ev)
		}
	case phaseMove:
		g.document.DispatchMove(ev)
	case phaseEnd:
		g.document.DispatchEnd(ev)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	const margin = 24
	s := g.ctrl.State()
	w, h := float32(g.width), float32(g.height)
	for _, r := range layoutSlides(s.ActiveIndex, g.ctrl.PageCount(), float64(g.width), g.offset) {
		c := pageColors[r.Page%len(pageColors)]
		vector.DrawFilledRect(screen, float32(r.X)+margin, margin, w-2*margin, h-2*margin, c, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("page %d", r.Page+1), int(r.X)+g.width/2-24, g.height/2)
	}

	vt := g.ctrl.CurrentTransform()
	status := fmt.Sprintf("page %d/%d  %s  %s  swipes=%d taps=%d",
		s.ActiveIndex+1, g.ctrl.PageCount(), s.Phase(), vt.ScreenTranslate(), g.swipes, g.taps)
	ebitenutil.DebugPrintAt(screen, status, 8, 4)
	ebitenutil.DebugPrintAt(screen, "drag or swipe, arrows or 1-9 to navigate, esc to quit", 8, g.height-20)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
