package main

import (
	"math"
	"time"

	"github.com/victorgvargas/carousel/internal/carousel"
)

// stripAnimator turns the sequence of VisualTransforms published by the
// controller into a horizontal strip position, animating between them with
// the curve each transform asks for.
//
// Positions are screen pixels relative to the base of the active slot, so a
// positive value shows more of the previous page.
type stripAnimator struct {
	pageW    float64
	pages    int
	duration time.Duration

	active int
	target float64
	from   float64
	start  time.Duration
	curve  cubicBezier
	moving bool
}

func newStripAnimator(pageW float64, pages int, d time.Duration) *stripAnimator {
	return &stripAnimator{pageW: pageW, pages: pages, duration: d, curve: newCubicBezier(carousel.TransitionNone.Curve())}
}

// screenOffset converts vt into screen pixels relative to the active slot.
func (a *stripAnimator) screenOffset(vt carousel.VisualTransform) float64 {
	if vt.Unit == carousel.Percent {
		// Percent of the whole strip.
		return -vt.Offset / 100 * a.pageW * float64(vt.SlideCount)
	}
	return -vt.Offset
}

// Update retargets the animation when the controller state changed and
// returns the position to draw at now.
func (a *stripAnimator) Update(s carousel.State, now time.Duration) float64 {
	cur := a.at(now)

	if s.ActiveIndex != a.active {
		// The strip base moved by whole slots; shift the displayed position so
		// nothing jumps, modulo a full cycle of real pages.
		cur += float64(s.ActiveIndex-a.active) * a.pageW
		cur = a.nearest(cur, 0)
		a.active = s.ActiveIndex
		a.from = cur
		a.start = now
	}

	vt := carousel.ComputeTransform(s, a.pages)
	target := a.screenOffset(vt)
	if target == a.target && a.moving == (vt.Transition != carousel.TransitionNone) {
		return a.at(now)
	}

	a.target = target
	if vt.Transition == carousel.TransitionNone || cur == target {
		a.moving = false
		a.from = target
		return target
	}
	a.moving = true
	a.from = cur
	a.start = now
	a.curve = newCubicBezier(vt.Transition.Curve())
	return a.at(now)
}

func (a *stripAnimator) at(now time.Duration) float64 {
	if !a.moving || a.duration <= 0 {
		return a.target
	}
	p := float64(now-a.start) / float64(a.duration)
	if p >= 1 {
		return a.target
	}
	return a.from + (a.target-a.from)*a.curve.Ease(p)
}

// nearest returns the position equivalent to x, modulo one cycle of pages,
// closest to ref.
func (a *stripAnimator) nearest(x, ref float64) float64 {
	cycle := a.pageW * float64(a.pages)
	if cycle <= 0 {
		return x
	}
	return x - cycle*math.Round((x-ref)/cycle)
}

// slideRect is one strip slot placed on screen.
type slideRect struct {
	Page int
	X    float64
}

// layoutSlides positions every slot of the strip for active page active and
// offset pixels, dropping the ones fully off screen.
func layoutSlides(active, pages int, pageW, offset float64) []slideRect {
	base := -float64(active+1)*pageW + offset
	var out []slideRect
	for slot := 0; slot < pages+2; slot++ {
		x := base + float64(slot)*pageW
		if x+pageW <= 0 || x >= pageW {
			continue
		}
		out = append(out, slideRect{Page: carousel.SlidePage(slot, pages), X: x})
	}
	return out
}
