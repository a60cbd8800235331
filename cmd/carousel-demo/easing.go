package main

import "math"

// cubicBezier is a CSS-style timing function through (0,0) and (1,1) with
// control points (x1,y1) and (x2,y2).
type cubicBezier struct {
	x1, y1, x2, y2 float64
}

func newCubicBezier(c [4]float64) cubicBezier {
	return cubicBezier{x1: c[0], y1: c[1], x2: c[2], y2: c[3]}
}

func bezierAt(p1, p2, t float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierSlope(p1, p2, t float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

// Ease maps animation progress x in [0,1] to the eased value. The result may
// leave [0,1] when the curve overshoots.
func (b cubicBezier) Ease(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}
	return bezierAt(b.y1, b.y2, b.solveT(x))
}

// solveT finds the curve parameter whose x coordinate is x. Newton first,
// bisection when the slope is too flat.
func (b cubicBezier) solveT(x float64) float64 {
	const eps = 1e-7

	t := x
	for i := 0; i < 8; i++ {
		dx := bezierAt(b.x1, b.x2, t) - x
		if math.Abs(dx) < eps {
			return t
		}
		d := bezierSlope(b.x1, b.x2, t)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= dx / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for i := 0; i < 64 && hi-lo > eps; i++ {
		if bezierAt(b.x1, b.x2, t) < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}
