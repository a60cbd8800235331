package gesture

import (
	"math"
	"time"
)

// rotate maps a screen position into a frame rotated by angleDeg degrees.
// A zero angle returns the position unchanged so no rounding error creeps in.
func rotate(p Vector, angleDeg float64) Vector {
	if angleDeg == 0 {
		return p
	}
	rad := math.Pi / 180 * angleDeg
	sin, cos := math.Sincos(rad)
	return Vector{
		X: p.X*cos + p.Y*sin,
		Y: p.Y*cos - p.X*sin,
	}
}

// classify picks the direction of the dominant axis. Ties go to the X axis.
func classify(absX, absY, deltaX, deltaY float64) Direction {
	if absX >= absY {
		if deltaX > 0 {
			return Right
		}
		return Left
	}
	if deltaY > 0 {
		return Down
	}
	return Up
}

// elapsedMillis converts a sample interval to milliseconds, substituting 1 ms
// for a zero interval so velocities stay finite.
func elapsedMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	if ms == 0 {
		return 1
	}
	return ms
}

// measure builds the kinematic part of a SwipeEvent for a move from prev to cur.
func measure(prev, cur Vector, elapsed time.Duration) SwipeEvent {
	dx := cur.X - prev.X
	dy := cur.Y - prev.Y
	absX := math.Abs(dx)
	absY := math.Abs(dy)
	ms := elapsedMillis(elapsed)

	return SwipeEvent{
		AbsX:           absX,
		AbsY:           absY,
		DeltaX:         dx,
		DeltaY:         dy,
		Direction:      classify(absX, absY, dx, dy),
		Position:       cur,
		Velocity:       math.Sqrt(absX*absX+absY*absY) / ms,
		VelocityVector: Vector{X: dx / ms, Y: dy / ms},
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
