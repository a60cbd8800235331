package carousel

import "math"

// Reduce is the pure carousel reducer. It never mutates s and has no side
// effects; the same (s, i) always yields the same result.
//
// Reduce is total. It performs no range checks: callers that accept untrusted
// input validate with ValidateIntent first. Unknown intents return s unchanged.
func Reduce(s State, i Intent) State {
	switch in := i.(type) {
	case Jump:
		s.DesiredIndex = in.Target
	case Advance:
		s.DesiredIndex = wrap(s.ActiveIndex+1, in.PageCount)
	case Retreat:
		s.DesiredIndex = wrap(s.ActiveIndex-1, in.PageCount)
	case Drag:
		s.DragOffset = in.Offset
	case Settle:
		s.DragOffset = math.NaN()
		s.ActiveIndex = s.DesiredIndex
	}
	return s
}

// wrap maps i into [0, n). A non-positive n leaves i alone so Reduce stays
// total on invalid input.
func wrap(i, n int) int {
	if n <= 0 {
		return i
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
