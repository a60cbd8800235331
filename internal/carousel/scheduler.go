package carousel

import (
	"sort"
	"time"
)

// Scheduler runs fire once after d. The returned cancel must be safe to call
// any number of times, including after fire has run.
//
// Controller expects fire to run on the same goroutine that drives it. A
// scheduler backed by real timers therefore has to marshal fire back onto
// that goroutine (for example by posting it to an event loop).
type Scheduler interface {
	Schedule(d time.Duration, fire func()) (cancel func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fire func()) (cancel func())

func (f SchedulerFunc) Schedule(d time.Duration, fire func()) func() { return f(d, fire) }

type tickTimer struct {
	due  time.Duration
	seq  uint64
	fire func()
	dead bool
}

// TickScheduler is a Scheduler driven by explicit clock steps, for frame loops
// and tests. It is not safe for concurrent use.
type TickScheduler struct {
	now     time.Duration
	seq     uint64
	pending []*tickTimer
}

// NewTickScheduler returns a scheduler whose clock starts at zero.
func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

func (s *TickScheduler) Schedule(d time.Duration, fire func()) func() {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &tickTimer{due: s.now + d, seq: s.seq, fire: fire}
	s.pending = append(s.pending, t)
	return func() { t.dead = true }
}

// Now returns the scheduler clock.
func (s *TickScheduler) Now() time.Duration { return s.now }

// Pending returns the number of timers that have neither fired nor been
// cancelled.
func (s *TickScheduler) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.dead {
			n++
		}
	}
	return n
}

// Step moves the clock forward by dt and runs every timer that has come due,
// in due order (ties in scheduling order). Timers scheduled by a fire callback
// run in the same step if they are already due.
func (s *TickScheduler) Step(dt time.Duration) {
	if dt > 0 {
		s.now += dt
	}
	for {
		t := s.popDue()
		if t == nil {
			return
		}
		t.fire()
	}
}

func (s *TickScheduler) popDue() *tickTimer {
	live := s.pending[:0]
	for _, t := range s.pending {
		if !t.dead {
			live = append(live, t)
		}
	}
	s.pending = live
	if len(s.pending) == 0 {
		return nil
	}

	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].due != s.pending[j].due {
			return s.pending[i].due < s.pending[j].due
		}
		return s.pending[i].seq < s.pending[j].seq
	})
	t := s.pending[0]
	if t.due > s.now {
		return nil
	}
	s.pending = s.pending[1:]
	t.dead = true
	return t
}
