package gesture

// Listener handles one pointer event.
type Listener func(*PointerEvent)

// Listeners is a start/move/end listener triple. Nil members are skipped.
type Listeners struct {
	Start Listener
	Move  Listener
	End   Listener
}

// Target is a surface that pointer listeners can be registered on: a tracked
// element or a document-wide scope. Implementations must be comparable
// (typically pointers) so re-attaching the same target can be detected.
type Target interface {
	AddListeners(l Listeners, passive bool) *Subscription
}

// Subscription is a scoped listener registration. Release runs the cleanup
// exactly once no matter how many times or from which exit path it is called.
type Subscription struct {
	release func()
	done    bool
}

// NewSubscription wraps a cleanup function.
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

// Release runs the cleanup on first call. It is safe on a nil receiver.
func (s *Subscription) Release() {
	if s == nil || s.done {
		return
	}
	s.done = true
	if s.release != nil {
		s.release()
	}
}

// Active reports whether Release has not yet run.
func (s *Subscription) Active() bool {
	return s != nil && !s.done
}

type scopeEntry struct {
	id      uint64
	l       Listeners
	passive bool
}

// Scope is an in-memory listener registry that implements Target. Input
// adapters own a Scope per surface and feed it with Dispatch calls.
type Scope struct {
	name    string
	nextID  uint64
	entries []scopeEntry
}

// NewScope returns an empty scope. The name only shows up in diagnostics.
func NewScope(name string) *Scope {
	return &Scope{name: name}
}

func (s *Scope) Name() string { return s.name }

// AddListeners registers l. The returned subscription removes it again.
func (s *Scope) AddListeners(l Listeners, passive bool) *Subscription {
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, scopeEntry{id: id, l: l, passive: passive})
	return NewSubscription(func() { s.remove(id) })
}

func (s *Scope) remove(id uint64) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of live registrations.
func (s *Scope) Len() int { return len(s.entries) }

func (s *Scope) DispatchStart(ev *PointerEvent) {
	s.dispatch(ev, func(l Listeners) Listener { return l.Start })
}

func (s *Scope) DispatchMove(ev *PointerEvent) {
	s.dispatch(ev, func(l Listeners) Listener { return l.Move })
}

func (s *Scope) DispatchEnd(ev *PointerEvent) {
	s.dispatch(ev, func(l Listeners) Listener { return l.End })
}

// dispatch walks a snapshot of the registrations so listeners may add or
// remove registrations (including their own) while being called.
func (s *Scope) dispatch(ev *PointerEvent, pick func(Listeners) Listener) {
	if ev == nil || len(s.entries) == 0 {
		return
	}
	snapshot := make([]scopeEntry, len(s.entries))
	copy(snapshot, s.entries)

	for _, e := range snapshot {
		if !s.has(e.id) {
			continue
		}
		fn := pick(e.l)
		if fn == nil {
			continue
		}
		ev.passive = e.passive
		fn(ev)
	}
	ev.passive = false
}

func (s *Scope) has(id uint64) bool {
	for _, e := range s.entries {
		if e.id == id {
			return true
		}
	}
	return false
}
