package carousel

import "fmt"

// Intent is the input to Reduce. It is produced by the gesture mapping, the
// timers and programmatic navigation.
type Intent interface {
	intentMarker()
	String() string
}

// Jump requests a transition to Target.
type Jump struct {
	Target int
}

func (Jump) intentMarker()    {}
func (i Jump) String() string { return fmt.Sprintf("Jump(target=%d)", i.Target) }

// Advance requests a transition to the next page, wrapping at PageCount.
type Advance struct {
	PageCount int
}

func (Advance) intentMarker()    {}
func (i Advance) String() string { return fmt.Sprintf("Advance(pages=%d)", i.PageCount) }

// Retreat requests a transition to the previous page, wrapping at PageCount.
type Retreat struct {
	PageCount int
}

func (Retreat) intentMarker()    {}
func (i Retreat) String() string { return fmt.Sprintf("Retreat(pages=%d)", i.PageCount) }

// Drag sets the manual offset in pixels.
type Drag struct {
	Offset float64
}

func (Drag) intentMarker()    {}
func (i Drag) String() string { return fmt.Sprintf("Drag(offset=%v)", i.Offset) }

// Settle clears the drag offset and completes any transition in flight.
type Settle struct{}

func (Settle) intentMarker()  {}
func (Settle) String() string { return "Settle()" }
