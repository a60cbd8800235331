package carousel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickScheduler(t *testing.T) {
	s := NewTickScheduler()
	var got []string

	s.Schedule(30*time.Millisecond, func() { got = append(got, "c") })
	s.Schedule(10*time.Millisecond, func() { got = append(got, "a") })
	cancel := s.Schedule(10*time.Millisecond, func() { got = append(got, "cancelled") })
	s.Schedule(10*time.Millisecond, func() {
		got = append(got, "b")
		s.Schedule(0, func() { got = append(got, "nested") })
	})
	cancel()
	cancel()
	assert.Equal(t, 3, s.Pending())

	s.Step(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "nested"}, got)
	assert.Equal(t, 10*time.Millisecond, s.Now())

	s.Step(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "nested", "c"}, got)
	assert.Equal(t, 0, s.Pending())
}
