package scheduler

import (
	"fmt"
	"time"
)

// Window is the daily interval during which the upstream catalog is
// known stale and polling is suppressed. Bounds are inclusive.
type Window struct {
	startMin int
	endMin   int
}

// NewWindow parses "HH:MM" bounds into a Window.
func NewWindow(start, end string) (Window, error) {
	s, err := minutesOfDay(start)
	if err != nil {
		return Window{}, fmt.Errorf("quiet window start: %w", err)
	}
	e, err := minutesOfDay(end)
	if err != nil {
		return Window{}, fmt.Errorf("quiet window end: %w", err)
	}
	return Window{startMin: s, endMin: e}, nil
}

// Contains reports whether now falls inside the window. Pure; callers
// inject the clock. A window whose start is after its end wraps past
// midnight.
func (w Window) Contains(now time.Time) bool {
	m := now.Hour()*60 + now.Minute()
	if w.startMin <= w.endMin {
		return m >= w.startMin && m <= w.endMin
	}
	return m >= w.startMin || m <= w.endMin
}

func minutesOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
