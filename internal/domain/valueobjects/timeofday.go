// Package valueobjects contains immutable value objects that represent domain
// concepts without identity. They are compared by value, not by identity.
package valueobjects

import (
	"errors"
	"fmt"
)

// TimeOfDay represents a wall-clock time as a zero-padded "HH:MM" string.
// The fixed-width format makes lexicographic string comparison equivalent to
// chronological comparison, which the scheduling code relies on.
//
// Value Object Pattern: no identity, validated on creation, immutable.
type TimeOfDay struct {
	value string
}

// ErrInvalidTimeOfDay is returned when a time string is not valid "HH:MM".
var ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")

// NewTimeOfDay creates a TimeOfDay from a "HH:MM" string.
func NewTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	hh := digits2(s[0], s[1])
	mm := digits2(s[3], s[4])
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return TimeOfDay{value: s}, nil
}

// MustTimeOfDay is a test/fixture helper that panics on invalid input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := NewTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// digits2 parses two ASCII digits, returning -1 on non-digits.
func digits2(a, b byte) int {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return -1
	}
	return int(a-'0')*10 + int(b-'0')
}

// String returns the "HH:MM" representation.
func (t TimeOfDay) String() string {
	return t.value
}

// IsZero reports whether the value was never set.
func (t TimeOfDay) IsZero() bool {
	return t.value == ""
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.value < other.value
}

// After reports whether t is strictly later than other.
func (t TimeOfDay) After(other TimeOfDay) bool {
	return t.value > other.value
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return digits2(t.value[0], t.value[1])*60 + digits2(t.value[3], t.value[4])
}

// TimeWindow is a half-open [Start, End) interval within a single day.
type TimeWindow struct {
	start TimeOfDay
	end   TimeOfDay
}

// ErrInvalidTimeWindow is returned when start is not strictly before end.
var ErrInvalidTimeWindow = errors.New("time window start must be before end")

// NewTimeWindow creates a validated TimeWindow.
func NewTimeWindow(start, end TimeOfDay) (TimeWindow, error) {
	if start.IsZero() || end.IsZero() {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	if !start.Before(end) {
		return TimeWindow{}, fmt.Errorf("%w: %s..%s", ErrInvalidTimeWindow, start, end)
	}
	return TimeWindow{start: start, end: end}, nil
}

// ParseTimeWindow creates a TimeWindow from two "HH:MM" strings.
func ParseTimeWindow(start, end string) (TimeWindow, error) {
	s, err := NewTimeOfDay(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := NewTimeOfDay(end)
	if err != nil {
		return TimeWindow{}, err
	}
	return NewTimeWindow(s, e)
}

// Start returns the inclusive start of the window.
func (w TimeWindow) Start() TimeOfDay {
	return w.start
}

// End returns the exclusive end of the window.
func (w TimeWindow) End() TimeOfDay {
	return w.end
}

// Overlaps reports whether two half-open windows intersect.
// Back-to-back windows (10:00-11:00 and 11:00-12:00) do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.start.Before(other.end) && other.start.Before(w.end)
}

// Within reports whether w is fully contained in outer (inclusive bounds).
func (w TimeWindow) Within(outer TimeWindow) bool {
	return !w.start.Before(outer.start) && !outer.end.Before(w.end)
}

// Equal reports whether both windows have the same bounds.
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.start == other.start && w.end == other.end
}

// String returns "HH:MM-HH:MM".
func (w TimeWindow) String() string {
	return w.start.String() + "-" + w.end.String()
}
