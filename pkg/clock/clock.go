// Package clock provides the injectable notion of "today" used by validators.
// Dates are compared as calendar days in the journal's timezone.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// NewSystem returns a wall clock bound to loc (UTC when nil).
func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{Location: loc}
}

// Now returns the current time in the clock's location.
func (s System) Now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Fixed always returns the same instant. Used by tests and replays.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return f.At
}

// Today truncates the clock's current time to midnight in its own location.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from earlier to later.
func DaysBetween(earlier, later time.Time) int {
	a := time.Date(earlier.Year(), earlier.Month(), earlier.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(later.Year(), later.Month(), later.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
