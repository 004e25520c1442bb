package utils

import (
	"fmt"
	"time"
)

// LoadReferenceLocation resolves the fixed timezone the event's calendar
// day is computed in. Scanner-local time never participates in validity.
func LoadReferenceLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid reference timezone %q: %w", name, err)
	}
	return loc, nil
}

// EndOfDay returns the last instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// SameCalendarDay reports whether a and b fall on the same calendar date
// once both are viewed in loc.
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
