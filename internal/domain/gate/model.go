package gate

import (
	"fmt"
	"time"
)

// DateLayout is the only accepted door date format.
const DateLayout = "2006-01-02"

// Calendar holds the configured active window for the advent calendar.
type Calendar struct {
	Year  int
	Month time.Month
	// Override opens every door regardless of date. Debug switch only.
	Override bool
}

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// MonthName returns the English name of the configured month.
// INVARIANT: Calendar fields are not mutated
func (c Calendar) MonthName() string {
	return c.Month.String()
}

// IsActiveOn reports whether today falls inside the configured month and year.
// INVARIANT: Calendar fields are not mutated
func (c Calendar) IsActiveOn(today time.Time) bool {
	return today.Year() == c.Year && today.Month() == c.Month
}

// Decide applies the door gate: a door opens on or after its date, within the
// configured month and year only.
// PRE: today is the caller's current time
// POST: Returns Allowed, or Denied with a human-readable reason
func Decide(today time.Time, cal Calendar, requestedDate string) Decision {
	if cal.Override {
		return allow()
	}

	if !cal.IsActiveOn(today) {
		return deny("The Advent Calendar is configured for month %s of %d and is not currently active.",
			cal.MonthName(), cal.Year)
	}

	requested, err := time.ParseInLocation(DateLayout, requestedDate, today.Location())
	if err != nil {
		return deny("Invalid date format in the URL or JSON data: %s. Must be YYYY-MM-DD.", requestedDate)
	}

	if !calendarDay(today).Before(requested) {
		return allow()
	}
	return deny("It's only %s %d. This door (%s) is still sealed!", cal.MonthName(), today.Day(), requestedDate)
}

// calendarDay drops the time of day, keeping the location.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
