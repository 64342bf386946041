package core

import "time"

// Period is an inclusive range of calendar dates.
type Period struct {
	Start Date
	End   Date
}

// Today covers the calendar date of now.
func Today(now time.Time) Period {
	d := DateOf(now)
	return Period{Start: d, End: d}
}

// ThisWeek covers Monday of the current ISO week through today.
func ThisWeek(now time.Time) Period {
	d := DateOf(now)
	sinceMonday := (int(d.Weekday()) + 6) % 7
	return Period{Start: d.AddDays(-sinceMonday), End: d}
}

// ThisMonth covers the first of the current month through today.
func ThisMonth(now time.Time) Period {
	d := DateOf(now)
	return Period{Start: d.AddDays(1 - d.Day()), End: d}
}

// Bounds returns the half-open instant range [from, to) covered by the
// period, in the location of its dates.
func (p Period) Bounds() (from, to time.Time) {
	return p.Start.Time, p.End.AddDays(1).Time
}

// Contains reports whether t falls on one of the period's dates.
func (p Period) Contains(t time.Time) bool {
	from, to := p.Bounds()
	return !t.Before(from) && t.Before(to)
}
