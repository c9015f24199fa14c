package loanmath

import "time"

const day = 24 * time.Hour

// DateOf drops the clock part of t, keeping t's calendar day, and returns it
// as midnight UTC. All due dates and as-of dates go through this.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateIn is the calendar day of t as seen in loc, as midnight UTC.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return DateOf(t.In(loc))
}

// AddMonths moves start forward by n calendar months on the same day of
// month. When the target month is shorter, the last day of that month is used
// (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which normalizes into
// the following month.
func AddMonths(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from -> to.
// Negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)) / day)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
