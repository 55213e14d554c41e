package schedule

import "time"

// Collection calendars run Monday through Saturday. Sunday is never a
// collection day, but the walk still steps through it so calendar dates and
// business-day offsets stay in lockstep.

func IsBusinessDay(d time.Time) bool {
	return d.Weekday() != time.Sunday
}

// DateOnly truncates t to local-calendar midnight. All schedule math operates
// on day granularity; time-of-day never participates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddBusinessDays advances n business days (Mon-Sat) from start.
// n <= 0 returns start unchanged.
func AddBusinessDays(start time.Time, n int) time.Time {
	d := DateOnly(start)
	for i := 0; i < n; i++ {
		d = d.AddDate(0, 0, 1)
		if !IsBusinessDay(d) {
			d = d.AddDate(0, 0, 1)
		}
	}
	return d
}

// CountBusinessDays counts business days strictly after start up to and
// including end. Returns 0 when end is on or before start.
func CountBusinessDays(start, end time.Time) int {
	s, e := DateOnly(start), DateOnly(end)
	if !e.After(s) {
		return 0
	}
	count := 0
	for d := s; d.Before(e); {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// DaysBetween returns whole calendar days from a to b (negative when b < a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
