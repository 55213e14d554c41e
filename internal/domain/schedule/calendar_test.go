package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	t.Run("should treat Monday through Saturday as business days", func(t *testing.T) {
		// 2026-01-05 is a Monday.
		for i := 0; i < 6; i++ {
			assert.True(t, IsBusinessDay(date(2026, time.January, 5+i)), "day offset %d", i)
		}
	})

	t.Run("should never treat Sunday as a business day", func(t *testing.T) {
		assert.False(t, IsBusinessDay(date(2026, time.January, 11)))
	})
}

func TestDateOnly(t *testing.T) {
	withTime := time.Date(2026, time.March, 3, 17, 45, 12, 999, time.UTC)
	assert.Equal(t, date(2026, time.March, 3), DateOnly(withTime))
}

func TestAddBusinessDays(t *testing.T) {
	t.Run("should return start unchanged for non-positive n", func(t *testing.T) {
		start := date(2026, time.January, 10)
		assert.Equal(t, start, AddBusinessDays(start, 0))
		assert.Equal(t, start, AddBusinessDays(start, -3))
	})

	t.Run("should skip Sundays", func(t *testing.T) {
		// Saturday + 1 business day lands on Monday.
		sat := date(2026, time.January, 10)
		assert.Equal(t, date(2026, time.January, 12), AddBusinessDays(sat, 1))
	})

	t.Run("should cross multiple weeks", func(t *testing.T) {
		// Monday + 6 business days spans one Sunday.
		mon := date(2026, time.January, 5)
		assert.Equal(t, date(2026, time.January, 12), AddBusinessDays(mon, 6))
	})
}

func TestCountBusinessDays(t *testing.T) {
	t.Run("should return zero when end is on or before start", func(t *testing.T) {
		d := date(2026, time.January, 10)
		assert.Equal(t, 0, CountBusinessDays(d, d))
		assert.Equal(t, 0, CountBusinessDays(d, d.AddDate(0, 0, -1)))
	})

	t.Run("should exclude start and include end", func(t *testing.T) {
		// Friday to Monday: Saturday and Monday count, Sunday does not.
		fri := date(2026, time.January, 9)
		mon := date(2026, time.January, 12)
		assert.Equal(t, 2, CountBusinessDays(fri, mon))
	})

	t.Run("should count six per full week", func(t *testing.T) {
		mon := date(2026, time.January, 5)
		assert.Equal(t, 6, CountBusinessDays(mon, mon.AddDate(0, 0, 7)))
	})
}

// Walking forward with AddBusinessDays and counting back with
// CountBusinessDays must agree, whatever the starting weekday.
func TestBusinessDayRoundTrip(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		start := date(2026, time.January, 5).AddDate(0, 0, offset)
		for n := 1; n <= 20; n++ {
			end := AddBusinessDays(start, n)
			assert.Equal(t, n, CountBusinessDays(start, end),
				"start %s n %d", start.Format("2006-01-02"), n)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := date(2026, time.January, 10)
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, 9, DaysBetween(a, date(2026, time.January, 19)))
	assert.Equal(t, -9, DaysBetween(date(2026, time.January, 19), a))
}
