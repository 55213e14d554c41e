package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyValid(t *testing.T) {
	assert.True(t, FrequencyDaily.Valid())
	assert.True(t, FrequencyWeekly.Valid())
	assert.True(t, FrequencyMonthly.Valid())
	assert.False(t, Frequency("FORTNIGHTLY").Valid())
	assert.False(t, Frequency("").Valid())
}

func TestProject(t *testing.T) {
	t.Run("should project zero for degenerate terms", func(t *testing.T) {
		p := Project(Terms{}, date(2026, time.January, 10))
		assert.Equal(t, 0, p.Number)
		assert.False(t, p.IsDueDay)
	})

	t.Run("should project zero before the anchor", func(t *testing.T) {
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}
		p := Project(terms, date(2026, time.January, 9))
		assert.Equal(t, 0, p.Number)
	})

	t.Run("daily anchor is installment one", func(t *testing.T) {
		// 2026-01-10 is a Saturday.
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}
		p := Project(terms, terms.Anchor)
		assert.Equal(t, 1, p.Number)
		assert.True(t, p.IsDueDay)
	})

	t.Run("daily Sunday is not a due day but keeps the ordinal", func(t *testing.T) {
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}
		p := Project(terms, date(2026, time.January, 11))
		assert.False(t, p.IsDueDay)
		assert.Equal(t, 1, p.Number)
	})

	t.Run("weekly ordinal advances every seven days", func(t *testing.T) {
		terms := Terms{Anchor: date(2026, time.January, 5), Frequency: FrequencyWeekly, Installments: 10}
		p := Project(terms, date(2026, time.January, 19))
		assert.Equal(t, 3, p.Number)
		assert.True(t, p.IsDueDay)

		p = Project(terms, date(2026, time.January, 20))
		assert.Equal(t, 3, p.Number)
		assert.False(t, p.IsDueDay)
	})

	t.Run("monthly ordinal advances every thirty days", func(t *testing.T) {
		terms := Terms{Anchor: date(2026, time.January, 5), Frequency: FrequencyMonthly, Installments: 6}
		p := Project(terms, date(2026, time.February, 4))
		assert.Equal(t, 2, p.Number)
		assert.True(t, p.IsDueDay)

		p = Project(terms, date(2026, time.February, 3))
		assert.Equal(t, 1, p.Number)
		assert.False(t, p.IsDueDay)
	})
}

// The ordinal must never decrease as days pass.
func TestProjectMonotonic(t *testing.T) {
	for _, freq := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly} {
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: freq, Installments: 30}
		prev := 0
		for i := 0; i < 120; i++ {
			day := terms.Anchor.AddDate(0, 0, i)
			n := Project(terms, day).Number
			assert.GreaterOrEqual(t, n, prev, "freq %s day %s", freq, day.Format("2006-01-02"))
			prev = n
		}
	}
}

// Projecting a scheduled date must land on its own ordinal and flag it due.
func TestDateOfProjectConsistency(t *testing.T) {
	for _, freq := range []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly} {
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: freq, Installments: 24}
		for i := 1; i <= terms.Installments; i++ {
			scheduled := terms.DateOf(i)
			p := Project(terms, scheduled)
			assert.Equal(t, i, p.Number, "freq %s ordinal %d", freq, i)
			assert.True(t, p.IsDueDay, "freq %s ordinal %d on %s", freq, i, scheduled.Format("2006-01-02"))
		}
	}
}

func TestDateOf(t *testing.T) {
	t.Run("should return zero time for invalid input", func(t *testing.T) {
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}
		assert.True(t, terms.DateOf(0).IsZero())
		assert.True(t, Terms{}.DateOf(1).IsZero())
	})

	t.Run("daily schedule skips Sundays", func(t *testing.T) {
		// Saturday anchor: ten daily installments span two Sundays.
		terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}
		assert.Equal(t, date(2026, time.January, 10), terms.DateOf(1))
		assert.Equal(t, date(2026, time.January, 12), terms.DateOf(2))
		assert.Equal(t, date(2026, time.January, 21), terms.DateOf(10))
	})

	t.Run("weekly and monthly are fixed strides", func(t *testing.T) {
		weekly := Terms{Anchor: date(2026, time.January, 5), Frequency: FrequencyWeekly, Installments: 10}
		assert.Equal(t, date(2026, time.January, 26), weekly.DateOf(4))

		monthly := Terms{Anchor: date(2026, time.January, 5), Frequency: FrequencyMonthly, Installments: 6}
		assert.Equal(t, date(2026, time.March, 6), monthly.DateOf(3))
	})
}

func TestExpectedInstallments(t *testing.T) {
	terms := Terms{Anchor: date(2026, time.January, 5), Frequency: FrequencyWeekly, Installments: 4}

	assert.Equal(t, 0, ExpectedInstallments(terms, date(2026, time.January, 4)))
	assert.Equal(t, 2, ExpectedInstallments(terms, date(2026, time.January, 12)))
	// Caps at the credit's own installment count long past the end.
	assert.Equal(t, 4, ExpectedInstallments(terms, date(2027, time.January, 5)))
}

func TestNextDueDate(t *testing.T) {
	terms := Terms{Anchor: date(2026, time.January, 10), Frequency: FrequencyDaily, Installments: 30}

	assert.Equal(t, terms.DateOf(1), terms.NextDueDate(0))
	assert.Equal(t, terms.DateOf(10), terms.NextDueDate(9))
	assert.Equal(t, terms.DateOf(1), terms.NextDueDate(-5))
}
