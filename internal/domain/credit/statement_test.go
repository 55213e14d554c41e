package credit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cobro-engine/internal/domain/schedule"
)

func TestBuildStatement(t *testing.T) {
	t.Run("should return nil for malformed terms", func(t *testing.T) {
		c := dailyCredit()
		c.TotalInstallments = 0
		assert.Nil(t, BuildStatement(c, nil, date(2026, time.January, 20)))
	})

	t.Run("should emit one row per installment", func(t *testing.T) {
		c := dailyCredit()
		rows := BuildStatement(c, nil, date(2026, time.January, 10))
		assert.Len(t, rows, 30)
		assert.Equal(t, 1, rows[0].Number)
		assert.Equal(t, date(2026, time.January, 10), rows[0].ScheduledDate)
		// Sunday the 11th is skipped.
		assert.Equal(t, date(2026, time.January, 12), rows[1].ScheduledDate)
	})

	t.Run("should attribute running totals to rows in order", func(t *testing.T) {
		c := dailyCredit()
		ledger := []Payment{
			{ID: 1, CreditID: c.ID, Date: date(2026, time.January, 10), Amount: dec("4000")},
			{ID: 2, CreditID: c.ID, Date: date(2026, time.January, 12), Amount: dec("6000")},
		}
		rows := BuildStatement(c, ledger, date(2026, time.January, 12))

		assert.Equal(t, RowPaid, rows[0].Status)
		assert.Equal(t, RowPaid, rows[1].Status)
		assert.Equal(t, RowPartial, rows[2].Status)
		assert.True(t, dec("2000").Equal(rows[2].Covered))
		assert.Equal(t, RowPending, rows[3].Status)
	})

	t.Run("should ignore other credits' payments", func(t *testing.T) {
		c := dailyCredit()
		ledger := []Payment{{ID: 1, CreditID: 999, Date: date(2026, time.January, 10), Amount: dec("4000")}}
		rows := BuildStatement(c, ledger, date(2026, time.January, 10))
		assert.Equal(t, RowPending, rows[0].Status)
	})
}

// Covered amounts must always sum to min(totalPaid, totalToPay), whatever the
// rounding of the individual installments.
func TestStatementCoverage(t *testing.T) {
	c, err := NewCredit(4, dec("100"), dec("0"), 3, schedule.FrequencyWeekly, date(2026, time.January, 5), nil)
	assert.NoError(t, err)
	c.ID = 4

	for _, paid := range []string{"0", "10", "33.33", "50", "99.99", "100", "250"} {
		ledger := []Payment{{ID: 1, CreditID: c.ID, Date: date(2026, time.January, 5), Amount: dec(paid)}}
		rows := BuildStatement(*c, ledger, date(2026, time.January, 5))

		sum := decimal.Zero
		for _, r := range rows {
			sum = sum.Add(r.Covered)
		}
		want := decimal.Min(dec(paid), c.TotalToPay)
		assert.True(t, want.Equal(sum), "paid %s: covered sum %s want %s", paid, sum, want)
	}
}

func TestStatementFinalRowAbsorbsRounding(t *testing.T) {
	// 3 cuotas of 33.33 against 100 owed: the last row carries 33.34.
	c, err := NewCredit(4, dec("100"), dec("0"), 3, schedule.FrequencyWeekly, date(2026, time.January, 5), nil)
	assert.NoError(t, err)
	c.ID = 4

	rows := BuildStatement(*c, nil, date(2026, time.January, 5))
	assert.True(t, dec("33.33").Equal(rows[0].Amount))
	assert.True(t, dec("33.33").Equal(rows[1].Amount))
	assert.True(t, dec("33.34").Equal(rows[2].Amount))
}

func TestStatementTiming(t *testing.T) {
	c := dailyCredit()

	t.Run("on-time payment", func(t *testing.T) {
		ledger := []Payment{{ID: 1, CreditID: c.ID, Date: date(2026, time.January, 10), Amount: dec("4000")}}
		rows := BuildStatement(c, ledger, date(2026, time.January, 10))
		assert.Equal(t, TimingOnTime, rows[0].Timing)
		assert.Equal(t, 0, rows[0].DaysLate)
	})

	t.Run("late recovery records the effective date", func(t *testing.T) {
		// Installment #1 (due Jan 10) only covered by the Jan 14 payment.
		ledger := []Payment{{ID: 1, CreditID: c.ID, Date: date(2026, time.January, 14), Amount: dec("4000")}}
		rows := BuildStatement(c, ledger, date(2026, time.January, 20))

		assert.Equal(t, RowPaid, rows[0].Status)
		assert.Equal(t, TimingRecoveredLate, rows[0].Timing)
		assert.Equal(t, 4, rows[0].DaysLate)
		assert.NotNil(t, rows[0].PaidDate)
		assert.Equal(t, date(2026, time.January, 14), *rows[0].PaidDate)
	})

	t.Run("unpaid past-due rows are currently late", func(t *testing.T) {
		rows := BuildStatement(c, nil, date(2026, time.January, 14))

		assert.Equal(t, RowPending, rows[0].Status)
		assert.Equal(t, TimingCurrentlyLate, rows[0].Timing)
		assert.Equal(t, 4, rows[0].DaysLate)
		// Installment #4 falls on Jan 14 itself: due but not late yet.
		assert.Equal(t, date(2026, time.January, 14), rows[3].ScheduledDate)
		assert.NotEqual(t, TimingCurrentlyLate, rows[3].Timing)
	})
}
