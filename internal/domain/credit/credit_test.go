package credit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cobro-engine/internal/domain/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewCredit(t *testing.T) {
	t.Run("should error when inputs are invalid", func(t *testing.T) {
		_, err := NewCredit(1, dec("-100"), dec("0.2"), 30, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
		assert.Error(t, err)

		_, err = NewCredit(1, dec("100"), dec("-0.2"), 30, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
		assert.Error(t, err)

		_, err = NewCredit(1, dec("100"), dec("0.2"), 0, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
		assert.Error(t, err)

		_, err = NewCredit(1, dec("100"), dec("0.2"), 30, schedule.Frequency("HOURLY"), date(2026, time.January, 10), nil)
		assert.Error(t, err)
	})

	t.Run("should apply flat add-on interest", func(t *testing.T) {
		c, err := NewCredit(1, dec("100000"), dec("0.2"), 30, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
		assert.NoError(t, err)
		assert.True(t, dec("120000").Equal(c.TotalToPay))
		assert.True(t, dec("4000").Equal(c.InstallmentValue))
		assert.Equal(t, StatusActive, c.Status)
		assert.True(t, c.TotalPaid.IsZero())
	})

	t.Run("should round installment value to cents", func(t *testing.T) {
		c, err := NewCredit(1, dec("100"), dec("0"), 3, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
		assert.NoError(t, err)
		assert.True(t, dec("33.33").Equal(c.InstallmentValue))
	})
}

func TestAnchor(t *testing.T) {
	start := date(2026, time.January, 10)
	c, _ := NewCredit(1, dec("100"), dec("0.2"), 10, schedule.FrequencyDaily, start, nil)
	assert.Equal(t, start, c.Anchor())

	first := date(2026, time.January, 12)
	c.FirstPaymentDate = &first
	assert.Equal(t, first, c.Anchor())
}

func TestLedgerTotalPaid(t *testing.T) {
	c := Credit{ID: 7, TotalPaid: dec("55")}

	t.Run("nil ledger falls back to the cached counter", func(t *testing.T) {
		assert.True(t, dec("55").Equal(LedgerTotalPaid(c, nil)))
	})

	t.Run("loaded ledger wins over the counter", func(t *testing.T) {
		payments := []Payment{
			{CreditID: 7, Amount: dec("10")},
			{CreditID: 7, Amount: dec("20")},
			{CreditID: 99, Amount: dec("500")},
		}
		assert.True(t, dec("30").Equal(LedgerTotalPaid(c, payments)))
	})

	t.Run("empty non-nil ledger means nothing was paid", func(t *testing.T) {
		assert.True(t, LedgerTotalPaid(c, []Payment{}).IsZero())
	})
}

func TestPaidFullInstallments(t *testing.T) {
	c := Credit{InstallmentValue: dec("4000")}

	assert.Equal(t, 0, PaidFullInstallments(c, decimal.Zero))
	assert.Equal(t, 2, PaidFullInstallments(c, dec("8000")))
	assert.Equal(t, 2, PaidFullInstallments(c, dec("11999.85")))
	// Tolerance absorbs rounding just under a boundary.
	assert.Equal(t, 3, PaidFullInstallments(c, dec("11999.95")))
	assert.Equal(t, 0, PaidFullInstallments(Credit{}, dec("8000")))
}

func TestSettled(t *testing.T) {
	c := Credit{TotalToPay: dec("120000")}

	assert.False(t, c.Settled(dec("119999.80")))
	assert.True(t, c.Settled(dec("119999.95")))
	assert.True(t, c.Settled(dec("120000")))
}

func TestHasValidTerms(t *testing.T) {
	c, _ := NewCredit(1, dec("100"), dec("0.2"), 10, schedule.FrequencyDaily, date(2026, time.January, 10), nil)
	assert.True(t, c.HasValidTerms())

	broken := *c
	broken.InstallmentValue = decimal.Zero
	assert.False(t, broken.HasValidTerms())

	broken = *c
	broken.Frequency = ""
	assert.False(t, broken.HasValidTerms())
}
