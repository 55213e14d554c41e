package route

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
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

// testSnapshot is one route's January: opening float on the 2nd, a credit
// disbursed on the 5th, daily collections, an expense and a withdrawal.
func testSnapshot() Snapshot {
	return Snapshot{
		RouteID: 1,
		Clients: []client.Client{
			{ClientID: 10, RouteID: 1, Active: true},
			{ClientID: 20, RouteID: 2, Active: true}, // other route
		},
		Credits: []credit.Credit{
			{ID: 100, ClientID: 10, Capital: dec("500000"), StartDate: date(2026, time.January, 5)},
			{ID: 200, ClientID: 20, Capital: dec("900000"), StartDate: date(2026, time.January, 5)},
		},
		Payments: []credit.Payment{
			{ID: 1, CreditID: 100, Date: date(2026, time.January, 6), Amount: dec("20000")},
			{ID: 2, CreditID: 100, Date: date(2026, time.January, 10), Amount: dec("20000")},
			{ID: 3, CreditID: 100, Date: date(2026, time.January, 15), Amount: dec("20000")},
			{ID: 4, CreditID: 200, Date: date(2026, time.January, 10), Amount: dec("99999")}, // other route
		},
		Expenses: []Expense{
			{ID: 1, RouteID: 1, Date: date(2026, time.January, 8), Value: dec("15000"), Category: "fuel"},
			{ID: 2, RouteID: 2, Date: date(2026, time.January, 8), Value: dec("77777"), Category: "fuel"},
		},
		Transactions: []Transaction{
			{ID: 1, RouteID: 1, Type: TransactionInitialBase, Amount: dec("1000000"), Date: date(2026, time.January, 2)},
			{ID: 2, RouteID: 1, Type: TransactionInjection, Amount: dec("200000"), Date: date(2026, time.January, 12)},
			{ID: 3, RouteID: 1, Type: TransactionWithdrawal, Amount: dec("50000"), Date: date(2026, time.January, 14)},
		},
	}
}

func TestReconcile(t *testing.T) {
	t.Run("full month from the opening float", func(t *testing.T) {
		liq := Reconcile(testSnapshot(), date(2026, time.January, 2), date(2026, time.January, 31))

		assert.True(t, dec("1000000").Equal(liq.StartingBase), liq.StartingBase.String())
		assert.True(t, dec("60000").Equal(liq.Collected))
		assert.True(t, dec("200000").Equal(liq.Injections))
		assert.True(t, dec("15000").Equal(liq.Expenses))
		assert.True(t, dec("500000").Equal(liq.NewLoans))
		assert.True(t, dec("50000").Equal(liq.Withdrawals))
		// 1000000 + 60000 + 200000 - 15000 - 500000 - 50000
		assert.True(t, dec("695000").Equal(liq.Balance), liq.Balance.String())
	})

	t.Run("mid-period window folds history into the base", func(t *testing.T) {
		liq := Reconcile(testSnapshot(), date(2026, time.January, 10), date(2026, time.January, 31))

		// Base: 1000000 + 20000 (Jan 6) - 15000 - 500000.
		assert.True(t, dec("505000").Equal(liq.StartingBase), liq.StartingBase.String())
		// Jan 10 payment lands in the period, not the base.
		assert.True(t, dec("40000").Equal(liq.Collected))
		assert.True(t, dec("695000").Equal(liq.Balance), liq.Balance.String())
	})

	t.Run("opening float dated on from still counts as base", func(t *testing.T) {
		liq := Reconcile(testSnapshot(), date(2026, time.January, 2), date(2026, time.January, 2))
		assert.True(t, dec("1000000").Equal(liq.StartingBase))
	})

	t.Run("inverted range yields a base-only ledger", func(t *testing.T) {
		liq := Reconcile(testSnapshot(), date(2026, time.January, 10), date(2026, time.January, 5))

		assert.True(t, dec("505000").Equal(liq.StartingBase), liq.StartingBase.String())
		assert.True(t, liq.Collected.IsZero())
		assert.True(t, liq.Injections.IsZero())
		assert.True(t, liq.Expenses.IsZero())
		assert.True(t, liq.NewLoans.IsZero())
		assert.True(t, liq.Withdrawals.IsZero())
		assert.True(t, liq.StartingBase.Equal(liq.Balance))
	})

	t.Run("other routes' events never leak in", func(t *testing.T) {
		liq := Reconcile(testSnapshot(), date(2026, time.January, 1), date(2026, time.January, 31))
		assert.True(t, dec("60000").Equal(liq.Collected))
		assert.True(t, dec("15000").Equal(liq.Expenses))
		assert.True(t, dec("500000").Equal(liq.NewLoans))
	})
}

// Splitting a period at any midpoint must conserve the balance: the full
// window's balance equals the second window's balance, because everything
// before its start folds into the base.
func TestReconcileConservation(t *testing.T) {
	snap := testSnapshot()
	from, to := date(2026, time.January, 2), date(2026, time.January, 31)
	full := Reconcile(snap, from, to)

	for mid := from; !mid.After(to); mid = mid.AddDate(0, 0, 1) {
		second := Reconcile(snap, mid, to)
		assert.True(t, full.Balance.Equal(second.Balance),
			"mid %s: full %s vs split %s", mid.Format("2006-01-02"), full.Balance, second.Balance)
	}
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TransactionInitialBase.Valid())
	assert.True(t, TransactionInjection.Valid())
	assert.True(t, TransactionWithdrawal.Valid())
	assert.False(t, TransactionType("LOAN").Valid())
}
