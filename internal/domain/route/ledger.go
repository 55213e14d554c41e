package route

import (
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/schedule"
)

// Liquidation is the reconciled cash position of a route over a date range:
// the physical cash the collector should be holding or delivering at period
// end. Re-running it over the same snapshot is bit-exact.
type Liquidation struct {
	RouteID int64
	From    time.Time
	To      time.Time

	// StartingBase is everything carried from history before the period:
	// opening float plus injections and collections, minus withdrawals,
	// expenses and disbursed capital.
	StartingBase decimal.Decimal

	Collected   decimal.Decimal
	Injections  decimal.Decimal
	Expenses    decimal.Decimal
	NewLoans    decimal.Decimal
	Withdrawals decimal.Decimal

	Balance decimal.Decimal
}

// Reconcile aggregates every cash-affecting event of the snapshot's route
// into a single balance over [from, to].
//
// Starting base: INITIAL_BASE transactions dated on-or-before from count;
// every other event type counts only when dated strictly before from.
// Period flows cover [from, to] inclusive, so no event lands in both buckets.
// An inverted range (to < from) yields a base-only ledger with zero flows.
//
// Payments are always taken from the raw payment ledger, never from the
// credits' cached totalPaid counters, so a stale counter cannot skew the
// cash position.
func Reconcile(snap Snapshot, from, to time.Time) Liquidation {
	from, to = schedule.DateOnly(from), schedule.DateOnly(to)
	liq := Liquidation{
		RouteID:      snap.RouteID,
		From:         from,
		To:           to,
		StartingBase: decimal.Zero,
		Collected:    decimal.Zero,
		Injections:   decimal.Zero,
		Expenses:     decimal.Zero,
		NewLoans:     decimal.Zero,
		Withdrawals:  decimal.Zero,
	}

	inPeriod := func(d time.Time) bool {
		return !to.Before(from) && !d.Before(from) && !d.After(to)
	}

	credits := snap.routeCredits()

	for _, tx := range snap.Transactions {
		if tx.RouteID != snap.RouteID {
			continue
		}
		d := schedule.DateOnly(tx.Date)
		switch tx.Type {
		case TransactionInitialBase:
			if !d.After(from) {
				liq.StartingBase = liq.StartingBase.Add(tx.Amount)
			}
		case TransactionInjection:
			if d.Before(from) {
				liq.StartingBase = liq.StartingBase.Add(tx.Amount)
			} else if inPeriod(d) {
				liq.Injections = liq.Injections.Add(tx.Amount)
			}
		case TransactionWithdrawal:
			if d.Before(from) {
				liq.StartingBase = liq.StartingBase.Sub(tx.Amount)
			} else if inPeriod(d) {
				liq.Withdrawals = liq.Withdrawals.Add(tx.Amount)
			}
		}
	}

	for _, p := range snap.Payments {
		if _, ok := credits[p.CreditID]; !ok {
			continue
		}
		d := schedule.DateOnly(p.Date)
		if d.Before(from) {
			liq.StartingBase = liq.StartingBase.Add(p.Amount)
		} else if inPeriod(d) {
			liq.Collected = liq.Collected.Add(p.Amount)
		}
	}

	for _, e := range snap.Expenses {
		if e.RouteID != snap.RouteID {
			continue
		}
		d := schedule.DateOnly(e.Date)
		if d.Before(from) {
			liq.StartingBase = liq.StartingBase.Sub(e.Value)
		} else if inPeriod(d) {
			liq.Expenses = liq.Expenses.Add(e.Value)
		}
	}

	for _, c := range credits {
		d := schedule.DateOnly(c.StartDate)
		if d.Before(from) {
			liq.StartingBase = liq.StartingBase.Sub(c.Capital)
		} else if inPeriod(d) {
			liq.NewLoans = liq.NewLoans.Add(c.Capital)
		}
	}

	liq.Balance = liq.StartingBase.
		Add(liq.Collected).
		Add(liq.Injections).
		Sub(liq.Expenses).
		Sub(liq.NewLoans).
		Sub(liq.Withdrawals)

	return liq
}
