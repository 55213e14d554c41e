package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/schedule"
)

type RowStatus string

const (
	RowPaid    RowStatus = "PAID"
	RowPartial RowStatus = "PARTIAL"
	RowPending RowStatus = "PENDING"
)

type RowTiming string

const (
	TimingOnTime        RowTiming = "ON_TIME"
	TimingRecoveredLate RowTiming = "RECOVERED_LATE"
	TimingCurrentlyLate RowTiming = "CURRENTLY_LATE"
)

// StatementRow is one installment line of a client-facing ledger: what slice
// of the running payment total landed on it, when, and how late.
type StatementRow struct {
	Number        int
	ScheduledDate time.Time
	Amount        decimal.Decimal
	Covered       decimal.Decimal
	Status        RowStatus
	// PaidDate is the date of the payment whose running total first reached
	// this row's upper bound. Nil unless the row is fully paid.
	PaidDate *time.Time
	Timing   RowTiming
	DaysLate int
}

// BuildStatement maps the chronological payment ledger onto the installment
// schedule, one row per ordinal. The money attributable to row i is the
// intersection of [ (i-1)*installmentValue, i*installmentValue ] with
// [0, totalPaid]; the final row's upper bound is totalToPay so covered
// amounts always sum to min(totalPaid, totalToPay). Purely derived; never
// mutates the credit or its payments.
func BuildStatement(c Credit, payments []Payment, today time.Time) []StatementRow {
	if !c.HasValidTerms() {
		return nil
	}
	today = schedule.DateOnly(today)
	terms := c.Terms()

	own := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if p.CreditID == c.ID {
			own = append(own, p)
		}
	}
	own = sortPaymentsChronologically(own)

	running := make([]decimal.Decimal, len(own))
	total := decimal.Zero
	for i, p := range own {
		total = total.Add(p.Amount)
		running[i] = total
	}

	rows := make([]StatementRow, 0, c.TotalInstallments)
	for i := 1; i <= c.TotalInstallments; i++ {
		lower := c.InstallmentValue.Mul(decimal.NewFromInt(int64(i - 1)))
		upper := lower.Add(c.InstallmentValue)
		if i == c.TotalInstallments {
			upper = c.TotalToPay
			if upper.LessThan(lower) {
				upper = lower
			}
		}
		amount := upper.Sub(lower)

		covered := decimal.Min(total, upper).Sub(lower)
		covered = clampZero(covered)
		if covered.GreaterThan(amount) {
			covered = amount
		}

		row := StatementRow{
			Number:        i,
			ScheduledDate: terms.DateOf(i),
			Amount:        amount,
			Covered:       covered,
			Status:        RowPending,
		}

		switch {
		case covered.GreaterThanOrEqual(amount.Sub(Tolerance)):
			row.Status = RowPaid
			if at, ok := effectivePaymentDate(own, running, upper); ok {
				row.PaidDate = &at
				if at.After(row.ScheduledDate) {
					row.Timing = TimingRecoveredLate
					row.DaysLate = schedule.DaysBetween(row.ScheduledDate, at)
				} else {
					row.Timing = TimingOnTime
				}
			}
		case covered.IsPositive():
			row.Status = RowPartial
		}

		if row.Status != RowPaid && row.ScheduledDate.Before(today) {
			row.Timing = TimingCurrentlyLate
			row.DaysLate = schedule.DaysBetween(row.ScheduledDate, today)
		}

		rows = append(rows, row)
	}
	return rows
}

// effectivePaymentDate scans chronologically for the first payment whose
// running total reaches upper (within Tolerance).
func effectivePaymentDate(payments []Payment, running []decimal.Decimal, upper decimal.Decimal) (time.Time, bool) {
	threshold := upper.Sub(Tolerance)
	for i := range payments {
		if running[i].GreaterThanOrEqual(threshold) {
			return schedule.DateOnly(payments[i].Date), true
		}
	}
	return time.Time{}, false
}
