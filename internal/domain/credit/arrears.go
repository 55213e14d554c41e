package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/schedule"
)

// Category is the visit/status bucket a collector sees for a credit on a
// given day. Buckets are evaluated in strict priority order; first match wins.
type Category string

const (
	CategoryWrittenOff   Category = "written-off"
	CategoryPaidToday    Category = "paid-in-full-today"
	CategoryPartialToday Category = "partial-payment-today"
	CategoryInArrears    Category = "in-arrears"
	CategoryDueToday     Category = "due-today"
	CategoryMissingOne   Category = "missing-1-installment"
	CategoryMissingFew   Category = "missing-up-to-3-installments"
	CategoryOnSchedule   Category = "on-schedule"
	CategoryFinished     Category = "finished"
)

// Assessment is the derived arrears state of one credit at one date. It is a
// pure function of the credit snapshot and the target day; recomputing it on
// every refresh is safe and expected.
type Assessment struct {
	CreditID              int64
	Date                  time.Time
	PaidInstallments      int
	ExpectedInstallments  int
	RemainingInstallments int
	NextDueDate           time.Time
	Finished              bool
	Overdue               bool
	DueToday              bool
	TotalPaid             decimal.Decimal
	Debt                  decimal.Decimal
	// Arrears is the backlog shown to the collector: Debt minus today's
	// not-yet-collected cuota when today is itself a scheduled day, so the
	// quick-action "cuota" button is not double counted.
	Arrears   decimal.Decimal
	PaidToday decimal.Decimal
	Category  Category
	// Warnings flag data-quality problems (malformed terms, counters past
	// the total owed, payments predating disbursement). The figures are
	// still computed as given, never silently corrected.
	Warnings []string
}

// ExpectedAmountBy is the cumulative amount owed by date: the capped
// installment ordinal times the fixed installment value.
func ExpectedAmountBy(c Credit, date time.Time) decimal.Decimal {
	if !c.HasValidTerms() {
		return decimal.Zero
	}
	n := schedule.ExpectedInstallments(c.Terms(), date)
	return c.InstallmentValue.Mul(decimal.NewFromInt(int64(n)))
}

// DebtAt is the unpaid balance of what was owed by date. Past the final
// installment it collapses to the plain residual totalToPay - totalPaid, so
// installment rounding never leaves a phantom debt on a finished schedule.
func DebtAt(c Credit, totalPaid decimal.Decimal, date time.Time) decimal.Decimal {
	if !c.HasValidTerms() {
		return decimal.Zero
	}
	if schedule.Project(c.Terms(), date).Number > c.TotalInstallments {
		return clampZero(c.TotalToPay.Sub(totalPaid))
	}
	return clampZero(ExpectedAmountBy(c, date).Sub(totalPaid))
}

// Assess classifies one credit for one day. Malformed records degrade to a
// zero-debt assessment with warnings instead of failing, so one corrupt row
// cannot blank a route-wide dashboard. Pass the raw payment history when it
// is loaded; a nil slice falls back to the cached TotalPaid counter.
func Assess(c Credit, payments []Payment, today time.Time) Assessment {
	today = schedule.DateOnly(today)
	a := Assessment{
		CreditID:  c.ID,
		Date:      today,
		TotalPaid: LedgerTotalPaid(c, payments),
		Debt:      decimal.Zero,
		Arrears:   decimal.Zero,
		PaidToday: decimal.Zero,
	}

	if c.Status == StatusLost {
		// Terminal: the schedule is frozen, only the residual remains.
		a.Category = CategoryWrittenOff
		a.Debt = clampZero(c.TotalToPay.Sub(a.TotalPaid))
		a.Arrears = a.Debt
		return a
	}

	if !c.HasValidTerms() {
		a.Warnings = append(a.Warnings, "credit has no evaluable schedule (installment value, count, start date or frequency is invalid)")
		a.Category = CategoryOnSchedule
		return a
	}

	if a.TotalPaid.GreaterThan(c.TotalToPay.Add(Tolerance)) {
		a.Warnings = append(a.Warnings, "total paid exceeds total to pay")
	}
	for _, p := range payments {
		if p.CreditID == c.ID && schedule.DateOnly(p.Date).Before(schedule.DateOnly(c.StartDate)) {
			a.Warnings = append(a.Warnings, "payment dated before disbursement")
			break
		}
	}

	terms := c.Terms()
	a.PaidInstallments = PaidFullInstallments(c, a.TotalPaid)
	a.RemainingInstallments = c.TotalInstallments - a.PaidInstallments
	if a.RemainingInstallments < 0 {
		a.RemainingInstallments = 0
	}
	a.ExpectedInstallments = schedule.ExpectedInstallments(terms, today)
	a.Finished = a.PaidInstallments >= c.TotalInstallments || c.Status == StatusCompleted

	if !a.Finished {
		a.NextDueDate = terms.NextDueDate(a.PaidInstallments)
		a.Overdue = today.After(a.NextDueDate)
		a.DueToday = today.Equal(a.NextDueDate)
	}

	a.Debt = DebtAt(c, a.TotalPaid, today)
	a.Arrears = a.Debt
	if !a.Finished && schedule.Project(terms, today).IsDueDay {
		a.Arrears = clampZero(a.Debt.Sub(c.InstallmentValue))
	}

	for _, p := range payments {
		if p.CreditID == c.ID && schedule.DateOnly(p.Date).Equal(today) {
			a.PaidToday = a.PaidToday.Add(p.Amount)
		}
	}

	a.Category = categorize(c, &a)
	return a
}

func categorize(c Credit, a *Assessment) Category {
	switch {
	case a.PaidToday.GreaterThanOrEqual(c.InstallmentValue.Sub(Tolerance)) && a.PaidToday.IsPositive():
		return CategoryPaidToday
	case a.PaidToday.IsPositive():
		return CategoryPartialToday
	case a.Overdue:
		return CategoryInArrears
	case a.DueToday:
		return CategoryDueToday
	case !a.Finished && a.RemainingInstallments == 1:
		return CategoryMissingOne
	case !a.Finished && a.RemainingInstallments > 1 && a.RemainingInstallments <= 3:
		return CategoryMissingFew
	case !a.Finished:
		return CategoryOnSchedule
	default:
		return CategoryFinished
	}
}
