package schedule

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// monthlyStepDays is the fixed-interval approximation used for monthly
// credits. It drifts against true calendar months over long terms; existing
// route data already relies on it, so it stays.
const monthlyStepDays = 30

// Terms is the schedule-defining slice of a credit: the anchor date of
// installment #1, the collection frequency, and the number of installments.
type Terms struct {
	Anchor       time.Time
	Frequency    Frequency
	Installments int
}

func (t Terms) Valid() bool {
	return !t.Anchor.IsZero() && t.Installments > 0 && t.Frequency.Valid()
}

// Projection is the result of asking "which installment does target fall on".
type Projection struct {
	// IsDueDay reports whether target is a scheduled collection day.
	IsDueDay bool
	// Number is the ordinal installment due on/by target, anchor-inclusive
	// (the anchor date itself is installment #1). Zero before the anchor.
	Number int
}

// Project determines the installment ordinal due on/by target. Degenerate
// terms project to zero rather than failing; corrupt credits must not sink a
// whole dashboard aggregation.
//
// Monthly due days fall on the fixed 30-day stride from the anchor, not on
// calendar day-of-month matching, so Project and DateOf agree on every
// ordinal.
func Project(t Terms, target time.Time) Projection {
	if !t.Valid() {
		return Projection{}
	}
	anchor := DateOnly(t.Anchor)
	day := DateOnly(target)
	if day.Before(anchor) {
		return Projection{}
	}

	switch t.Frequency {
	case FrequencyDaily:
		return Projection{
			IsDueDay: IsBusinessDay(day),
			Number:   CountBusinessDays(anchor, day) + 1,
		}
	case FrequencyWeekly:
		diff := DaysBetween(anchor, day)
		return Projection{
			IsDueDay: diff%7 == 0,
			Number:   diff/7 + 1,
		}
	case FrequencyMonthly:
		diff := DaysBetween(anchor, day)
		return Projection{
			IsDueDay: diff%monthlyStepDays == 0,
			Number:   diff/monthlyStepDays + 1,
		}
	}
	return Projection{}
}

// ExpectedInstallments is Project capped at the credit's total installment
// count, for amount-due arithmetic.
func ExpectedInstallments(t Terms, target time.Time) int {
	n := Project(t, target).Number
	if n > t.Installments {
		return t.Installments
	}
	return n
}

// DateOf returns the scheduled date of installment #ordinal (1-based).
// The anchor carries installment #1.
func (t Terms) DateOf(ordinal int) time.Time {
	if !t.Valid() || ordinal < 1 {
		return time.Time{}
	}
	anchor := DateOnly(t.Anchor)
	switch t.Frequency {
	case FrequencyDaily:
		return AddBusinessDays(anchor, ordinal-1)
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*(ordinal-1))
	case FrequencyMonthly:
		return anchor.AddDate(0, 0, monthlyStepDays*(ordinal-1))
	}
	return time.Time{}
}

// NextDueDate is the scheduled date of the first unpaid installment given how
// many full installments are already covered.
func (t Terms) NextDueDate(paidInstallments int) time.Time {
	if paidInstallments < 0 {
		paidInstallments = 0
	}
	return t.DateOf(paidInstallments + 1)
}
