package credit

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/schedule"
	"cobro-engine/internal/pkg/apperrors"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusLost      Status = "LOST"
)

// Tolerance absorbs rounding drift between installment arithmetic and the
// accumulated payment ledger (a tenth of a currency unit).
var Tolerance = decimal.NewFromFloat(0.1)

// Credit is a single gota-a-gota loan. TotalPaid is a cached counter kept by
// the store; LedgerTotalPaid documents when it may be trusted.
type Credit struct {
	ID                int64
	ClientID          int64
	Capital           decimal.Decimal
	TotalToPay        decimal.Decimal
	InstallmentValue  decimal.Decimal
	TotalInstallments int
	TotalPaid         decimal.Decimal
	Frequency         schedule.Frequency
	StartDate         time.Time
	FirstPaymentDate  *time.Time
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Payment is an atomic cash receipt against one credit. Payments are never
// allocated to a specific installment at write time; the statement builder
// derives that after the fact.
type Payment struct {
	ID        int64
	CreditID  int64
	Date      time.Time
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// NewCredit disburses a credit with flat add-on interest:
// totalToPay = capital * (1 + interestRate), collected in equal fixed
// installments (the statement's final row absorbs rounding).
func NewCredit(clientID int64, capital, interestRate decimal.Decimal, installments int, frequency schedule.Frequency, startDate time.Time, firstPaymentDate *time.Time) (*Credit, error) {
	if !capital.IsPositive() {
		return nil, fmt.Errorf("%w: capital must be greater than zero", apperrors.ErrInvalidArgument)
	}
	if interestRate.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate cannot be negative", apperrors.ErrInvalidArgument)
	}
	if installments <= 0 {
		return nil, fmt.Errorf("%w: total installments must be positive", apperrors.ErrInvalidArgument)
	}
	if !frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", apperrors.ErrInvalidArgument, frequency)
	}
	if startDate.IsZero() {
		startDate = schedule.DateOnly(time.Now())
	}

	totalToPay := capital.Add(capital.Mul(interestRate)).Round(2)
	installmentValue := totalToPay.Div(decimal.NewFromInt(int64(installments))).Round(2)

	return &Credit{
		ClientID:          clientID,
		Capital:           capital,
		TotalToPay:        totalToPay,
		InstallmentValue:  installmentValue,
		TotalInstallments: installments,
		TotalPaid:         decimal.Zero,
		Frequency:         frequency,
		StartDate:         schedule.DateOnly(startDate),
		FirstPaymentDate:  firstPaymentDate,
		Status:            StatusActive,
	}, nil
}

// Anchor is the date of installment #1: firstPaymentDate when set, otherwise
// the disbursement date.
func (c *Credit) Anchor() time.Time {
	if c.FirstPaymentDate != nil && !c.FirstPaymentDate.IsZero() {
		return schedule.DateOnly(*c.FirstPaymentDate)
	}
	return schedule.DateOnly(c.StartDate)
}

func (c *Credit) Terms() schedule.Terms {
	return schedule.Terms{
		Anchor:       c.Anchor(),
		Frequency:    c.Frequency,
		Installments: c.TotalInstallments,
	}
}

// HasValidTerms reports whether the credit carries enough well-formed data to
// evaluate a schedule. Corrupt records fail this and degrade to "no schedule".
func (c *Credit) HasValidTerms() bool {
	return c.InstallmentValue.IsPositive() &&
		c.TotalInstallments > 0 &&
		!c.StartDate.IsZero() &&
		c.Frequency.Valid()
}

// LedgerTotalPaid resolves the credit's cumulative paid amount. When the raw
// payment history is loaded (non-nil slice) it is summed and wins over the
// cached TotalPaid counter, which can drift; the counter is only a fallback
// for callers that did not load the ledger.
func LedgerTotalPaid(c Credit, payments []Payment) decimal.Decimal {
	if payments == nil {
		return c.TotalPaid
	}
	total := decimal.Zero
	for _, p := range payments {
		if p.CreditID == c.ID {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// PaidFullInstallments counts whole installments covered by totalPaid, with
// Tolerance absorbing display-unit rounding.
func PaidFullInstallments(c Credit, totalPaid decimal.Decimal) int {
	if !c.InstallmentValue.IsPositive() {
		return 0
	}
	n := int(totalPaid.Add(Tolerance).Div(c.InstallmentValue).IntPart())
	if n < 0 {
		return 0
	}
	return n
}

// Settled reports whether totalPaid covers the full amount owed.
func (c *Credit) Settled(totalPaid decimal.Decimal) bool {
	return totalPaid.GreaterThanOrEqual(c.TotalToPay.Sub(Tolerance))
}

func sortPaymentsChronologically(payments []Payment) []Payment {
	sorted := make([]Payment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := schedule.DateOnly(sorted[i].Date), schedule.DateOnly(sorted[j].Date)
		if di.Equal(dj) {
			return sorted[i].ID < sorted[j].ID
		}
		return di.Before(dj)
	})
	return sorted
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
