package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/schedule"
)

const dateLayout = "2006-01-02"

type CreateCreditRequest struct {
	ClientID         int64  `json:"clientId"`
	Capital          string `json:"capital"`
	InterestRate     string `json:"interestRate"`
	Installments     int    `json:"installments"`
	Frequency        string `json:"frequency"`
	StartDate        string `json:"startDate"`
	FirstPaymentDate string `json:"firstPaymentDate,omitempty"`
}

func (r *CreateCreditRequest) Validate() error {
	if r.ClientID <= 0 {
		return fmt.Errorf("clientId must be positive")
	}
	capital, err := decimal.NewFromString(r.Capital)
	if err != nil || !capital.IsPositive() {
		return fmt.Errorf("capital must be a positive amount")
	}
	rate, err := decimal.NewFromString(r.InterestRate)
	if err != nil || rate.IsNegative() {
		return fmt.Errorf("interestRate must be a non-negative amount")
	}
	if r.Installments <= 0 {
		return fmt.Errorf("installments must be positive")
	}
	if !schedule.Frequency(r.Frequency).Valid() {
		return fmt.Errorf("frequency must be one of DAILY, WEEKLY, MONTHLY")
	}
	if _, err := time.Parse(dateLayout, r.StartDate); err != nil || r.StartDate == "" {
		return fmt.Errorf("invalid startDate format (use YYYY-MM-DD): %w", err)
	}
	if r.FirstPaymentDate != "" {
		if _, err := time.Parse(dateLayout, r.FirstPaymentDate); err != nil {
			return fmt.Errorf("invalid firstPaymentDate format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

type RegisterPaymentRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date,omitempty"`
}

func (r *RegisterPaymentRequest) Validate() error {
	if _, err := decimal.NewFromString(r.Amount); err != nil || r.Amount == "" {
		return fmt.Errorf("invalid payment amount: %w", err)
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

type CreditResponse struct {
	ID                string                 `json:"id"`
	ClientID          string                 `json:"clientId"`
	Capital           string                 `json:"capital"`
	TotalToPay        string                 `json:"totalToPay"`
	InstallmentValue  string                 `json:"installmentValue"`
	TotalInstallments int                    `json:"totalInstallments"`
	TotalPaid         string                 `json:"totalPaid"`
	Frequency         string                 `json:"frequency"`
	StartDate         string                 `json:"startDate"`
	FirstPaymentDate  *string                `json:"firstPaymentDate,omitempty"`
	Status            string                 `json:"status"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
	Statement         []StatementRowResponse `json:"statement,omitempty"`
}

type StatementRowResponse struct {
	Number        int     `json:"number"`
	ScheduledDate string  `json:"scheduledDate"`
	Amount        string  `json:"amount"`
	Covered       string  `json:"covered"`
	Status        string  `json:"status"`
	PaidDate      *string `json:"paidDate,omitempty"`
	Timing        string  `json:"timing,omitempty"`
	DaysLate      int     `json:"daysLate,omitempty"`
}

type AssessmentResponse struct {
	CreditID              string   `json:"creditId"`
	Date                  string   `json:"date"`
	Category              string   `json:"category"`
	PaidInstallments      int      `json:"paidInstallments"`
	ExpectedInstallments  int      `json:"expectedInstallments"`
	RemainingInstallments int      `json:"remainingInstallments"`
	NextDueDate           *string  `json:"nextDueDate,omitempty"`
	Finished              bool     `json:"finished"`
	Overdue               bool     `json:"overdue"`
	DueToday              bool     `json:"dueToday"`
	TotalPaid             string   `json:"totalPaid"`
	Debt                  string   `json:"debt"`
	Arrears               string   `json:"arrears"`
	PaidToday             string   `json:"paidToday"`
	Warnings              []string `json:"warnings,omitempty"`
}

type PaymentResponse struct {
	ID       string `json:"id"`
	CreditID string `json:"creditId"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

func NewCreditResponse(c *credit.Credit, statement []credit.StatementRow) CreditResponse {
	resp := CreditResponse{
		ID:                strconv.FormatInt(c.ID, 10),
		ClientID:          strconv.FormatInt(c.ClientID, 10),
		Capital:           c.Capital.StringFixed(2),
		TotalToPay:        c.TotalToPay.StringFixed(2),
		InstallmentValue:  c.InstallmentValue.StringFixed(2),
		TotalInstallments: c.TotalInstallments,
		TotalPaid:         c.TotalPaid.StringFixed(2),
		Frequency:         string(c.Frequency),
		StartDate:         c.StartDate.Format(dateLayout),
		Status:            string(c.Status),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.FirstPaymentDate != nil && !c.FirstPaymentDate.IsZero() {
		s := c.FirstPaymentDate.Format(dateLayout)
		resp.FirstPaymentDate = &s
	}
	if statement != nil {
		resp.Statement = make([]StatementRowResponse, len(statement))
		for i, row := range statement {
			resp.Statement[i] = NewStatementRowResponse(row)
		}
	}
	return resp
}

func NewStatementRowResponse(row credit.StatementRow) StatementRowResponse {
	resp := StatementRowResponse{
		Number:        row.Number,
		ScheduledDate: row.ScheduledDate.Format(dateLayout),
		Amount:        row.Amount.StringFixed(2),
		Covered:       row.Covered.StringFixed(2),
		Status:        string(row.Status),
		Timing:        string(row.Timing),
		DaysLate:      row.DaysLate,
	}
	if row.PaidDate != nil {
		s := row.PaidDate.Format(dateLayout)
		resp.PaidDate = &s
	}
	return resp
}

func NewAssessmentResponse(a *credit.Assessment) AssessmentResponse {
	resp := AssessmentResponse{
		CreditID:              strconv.FormatInt(a.CreditID, 10),
		Date:                  a.Date.Format(dateLayout),
		Category:              string(a.Category),
		PaidInstallments:      a.PaidInstallments,
		ExpectedInstallments:  a.ExpectedInstallments,
		RemainingInstallments: a.RemainingInstallments,
		Finished:              a.Finished,
		Overdue:               a.Overdue,
		DueToday:              a.DueToday,
		TotalPaid:             a.TotalPaid.StringFixed(2),
		Debt:                  a.Debt.StringFixed(2),
		Arrears:               a.Arrears.StringFixed(2),
		PaidToday:             a.PaidToday.StringFixed(2),
		Warnings:              a.Warnings,
	}
	if !a.NextDueDate.IsZero() {
		s := a.NextDueDate.Format(dateLayout)
		resp.NextDueDate = &s
	}
	return resp
}

func NewPaymentResponse(p *credit.Payment) PaymentResponse {
	return PaymentResponse{
		ID:       strconv.FormatInt(p.ID, 10),
		CreditID: strconv.FormatInt(p.CreditID, 10),
		Date:     p.Date.Format(dateLayout),
		Amount:   p.Amount.StringFixed(2),
	}
}
