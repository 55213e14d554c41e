package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/route"
)

type RegisterExpenseRequest struct {
	Date     string `json:"date"`
	Value    string `json:"value"`
	Category string `json:"category"`
}

func (r *RegisterExpenseRequest) Validate() error {
	v, err := decimal.NewFromString(r.Value)
	if err != nil || !v.IsPositive() {
		return fmt.Errorf("value must be a positive amount")
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil || r.Date == "" {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}
	if r.Category == "" {
		return fmt.Errorf("category is required")
	}
	return nil
}

type RegisterTransactionRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

func (r *RegisterTransactionRequest) Validate() error {
	if !route.TransactionType(r.Type).Valid() {
		return fmt.Errorf("type must be one of INITIAL_BASE, INJECTION, WITHDRAWAL")
	}
	a, err := decimal.NewFromString(r.Amount)
	if err != nil || !a.IsPositive() {
		return fmt.Errorf("amount must be a positive amount")
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil || r.Date == "" {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

type RouteResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Collector string    `json:"collector"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LiquidationResponse struct {
	RouteID      string `json:"routeId"`
	From         string `json:"from"`
	To           string `json:"to"`
	StartingBase string `json:"startingBase"`
	Collected    string `json:"collected"`
	Injections   string `json:"injections"`
	Expenses     string `json:"expenses"`
	NewLoans     string `json:"newLoans"`
	Withdrawals  string `json:"withdrawals"`
	Balance      string `json:"balance"`
}

type ExpenseResponse struct {
	ID       string `json:"id"`
	RouteID  string `json:"routeId"`
	Date     string `json:"date"`
	Value    string `json:"value"`
	Category string `json:"category"`
}

type TransactionResponse struct {
	ID      string `json:"id"`
	RouteID string `json:"routeId"`
	Type    string `json:"type"`
	Amount  string `json:"amount"`
	Date    string `json:"date"`
}

type VisitEntryResponse struct {
	Client     ClientResponse     `json:"client"`
	Assessment AssessmentResponse `json:"assessment"`
}

func NewRouteResponse(r *route.Route) RouteResponse {
	return RouteResponse{
		ID:        strconv.FormatInt(r.ID, 10),
		Name:      r.Name,
		Collector: r.Collector,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func NewLiquidationResponse(l *route.Liquidation) LiquidationResponse {
	return LiquidationResponse{
		RouteID:      strconv.FormatInt(l.RouteID, 10),
		From:         l.From.Format(dateLayout),
		To:           l.To.Format(dateLayout),
		StartingBase: l.StartingBase.StringFixed(2),
		Collected:    l.Collected.StringFixed(2),
		Injections:   l.Injections.StringFixed(2),
		Expenses:     l.Expenses.StringFixed(2),
		NewLoans:     l.NewLoans.StringFixed(2),
		Withdrawals:  l.Withdrawals.StringFixed(2),
		Balance:      l.Balance.StringFixed(2),
	}
}

func NewExpenseResponse(e *route.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:       strconv.FormatInt(e.ID, 10),
		RouteID:  strconv.FormatInt(e.RouteID, 10),
		Date:     e.Date.Format(dateLayout),
		Value:    e.Value.StringFixed(2),
		Category: e.Category,
	}
}

func NewTransactionResponse(t *route.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:      strconv.FormatInt(t.ID, 10),
		RouteID: strconv.FormatInt(t.RouteID, 10),
		Type:    string(t.Type),
		Amount:  t.Amount.StringFixed(2),
		Date:    t.Date.Format(dateLayout),
	}
}

func NewVisitEntryResponse(e route.VisitEntry) VisitEntryResponse {
	a := e.Assessment
	return VisitEntryResponse{
		Client:     NewClientResponse(&e.Client),
		Assessment: NewAssessmentResponse(&a),
	}
}
