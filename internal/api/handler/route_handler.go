package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/api/handler/dto"
	"cobro-engine/internal/domain/route"
	"cobro-engine/internal/pkg/apperrors"
)

type RouteHandler struct {
	service route.Service
	logger  *slog.Logger
}

func NewRouteHandler(s route.Service, l *slog.Logger) *RouteHandler {
	return &RouteHandler{
		service: s,
		logger:  l.With("component", "RouteHandler"),
	}
}

// GetRoute retrieves a route.
//
// @Summary Retrieve route details
// @Tags Routes
// @Produce json
// @Param routeID path int true "Route ID"
// @Success 200 {object} dto.RouteResponse "Route details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID"
// @Failure 404 {object} dto.ErrorResponse "Route not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID} [get]
// @Security BearerAuth
func (h *RouteHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	rt, err := h.service.GetRoute(r.Context(), routeID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewRouteResponse(rt))
}

// GetLiquidation reconciles a route's cash position over a date range.
//
// @Summary Liquidate a route over a date range
// @Description Reconciles every cash-affecting event of the route (collections, injections, expenses, disbursed capital, withdrawals) into the balance the collector should deliver at period end. `from` and `to` are inclusive and default to today.
// @Tags Routes
// @Produce json
// @Param routeID path int true "Route ID"
// @Param from query string false "Period start (YYYY-MM-DD), defaults to today"
// @Param to query string false "Period end (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.LiquidationResponse "Liquidation successfully computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID or date parameters"
// @Failure 404 {object} dto.ErrorResponse "Route not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID}/liquidation [get]
// @Security BearerAuth
func (h *RouteHandler) GetLiquidation(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	from, to := time.Now(), time.Now()
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			respondError(w, fmt.Errorf("%w: invalid from date", apperrors.ErrInvalidArgument))
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			respondError(w, fmt.Errorf("%w: invalid to date", apperrors.ErrInvalidArgument))
			return
		}
	}

	liq, err := h.service.Liquidate(r.Context(), routeID, from, to)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLiquidationResponse(liq))
}

// GetCollectionList builds the collector's daily visit list for a route.
//
// @Summary Build the daily collection list
// @Description Assesses every active credit on the route for one day and returns the clients with their visit categories and figures. Corrupt credits degrade with warnings instead of failing the list.
// @Tags Routes
// @Produce json
// @Param routeID path int true "Route ID"
// @Param date query string false "Visit date (YYYY-MM-DD), defaults to today"
// @Success 200 {array} dto.VisitEntryResponse "Collection list successfully built"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID or date parameter"
// @Failure 404 {object} dto.ErrorResponse "Route not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID}/collection-list [get]
// @Security BearerAuth
func (h *RouteHandler) GetCollectionList(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		if date, err = time.Parse("2006-01-02", raw); err != nil {
			respondError(w, fmt.Errorf("%w: invalid date", apperrors.ErrInvalidArgument))
			return
		}
	}

	entries, err := h.service.CollectionList(r.Context(), routeID, date)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.VisitEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = dto.NewVisitEntryResponse(e)
	}
	respondJSON(w, http.StatusOK, resp)
}

// RegisterExpense records a cash outflow against a route.
//
// @Summary Register a route expense
// @Tags Routes
// @Accept json
// @Produce json
// @Param routeID path int true "Route ID"
// @Param request body dto.RegisterExpenseRequest true "Expense request payload"
// @Success 201 {object} dto.ExpenseResponse "Expense successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Route not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID}/expenses [post]
// @Security BearerAuth
func (h *RouteHandler) RegisterExpense(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.RegisterExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	value, _ := decimal.NewFromString(req.Value)
	date, _ := time.Parse("2006-01-02", req.Date)

	created, err := h.service.RegisterExpense(r.Context(), routeID, date, route.Expense{Value: value, Category: req.Category})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewExpenseResponse(created))
}

// RegisterTransaction records a capital movement on a route.
//
// @Summary Register a route capital transaction
// @Description Records an INITIAL_BASE, INJECTION or WITHDRAWAL. A route accepts at most one INITIAL_BASE; a second attempt returns 409.
// @Tags Routes
// @Accept json
// @Produce json
// @Param routeID path int true "Route ID"
// @Param request body dto.RegisterTransactionRequest true "Transaction request payload"
// @Success 201 {object} dto.TransactionResponse "Transaction successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid route ID or request payload"
// @Failure 404 {object} dto.ErrorResponse "Route not found"
// @Failure 409 {object} dto.ErrorResponse "Route already has an opening float"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /routes/{routeID}/transactions [post]
// @Security BearerAuth
func (h *RouteHandler) RegisterTransaction(w http.ResponseWriter, r *http.Request) {
	routeID, err := idFromURL(r, "routeID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.RegisterTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	date, _ := time.Parse("2006-01-02", req.Date)

	created, err := h.service.RegisterTransaction(r.Context(), routeID, route.TransactionType(req.Type), route.Transaction{Amount: amount, Date: date})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewTransactionResponse(created))
}
