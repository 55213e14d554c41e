package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cobro-engine/internal/api/handler/dto"
	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/schedule"
	"cobro-engine/internal/pkg/apperrors"
)

type CreditHandler struct {
	service credit.Service
	logger  *slog.Logger
}

func NewCreditHandler(s credit.Service, l *slog.Logger) *CreditHandler {
	return &CreditHandler{
		service: s,
		logger:  l.With("component", "CreditHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, client.ErrClientAlreadyHasLoan):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInvalidPaymentAmount), errors.Is(err, apperrors.ErrCreditSettled), errors.Is(err, apperrors.ErrCreditWrittenOff):
		status, message = http.StatusBadRequest, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func idFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%s not found in URL path", param)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// asOfFromQuery reads an optional ?asOf=YYYY-MM-DD parameter, defaulting to
// the current day.
func asOfFromQuery(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

// CreateCredit disburses a new credit to a client.
//
// @Summary Disburse a new credit
// @Description Creates a credit with flat add-on interest for an active client: totalToPay = capital * (1 + interestRate), collected in equal fixed installments on a daily, weekly or monthly cadence.
// @Tags Credits
// @Accept json
// @Produce json
// @Param request body dto.CreateCreditRequest true "Credit disbursement request payload"
// @Success 201 {object} dto.CreditResponse "Credit successfully disbursed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 409 {object} dto.ErrorResponse "Client already has an active credit"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits [post]
// @Security BearerAuth
func (h *CreditHandler) CreateCredit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCreditRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	capital, _ := decimal.NewFromString(req.Capital)
	rate, _ := decimal.NewFromString(req.InterestRate)
	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	var firstPayment *time.Time
	if req.FirstPaymentDate != "" {
		fp, _ := time.Parse("2006-01-02", req.FirstPaymentDate)
		firstPayment = &fp
	}

	created, err := h.service.DisburseCredit(r.Context(), req.ClientID, capital, rate, req.Installments, schedule.Frequency(req.Frequency), startDate, firstPayment)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewCreditResponse(created, nil))
}

// GetCredit retrieves a credit, optionally with its installment statement.
//
// @Summary Retrieve credit details
// @Description Retrieves a credit by ID. Add `include=statement` to embed the per-installment ledger rows as of today (or the `asOf` date).
// @Tags Credits
// @Produce json
// @Param creditID path int true "Credit ID"
// @Param include query string false "Optional parameter to include the installment statement (use 'statement')"
// @Param asOf query string false "Evaluation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.CreditResponse "Credit details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid credit ID or request parameters"
// @Failure 404 {object} dto.ErrorResponse "Credit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits/{creditID} [get]
// @Security BearerAuth
func (h *CreditHandler) GetCredit(w http.ResponseWriter, r *http.Request) {
	creditID, err := idFromURL(r, "creditID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	c, err := h.service.GetCredit(r.Context(), creditID)
	if err != nil {
		respondError(w, err)
		return
	}

	var statement []credit.StatementRow
	if r.URL.Query().Get("include") == "statement" {
		asOf, err := asOfFromQuery(r)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid asOf date", apperrors.ErrInvalidArgument))
			return
		}
		statement, err = h.service.GetStatement(r.Context(), creditID, asOf)
		if err != nil {
			respondError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, dto.NewCreditResponse(c, statement))
}

// GetArrears classifies a credit's arrears state.
//
// @Summary Assess a credit's arrears state
// @Description Classifies the credit into a collector visit category (in-arrears, due-today, on-schedule, ...) with the figures behind it, always derived from the raw payment ledger.
// @Tags Credits
// @Produce json
// @Param creditID path int true "Credit ID"
// @Param asOf query string false "Evaluation date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.AssessmentResponse "Assessment successfully computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid credit ID or request parameters"
// @Failure 404 {object} dto.ErrorResponse "Credit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits/{creditID}/arrears [get]
// @Security BearerAuth
func (h *CreditHandler) GetArrears(w http.ResponseWriter, r *http.Request) {
	creditID, err := idFromURL(r, "creditID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	asOf, err := asOfFromQuery(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: invalid asOf date", apperrors.ErrInvalidArgument))
		return
	}

	a, err := h.service.AssessCredit(r.Context(), creditID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewAssessmentResponse(a))
}

// RegisterPayment records a collection against a credit.
//
// @Summary Register a collection payment
// @Description Appends a payment to the credit's ledger. Any positive amount is accepted; the credit flips to COMPLETED once the total owed is covered.
// @Tags Credits
// @Accept json
// @Produce json
// @Param creditID path int true "Credit ID"
// @Param request body dto.RegisterPaymentRequest true "Payment request payload"
// @Success 201 {object} dto.PaymentResponse "Payment successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid credit ID, request payload, or credit not payable"
// @Failure 404 {object} dto.ErrorResponse "Credit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits/{creditID}/payments [post]
// @Security BearerAuth
func (h *CreditHandler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	creditID, err := idFromURL(r, "creditID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.RegisterPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	date := time.Now()
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}

	created, err := h.service.RegisterPayment(r.Context(), creditID, date, amount)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(created))
}

// WriteOff marks a credit as lost.
//
// @Summary Write off a credit
// @Description Marks the credit LOST. Irreversible: schedule evaluation freezes and further payments are rejected.
// @Tags Credits
// @Produce json
// @Param creditID path int true "Credit ID"
// @Success 200 {object} map[string]string "Credit successfully written off"
// @Failure 400 {object} dto.ErrorResponse "Invalid credit ID or credit already written off"
// @Failure 404 {object} dto.ErrorResponse "Credit not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /credits/{creditID}/writeoff [post]
// @Security BearerAuth
func (h *CreditHandler) WriteOff(w http.ResponseWriter, r *http.Request) {
	creditID, err := idFromURL(r, "creditID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.WriteOff(r.Context(), creditID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Credit written off"})
}
