package credit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/schedule"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

type Service interface {
	// DisburseCredit opens a new credit for a client with flat add-on
	// interest and assigns it to the client record.
	DisburseCredit(ctx context.Context, clientID int64, capital, interestRate decimal.Decimal, installments int, frequency schedule.Frequency, startDate time.Time, firstPaymentDate *time.Time) (*Credit, error)

	GetCredit(ctx context.Context, creditID int64) (*Credit, error)

	// GetStatement builds the per-installment ledger rows for a credit as of
	// the given date.
	GetStatement(ctx context.Context, creditID int64, asOf time.Time) ([]StatementRow, error)

	// AssessCredit classifies the credit's arrears state as of the given
	// date, always from the raw payment ledger.
	AssessCredit(ctx context.Context, creditID int64, asOf time.Time) (*Assessment, error)

	// RegisterPayment appends a collection to the credit's ledger and flips
	// the credit to COMPLETED once the total owed is covered.
	RegisterPayment(ctx context.Context, creditID int64, date time.Time, amount decimal.Decimal) (*Payment, error)

	// WriteOff marks a credit LOST. Irreversible; freezes schedule
	// evaluation.
	WriteOff(ctx context.Context, creditID int64) error
}

type serviceImpl struct {
	repo          Repository
	clientService client.Service
	logger        *slog.Logger
}

func NewService(r Repository, cs client.Service, logger *slog.Logger) Service {
	return &serviceImpl{repo: r, clientService: cs, logger: logger.With("component", "CreditService")}
}

func (s *serviceImpl) DisburseCredit(ctx context.Context, clientID int64, capital, interestRate decimal.Decimal, installments int, frequency schedule.Frequency, startDate time.Time, firstPaymentDate *time.Time) (*Credit, error) {
	s.logger.InfoContext(ctx, "Disbursing new credit", "clientID", clientID)

	cl, err := s.clientService.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %d not found", apperrors.ErrValidation, clientID)
		}
		return nil, fmt.Errorf("failed to verify client status: %w", err)
	}

	if !cl.Active {
		return nil, fmt.Errorf("%w: client %d is not active", apperrors.ErrValidation, clientID)
	}

	if cl.CreditID != nil {
		existing, err := s.GetCredit(ctx, *cl.CreditID)
		if err != nil {
			return nil, fmt.Errorf("failed to get existing credit details: %w", err)
		}
		if existing.Status == StatusActive {
			return nil, fmt.Errorf("%w (creditID: %d)", client.ErrClientAlreadyHasLoan, existing.ID)
		}
	}

	c, err := NewCredit(clientID, capital, interestRate, installments, frequency, startDate, firstPaymentDate)
	if err != nil {
		return nil, fmt.Errorf("failed to build credit: %w", err)
	}

	created, err := s.repo.CreateCredit(ctx, c)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save credit", "error", err)
		return nil, fmt.Errorf("%w: failed to save credit: %v", apperrors.ErrInternalServer, err)
	}

	if err := s.clientService.AssignCreditToClient(ctx, clientID, created.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to assign credit to client", "error", err)
		return nil, fmt.Errorf("failed to assign credit to client: %w", err)
	}

	s.logger.InfoContext(ctx, "Credit disbursed", "creditID", created.ID, "clientID", clientID)
	return created, nil
}

func (s *serviceImpl) GetCredit(ctx context.Context, creditID int64) (*Credit, error) {
	c, err := s.repo.GetCreditByID(ctx, creditID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: credit %d not found", apperrors.ErrNotFound, creditID)
		}
		s.logger.ErrorContext(ctx, "Failed to get credit", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: failed to get credit %d: %v", apperrors.ErrInternalServer, creditID, err)
	}
	return c, nil
}

func (s *serviceImpl) GetStatement(ctx context.Context, creditID int64, asOf time.Time) ([]StatementRow, error) {
	c, err := s.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.GetPaymentsByCreditID(ctx, creditID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load payment ledger", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: failed to load payments for credit %d: %v", apperrors.ErrInternalServer, creditID, err)
	}
	return BuildStatement(*c, payments, asOf), nil
}

func (s *serviceImpl) AssessCredit(ctx context.Context, creditID int64, asOf time.Time) (*Assessment, error) {
	c, err := s.GetCredit(ctx, creditID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.GetPaymentsByCreditID(ctx, creditID)
	if err != nil {
		// Assess degrades to the cached counter rather than failing the
		// whole view; the ledger is preferred but not mandatory.
		s.logger.WarnContext(ctx, "Payment ledger unavailable, assessing from cached totals", "creditID", creditID, "error", err)
		payments = nil
	}
	a := Assess(*c, payments, asOf)
	monitoring.RecordAssessment(string(a.Category))
	for _, w := range a.Warnings {
		s.logger.WarnContext(ctx, "Data quality warning during assessment", "creditID", creditID, "warning", w)
	}
	return &a, nil
}

func (s *serviceImpl) RegisterPayment(ctx context.Context, creditID int64, date time.Time, amount decimal.Decimal) (p *Payment, err error) {
	s.logger.InfoContext(ctx, "Registering payment", "creditID", creditID, "amount", amount.String())

	if !amount.IsPositive() {
		monitoring.RecordPayment("failure_amount")
		return nil, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidPaymentAmount)
	}

	c, err := s.GetCredit(ctx, creditID)
	if err != nil {
		monitoring.RecordPayment("failure_not_found")
		return nil, err
	}
	switch c.Status {
	case StatusLost:
		monitoring.RecordPayment("failure_written_off")
		return nil, fmt.Errorf("%w (creditID: %d)", apperrors.ErrCreditWrittenOff, creditID)
	case StatusCompleted:
		monitoring.RecordPayment("failure_settled")
		return nil, fmt.Errorf("%w (creditID: %d)", apperrors.ErrCreditSettled, creditID)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		monitoring.RecordPayment("failure_internal")
		return nil, fmt.Errorf("%w: could not begin transaction: %v", apperrors.ErrInternalServer, err)
	}
	defer func() {
		if rec := recover(); rec != nil {
			_ = s.repo.RollbackTx(ctx, tx)
			panic(rec)
		} else if err != nil {
			monitoring.RecordPayment("failure_internal")
			_ = s.repo.RollbackTx(ctx, tx)
		}
	}()

	created, err := s.repo.InsertPaymentInTx(ctx, tx, creditID, schedule.DateOnly(date), amount)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert payment", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: could not insert payment: %v", apperrors.ErrInternalServer, err)
	}

	payments, err := s.repo.GetPaymentsByCreditID(ctx, creditID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reload payment ledger", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: could not reload payment ledger: %v", apperrors.ErrInternalServer, err)
	}
	payments = append(payments, *created)

	// The cached counter is recomputed from the ledger, never incremented,
	// so it cannot drift from the payment history.
	totalPaid := LedgerTotalPaid(*c, payments)
	status := c.Status
	if c.Settled(totalPaid) {
		status = StatusCompleted
	}

	if err = s.repo.UpdateCreditTotalsInTx(ctx, tx, creditID, totalPaid, status); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update credit totals", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: could not update credit totals: %v", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit payment transaction", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: could not commit transaction: %v", apperrors.ErrInternalServer, err)
	}

	monitoring.RecordPayment("success")
	s.logger.InfoContext(ctx, "Payment registered", "creditID", creditID, "paymentID", created.ID, "newStatus", string(status))
	return created, nil
}

func (s *serviceImpl) WriteOff(ctx context.Context, creditID int64) error {
	c, err := s.GetCredit(ctx, creditID)
	if err != nil {
		return err
	}
	if c.Status == StatusLost {
		return fmt.Errorf("%w (creditID: %d)", apperrors.ErrCreditWrittenOff, creditID)
	}
	if err := s.repo.UpdateCreditStatus(ctx, creditID, StatusLost); err != nil {
		s.logger.ErrorContext(ctx, "Failed to write off credit", "creditID", creditID, "error", err)
		return fmt.Errorf("%w: could not write off credit %d: %v", apperrors.ErrInternalServer, creditID, err)
	}
	s.logger.InfoContext(ctx, "Credit written off", "creditID", creditID)
	return nil
}
