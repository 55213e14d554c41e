package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

type CreditRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ credit.Repository = (*CreditRepository)(nil)

func NewCreditRepository(db DBPool, logger *slog.Logger) *CreditRepository {
	return &CreditRepository{db: db, logger: logger.With("component", "CreditRepository")}
}

func (r *CreditRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *CreditRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *CreditRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

const creditColumns = `id, client_id, capital, total_to_pay, installment_value, total_installments, total_paid, frequency, start_date, first_payment_date, status, created_at, updated_at`

func scanCredit(row pgx.Row) (*credit.Credit, error) {
	var c credit.Credit
	err := row.Scan(
		&c.ID, &c.ClientID, &c.Capital, &c.TotalToPay, &c.InstallmentValue,
		&c.TotalInstallments, &c.TotalPaid, &c.Frequency, &c.StartDate,
		&c.FirstPaymentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CreditRepository) CreateCredit(ctx context.Context, c *credit.Credit) (*credit.Credit, error) {
	start := time.Now()
	sql := `
        INSERT INTO credits (client_id, capital, total_to_pay, installment_value, total_installments, total_paid, frequency, start_date, first_payment_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING ` + creditColumns

	created, err := scanCredit(r.db.QueryRow(ctx, sql,
		c.ClientID, c.Capital, c.TotalToPay, c.InstallmentValue, c.TotalInstallments,
		c.TotalPaid, c.Frequency, c.StartDate, c.FirstPaymentDate, c.Status,
	))
	if err != nil {
		monitoring.RecordDBQuery("create_credit", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert credit", "error", err)
		return nil, fmt.Errorf("%w: failed to insert credit: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("create_credit", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Credit created in DB", "credit_id", created.ID)
	return created, nil
}

func (r *CreditRepository) GetCreditByID(ctx context.Context, creditID int64) (*credit.Credit, error) {
	start := time.Now()
	sql := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1`

	c, err := scanCredit(r.db.QueryRow(ctx, sql, creditID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_credit", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: credit %d", apperrors.ErrNotFound, creditID)
		}
		monitoring.RecordDBQuery("get_credit", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query credit", "credit_id", creditID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("get_credit", "success", time.Since(start))
	return c, nil
}

func (r *CreditRepository) GetPaymentsByCreditID(ctx context.Context, creditID int64) ([]credit.Payment, error) {
	start := time.Now()
	sql := `
        SELECT id, credit_id, date, amount, created_at
        FROM payments
        WHERE credit_id = $1
        ORDER BY date, id`

	rows, err := r.db.Query(ctx, sql, creditID)
	if err != nil {
		monitoring.RecordDBQuery("get_payments", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query payments", "credit_id", creditID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]credit.Payment, 0)
	for rows.Next() {
		var p credit.Payment
		if err := rows.Scan(&p.ID, &p.CreditID, &p.Date, &p.Amount, &p.CreatedAt); err != nil {
			monitoring.RecordDBQuery("get_payments", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("get_payments", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("get_payments", "success", time.Since(start))
	return payments, nil
}

// GetOpenCreditsByRoute loads the route's credits that are not yet settled.
// Written-off credits stay in the result; their residual still shows up on the
// collector's list.
func (r *CreditRepository) GetOpenCreditsByRoute(ctx context.Context, routeID int64) ([]credit.Credit, error) {
	start := time.Now()
	sql := `
        SELECT c.id, c.client_id, c.capital, c.total_to_pay, c.installment_value, c.total_installments, c.total_paid, c.frequency, c.start_date, c.first_payment_date, c.status, c.created_at, c.updated_at
        FROM credits c
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1 AND c.status <> $2
        ORDER BY c.id`

	rows, err := r.db.Query(ctx, sql, routeID, credit.StatusCompleted)
	if err != nil {
		monitoring.RecordDBQuery("get_open_credits_by_route", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query open credits", "route_id", routeID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	credits := make([]credit.Credit, 0)
	for rows.Next() {
		var c credit.Credit
		if err := rows.Scan(
			&c.ID, &c.ClientID, &c.Capital, &c.TotalToPay, &c.InstallmentValue,
			&c.TotalInstallments, &c.TotalPaid, &c.Frequency, &c.StartDate,
			&c.FirstPaymentDate, &c.Status, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			monitoring.RecordDBQuery("get_open_credits_by_route", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("get_open_credits_by_route", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("get_open_credits_by_route", "success", time.Since(start))
	return credits, nil
}

func (r *CreditRepository) GetPaymentsByRoute(ctx context.Context, routeID int64) ([]credit.Payment, error) {
	start := time.Now()
	sql := `
        SELECT p.id, p.credit_id, p.date, p.amount, p.created_at
        FROM payments p
        JOIN credits c ON c.id = p.credit_id
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1
        ORDER BY p.date, p.id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_payments_by_route", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query route payments", "route_id", routeID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]credit.Payment, 0)
	for rows.Next() {
		var p credit.Payment
		if err := rows.Scan(&p.ID, &p.CreditID, &p.Date, &p.Amount, &p.CreatedAt); err != nil {
			monitoring.RecordDBQuery("get_payments_by_route", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("get_payments_by_route", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("get_payments_by_route", "success", time.Since(start))
	return payments, nil
}

func (r *CreditRepository) InsertPaymentInTx(ctx context.Context, tx pgx.Tx, creditID int64, date time.Time, amount decimal.Decimal) (*credit.Payment, error) {
	start := time.Now()
	sql := `
        INSERT INTO payments (credit_id, date, amount, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, credit_id, date, amount, created_at`

	var p credit.Payment
	err := tx.QueryRow(ctx, sql, creditID, date, amount).Scan(&p.ID, &p.CreditID, &p.Date, &p.Amount, &p.CreatedAt)
	if err != nil {
		monitoring.RecordDBQuery("insert_payment", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert payment", "credit_id", creditID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert payment: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("insert_payment", "success", time.Since(start))
	return &p, nil
}

func (r *CreditRepository) UpdateCreditTotalsInTx(ctx context.Context, tx pgx.Tx, creditID int64, totalPaid decimal.Decimal, status credit.Status) error {
	start := time.Now()
	sql := `UPDATE credits SET total_paid = $1, status = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, sql, totalPaid, status, creditID)
	if err != nil {
		monitoring.RecordDBQuery("update_credit_totals", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update credit totals", "credit_id", creditID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("update_credit_totals", "not_found", time.Since(start))
		return fmt.Errorf("%w: credit %d", apperrors.ErrNotFound, creditID)
	}
	monitoring.RecordDBQuery("update_credit_totals", "success", time.Since(start))
	return nil
}

func (r *CreditRepository) UpdateCreditStatus(ctx context.Context, creditID int64, status credit.Status) error {
	start := time.Now()
	sql := `UPDATE credits SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.db.Exec(ctx, sql, status, creditID)
	if err != nil {
		monitoring.RecordDBQuery("update_credit_status", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update credit status", "credit_id", creditID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("update_credit_status", "not_found", time.Since(start))
		return fmt.Errorf("%w: credit %d", apperrors.ErrNotFound, creditID)
	}
	monitoring.RecordDBQuery("update_credit_status", "success", time.Since(start))
	return nil
}
