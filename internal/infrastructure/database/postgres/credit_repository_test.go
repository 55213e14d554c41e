package postgres

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/schedule"
	"cobro-engine/internal/pkg/apperrors"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const pgxmockExpectationsNotMetMsg = "pgxmock expectations were not met"

var creditColumnNames = []string{
	"id", "client_id", "capital", "total_to_pay", "installment_value",
	"total_installments", "total_paid", "frequency", "start_date",
	"first_payment_date", "status", "created_at", "updated_at",
}

func testCredit() *credit.Credit {
	c, err := credit.NewCredit(10,
		decimal.RequireFromString("100000"),
		decimal.RequireFromString("0.2"),
		30, schedule.FrequencyDaily,
		time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		panic(err)
	}
	c.ID = 1
	return c
}

func creditRow(c *credit.Credit) *pgxmock.Rows {
	return pgxmock.NewRows(creditColumnNames).AddRow(
		c.ID, c.ClientID, c.Capital, c.TotalToPay, c.InstallmentValue,
		c.TotalInstallments, c.TotalPaid, c.Frequency, c.StartDate,
		c.FirstPaymentDate, c.Status, c.CreatedAt, c.UpdatedAt,
	)
}

func setupCreditRepo(t *testing.T) (context.Context, *CreditRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCreditRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestCreateCreditWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	c := testCredit()
	query := `
        INSERT INTO credits (client_id, capital, total_to_pay, installment_value, total_installments, total_paid, frequency, start_date, first_payment_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
        RETURNING ` + creditColumns

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(
		c.ClientID, c.Capital, c.TotalToPay, c.InstallmentValue, c.TotalInstallments,
		c.TotalPaid, c.Frequency, c.StartDate, c.FirstPaymentDate, c.Status,
	).WillReturnRows(creditRow(c))

	created, err := repo.CreateCredit(ctx, c)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetCreditByIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	c := testCredit()
	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1`

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(c.ID).WillReturnRows(creditRow(c))

	found, err := repo.GetCreditByID(ctx, c.ID)
	assert.NoError(t, err)
	assert.Equal(t, c.ClientID, found.ClientID)
	assert.True(t, c.TotalToPay.Equal(found.TotalToPay))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetCreditByIDWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	query := `SELECT ` + creditColumns + ` FROM credits WHERE id = $1`
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(99)).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetCreditByID(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetPaymentsByCreditIDWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	query := `
        SELECT id, credit_id, date, amount, created_at
        FROM payments
        WHERE credit_id = $1
        ORDER BY date, id`

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "credit_id", "date", "amount", "created_at"}).
		AddRow(int64(1), int64(1), time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("4000"), now).
		AddRow(int64(2), int64(1), time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("4000"), now)

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1)).WillReturnRows(rows)

	payments, err := repo.GetPaymentsByCreditID(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.True(t, decimal.RequireFromString("4000").Equal(payments[0].Amount))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetOpenCreditsByRouteWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	query := `
        SELECT c.id, c.client_id, c.capital, c.total_to_pay, c.installment_value, c.total_installments, c.total_paid, c.frequency, c.start_date, c.first_payment_date, c.status, c.created_at, c.updated_at
        FROM credits c
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1 AND c.status <> $2
        ORDER BY c.id`

	active := testCredit()
	written := testCredit()
	written.ID = 2
	written.ClientID = 11
	written.Status = credit.StatusLost

	rows := creditRow(active).AddRow(
		written.ID, written.ClientID, written.Capital, written.TotalToPay, written.InstallmentValue,
		written.TotalInstallments, written.TotalPaid, written.Frequency, written.StartDate,
		written.FirstPaymentDate, written.Status, written.CreatedAt, written.UpdatedAt,
	)

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1), credit.StatusCompleted).
		WillReturnRows(rows)

	credits, err := repo.GetOpenCreditsByRoute(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, credits, 2)
	assert.Equal(t, credit.StatusActive, credits[0].Status)
	// Written-off credits are still open books for the collector.
	assert.Equal(t, credit.StatusLost, credits[1].Status)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestGetPaymentsByRouteWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	query := `
        SELECT p.id, p.credit_id, p.date, p.amount, p.created_at
        FROM payments p
        JOIN credits c ON c.id = p.credit_id
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1
        ORDER BY p.date, p.id`

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "credit_id", "date", "amount", "created_at"}).
		AddRow(int64(1), int64(1), time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("4000"), now).
		AddRow(int64(2), int64(3), time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("8000"), now)

	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1)).WillReturnRows(rows)

	payments, err := repo.GetPaymentsByRoute(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, payments, 2)
	assert.Equal(t, int64(3), payments[1].CreditID)
	assert.True(t, decimal.RequireFromString("8000").Equal(payments[1].Amount))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestInsertPaymentInTxWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	date := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("4000")

	query := `
        INSERT INTO payments (credit_id, date, amount, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, credit_id, date, amount, created_at`

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(int64(1), date, amount).
		WillReturnRows(pgxmock.NewRows([]string{"id", "credit_id", "date", "amount", "created_at"}).
			AddRow(int64(7), int64(1), date, amount, time.Now()))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	assert.NoError(t, err)

	p, err := repo.InsertPaymentInTx(ctx, tx, 1, date, amount)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)

	assert.NoError(t, repo.CommitTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateCreditStatusWhenNotFound(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	query := `UPDATE credits SET status = $1, updated_at = NOW() WHERE id = $2`
	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(credit.StatusLost, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateCreditStatus(ctx, 99, credit.StatusLost)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateCreditTotalsInTxWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCreditRepo(t)
	defer mockPool.Close()

	total := decimal.RequireFromString("8000")
	query := `UPDATE credits SET total_paid = $1, status = $2, updated_at = NOW() WHERE id = $3`

	mockPool.ExpectBegin()
	mockPool.ExpectExec(regexp.QuoteMeta(query)).WithArgs(total, credit.StatusActive, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockPool.ExpectCommit()

	tx, err := repo.BeginTx(ctx)
	assert.NoError(t, err)

	assert.NoError(t, repo.UpdateCreditTotalsInTx(ctx, tx, 1, total, credit.StatusActive))
	assert.NoError(t, repo.CommitTx(ctx, tx))
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}
