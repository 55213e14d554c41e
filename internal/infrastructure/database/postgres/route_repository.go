package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/route"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

type RouteRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ route.Repository = (*RouteRepository)(nil)

func NewRouteRepository(db DBPool, logger *slog.Logger) *RouteRepository {
	return &RouteRepository{db: db, logger: logger.With("component", "RouteRepository")}
}

func (r *RouteRepository) GetRoute(ctx context.Context, routeID int64) (*route.Route, error) {
	start := time.Now()
	sql := `SELECT id, name, collector, active, created_at, updated_at FROM routes WHERE id = $1`

	var rt route.Route
	err := r.db.QueryRow(ctx, sql, routeID).Scan(&rt.ID, &rt.Name, &rt.Collector, &rt.Active, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("get_route", "not_found", time.Since(start))
			return nil, fmt.Errorf("%w: route %d", apperrors.ErrNotFound, routeID)
		}
		monitoring.RecordDBQuery("get_route", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query route", "route_id", routeID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("get_route", "success", time.Since(start))
	return &rt, nil
}

func (r *RouteRepository) ListRouteIDs(ctx context.Context) ([]int64, error) {
	start := time.Now()
	sql := `SELECT id FROM routes WHERE active ORDER BY id`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		monitoring.RecordDBQuery("list_route_ids", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to list route IDs", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			monitoring.RecordDBQuery("list_route_ids", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_route_ids", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("list_route_ids", "success", time.Since(start))
	return ids, nil
}

// GetSnapshot loads the route's full event history in one pass. The result
// is handed to the pure reconciliation and assessment functions and is never
// written back.
func (r *RouteRepository) GetSnapshot(ctx context.Context, routeID int64) (*route.Snapshot, error) {
	start := time.Now()

	snap := &route.Snapshot{RouteID: routeID}

	clients, err := r.loadClients(ctx, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_snapshot", "error", time.Since(start))
		return nil, err
	}
	snap.Clients = clients

	credits, err := r.loadCredits(ctx, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_snapshot", "error", time.Since(start))
		return nil, err
	}
	snap.Credits = credits

	payments, err := r.loadPayments(ctx, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_snapshot", "error", time.Since(start))
		return nil, err
	}
	snap.Payments = payments

	expenses, err := r.loadExpenses(ctx, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_snapshot", "error", time.Since(start))
		return nil, err
	}
	snap.Expenses = expenses

	transactions, err := r.loadTransactions(ctx, routeID)
	if err != nil {
		monitoring.RecordDBQuery("get_snapshot", "error", time.Since(start))
		return nil, err
	}
	snap.Transactions = transactions

	monitoring.RecordDBQuery("get_snapshot", "success", time.Since(start))
	return snap, nil
}

func (r *RouteRepository) loadClients(ctx context.Context, routeID int64) ([]client.Client, error) {
	sql := `
        SELECT id, route_id, name, address, in_arrears, active, credit_id, created_at, updated_at
        FROM clients WHERE route_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	clients := make([]client.Client, 0)
	for rows.Next() {
		var c client.Client
		if err := rows.Scan(&c.ClientID, &c.RouteID, &c.Name, &c.Address, &c.InArrears, &c.Active, &c.CreditID, &c.CreateDate, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *RouteRepository) loadCredits(ctx context.Context, routeID int64) ([]credit.Credit, error) {
	sql := `
        SELECT c.id, c.client_id, c.capital, c.total_to_pay, c.installment_value, c.total_installments, c.total_paid, c.frequency, c.start_date, c.first_payment_date, c.status, c.created_at, c.updated_at
        FROM credits c
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1
        ORDER BY c.id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
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
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		credits = append(credits, c)
	}
	return credits, rows.Err()
}

func (r *RouteRepository) loadPayments(ctx context.Context, routeID int64) ([]credit.Payment, error) {
	sql := `
        SELECT p.id, p.credit_id, p.date, p.amount, p.created_at
        FROM payments p
        JOIN credits c ON c.id = p.credit_id
        JOIN clients cl ON cl.id = c.client_id
        WHERE cl.route_id = $1
        ORDER BY p.date, p.id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]credit.Payment, 0)
	for rows.Next() {
		var p credit.Payment
		if err := rows.Scan(&p.ID, &p.CreditID, &p.Date, &p.Amount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *RouteRepository) loadExpenses(ctx context.Context, routeID int64) ([]route.Expense, error) {
	sql := `SELECT id, route_id, date, value, category FROM expenses WHERE route_id = $1 ORDER BY date, id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	expenses := make([]route.Expense, 0)
	for rows.Next() {
		var e route.Expense
		if err := rows.Scan(&e.ID, &e.RouteID, &e.Date, &e.Value, &e.Category); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *RouteRepository) loadTransactions(ctx context.Context, routeID int64) ([]route.Transaction, error) {
	sql := `SELECT id, route_id, type, amount, date FROM route_transactions WHERE route_id = $1 ORDER BY date, id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	transactions := make([]route.Transaction, 0)
	for rows.Next() {
		var t route.Transaction
		if err := rows.Scan(&t.ID, &t.RouteID, &t.Type, &t.Amount, &t.Date); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (r *RouteRepository) InsertExpense(ctx context.Context, e *route.Expense) (*route.Expense, error) {
	start := time.Now()
	sql := `
        INSERT INTO expenses (route_id, date, value, category)
        VALUES ($1, $2, $3, $4)
        RETURNING id, route_id, date, value, category`

	var created route.Expense
	err := r.db.QueryRow(ctx, sql, e.RouteID, e.Date, e.Value, e.Category).
		Scan(&created.ID, &created.RouteID, &created.Date, &created.Value, &created.Category)
	if err != nil {
		monitoring.RecordDBQuery("insert_expense", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert expense", "route_id", e.RouteID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert expense: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("insert_expense", "success", time.Since(start))
	return &created, nil
}

func (r *RouteRepository) InsertTransaction(ctx context.Context, t *route.Transaction) (*route.Transaction, error) {
	start := time.Now()
	sql := `
        INSERT INTO route_transactions (route_id, type, amount, date)
        VALUES ($1, $2, $3, $4)
        RETURNING id, route_id, type, amount, date`

	var created route.Transaction
	err := r.db.QueryRow(ctx, sql, t.RouteID, t.Type, t.Amount, t.Date).
		Scan(&created.ID, &created.RouteID, &created.Type, &created.Amount, &created.Date)
	if err != nil {
		monitoring.RecordDBQuery("insert_transaction", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert transaction", "route_id", t.RouteID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert transaction: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("insert_transaction", "success", time.Since(start))
	return &created, nil
}

func (r *RouteRepository) HasInitialBase(ctx context.Context, routeID int64) (bool, error) {
	start := time.Now()
	sql := `SELECT EXISTS(SELECT 1 FROM route_transactions WHERE route_id = $1 AND type = $2)`

	var exists bool
	err := r.db.QueryRow(ctx, sql, routeID, route.TransactionInitialBase).Scan(&exists)
	if err != nil {
		monitoring.RecordDBQuery("has_initial_base", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to check opening float", "route_id", routeID, "error", err)
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("has_initial_base", "success", time.Since(start))
	return exists, nil
}
