package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

type ClientRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ client.Repository = (*ClientRepository)(nil)

func NewClientRepository(db DBPool, logger *slog.Logger) *ClientRepository {
	return &ClientRepository{db: db, logger: logger.With("component", "ClientRepository")}
}

const clientColumns = `id, route_id, name, address, in_arrears, active, credit_id, created_at, updated_at`

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ClientID, &c.RouteID, &c.Name, &c.Address, &c.InArrears, &c.Active, &c.CreditID, &c.CreateDate, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *client.Client) error {
	start := time.Now()
	sql := `
        INSERT INTO clients (route_id, name, address, in_arrears, active, credit_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, sql, c.RouteID, c.Name, c.Address, c.InArrears, c.Active, c.CreditID).
		Scan(&c.ClientID, &c.CreateDate, &c.UpdatedAt)
	if err != nil {
		monitoring.RecordDBQuery("save_client", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert client", "error", err)
		return fmt.Errorf("%w: failed to insert client: %w", apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("save_client", "success", time.Since(start))
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, clientID int64) (*client.Client, error) {
	start := time.Now()
	sql := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	c, err := scanClient(r.db.QueryRow(ctx, sql, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("find_client", "not_found", time.Since(start))
			return nil, client.ErrNotFound
		}
		monitoring.RecordDBQuery("find_client", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query client", "client_id", clientID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("find_client", "success", time.Since(start))
	return c, nil
}

func (r *ClientRepository) FindByCreditID(ctx context.Context, creditID int64) (*client.Client, error) {
	start := time.Now()
	sql := `SELECT ` + clientColumns + ` FROM clients WHERE credit_id = $1`

	c, err := scanClient(r.db.QueryRow(ctx, sql, creditID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("find_client_by_credit", "not_found", time.Since(start))
			return nil, client.ErrNotFound
		}
		monitoring.RecordDBQuery("find_client_by_credit", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to query client by credit", "credit_id", creditID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("find_client_by_credit", "success", time.Since(start))
	return c, nil
}

func (r *ClientRepository) ListByRoute(ctx context.Context, routeID int64) ([]client.Client, error) {
	start := time.Now()
	sql := `SELECT ` + clientColumns + ` FROM clients WHERE route_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, sql, routeID)
	if err != nil {
		monitoring.RecordDBQuery("list_clients_by_route", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to list clients", "route_id", routeID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	clients := make([]client.Client, 0)
	for rows.Next() {
		var c client.Client
		if err := rows.Scan(&c.ClientID, &c.RouteID, &c.Name, &c.Address, &c.InArrears, &c.Active, &c.CreditID, &c.CreateDate, &c.UpdatedAt); err != nil {
			monitoring.RecordDBQuery("list_clients_by_route", "error", time.Since(start))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		monitoring.RecordDBQuery("list_clients_by_route", "error", time.Since(start))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	monitoring.RecordDBQuery("list_clients_by_route", "success", time.Since(start))
	return clients, nil
}

func (r *ClientRepository) UpdateArrearsStatus(ctx context.Context, clientID int64, inArrears bool) error {
	start := time.Now()
	sql := `UPDATE clients SET in_arrears = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.db.Exec(ctx, sql, inArrears, clientID)
	if err != nil {
		monitoring.RecordDBQuery("update_client_arrears", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update client arrears flag", "client_id", clientID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("update_client_arrears", "not_found", time.Since(start))
		return client.ErrNotFound
	}
	monitoring.RecordDBQuery("update_client_arrears", "success", time.Since(start))
	return nil
}

func (r *ClientRepository) UpdateAssignedCredit(ctx context.Context, clientID int64, creditID *int64) error {
	start := time.Now()
	sql := `UPDATE clients SET credit_id = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.db.Exec(ctx, sql, creditID, clientID)
	if err != nil {
		monitoring.RecordDBQuery("update_client_credit", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update client credit assignment", "client_id", clientID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if tag.RowsAffected() == 0 {
		monitoring.RecordDBQuery("update_client_credit", "not_found", time.Since(start))
		return client.ErrNotFound
	}
	monitoring.RecordDBQuery("update_client_credit", "success", time.Since(start))
	return nil
}
