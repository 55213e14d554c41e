package credit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateCredit(ctx context.Context, c *Credit) (*Credit, error)

	GetCreditByID(ctx context.Context, creditID int64) (*Credit, error)

	GetPaymentsByCreditID(ctx context.Context, creditID int64) ([]Payment, error)

	GetOpenCreditsByRoute(ctx context.Context, routeID int64) ([]Credit, error)

	GetPaymentsByRoute(ctx context.Context, routeID int64) ([]Payment, error)

	InsertPaymentInTx(ctx context.Context, tx pgx.Tx, creditID int64, date time.Time, amount decimal.Decimal) (*Payment, error)

	UpdateCreditTotalsInTx(ctx context.Context, tx pgx.Tx, creditID int64, totalPaid decimal.Decimal, status Status) error

	UpdateCreditStatus(ctx context.Context, creditID int64, status Status) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
