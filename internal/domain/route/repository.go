package route

import "context"

type Repository interface {
	GetRoute(ctx context.Context, routeID int64) (*Route, error)

	ListRouteIDs(ctx context.Context) ([]int64, error)

	// GetSnapshot assembles the full immutable event set of a route in one
	// read: clients, credits, payments, expenses, capital transactions.
	GetSnapshot(ctx context.Context, routeID int64) (*Snapshot, error)

	InsertExpense(ctx context.Context, e *Expense) (*Expense, error)

	InsertTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)

	HasInitialBase(ctx context.Context, routeID int64) (bool, error)
}
