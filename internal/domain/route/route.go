package route

import (
	"time"

	"github.com/shopspring/decimal"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
)

// Route is a collection territory worked by one collector. Its cash position
// is never stored; it is always reconciled from the event history.
type Route struct {
	ID        int64
	Name      string
	Collector string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expense is a cash outflow charged against a route (fuel, meals, fines).
// Immutable once created.
type Expense struct {
	ID       int64
	RouteID  int64
	Date     time.Time
	Value    decimal.Decimal
	Category string
}

type TransactionType string

const (
	// TransactionInitialBase is the route's opening float, created once.
	TransactionInitialBase TransactionType = "INITIAL_BASE"
	TransactionInjection   TransactionType = "INJECTION"
	TransactionWithdrawal  TransactionType = "WITHDRAWAL"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionInitialBase, TransactionInjection, TransactionWithdrawal:
		return true
	}
	return false
}

// Transaction is a route-level capital movement. Append-only.
type Transaction struct {
	ID      int64
	RouteID int64
	Type    TransactionType
	Amount  decimal.Decimal
	Date    time.Time
}

// Snapshot is the immutable per-route event set the ledger reconciles over.
// The store assembles it in one read; computations never mutate it, so
// concurrent recomputation over distinct snapshots is safe.
type Snapshot struct {
	RouteID      int64
	Clients      []client.Client
	Credits      []credit.Credit
	Payments     []credit.Payment
	Expenses     []Expense
	Transactions []Transaction
}

// clientIDs returns the set of clients belonging to the snapshot's route.
func (s Snapshot) clientIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(s.Clients))
	for _, c := range s.Clients {
		if c.RouteID == s.RouteID {
			ids[c.ClientID] = struct{}{}
		}
	}
	return ids
}

// routeCredits returns the credits disbursed to the route's clients, keyed
// by credit ID.
func (s Snapshot) routeCredits() map[int64]credit.Credit {
	clients := s.clientIDs()
	credits := make(map[int64]credit.Credit, len(s.Credits))
	for _, c := range s.Credits {
		if _, ok := clients[c.ClientID]; ok {
			credits[c.ID] = c
		}
	}
	return credits
}
