package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/schedule"
	"cobro-engine/internal/infrastructure/monitoring"
	"cobro-engine/internal/pkg/apperrors"
)

// LiquidationCache is an optional read-through cache for reconciled ledgers.
// Liquidations are pure functions of an immutable event set, so a cached
// entry only goes stale when new events land; a short TTL is enough.
type LiquidationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// VisitEntry pairs a client with the arrears assessment of their credit for
// the collector's daily list.
type VisitEntry struct {
	Client     client.Client
	Assessment credit.Assessment
}

type Service interface {
	GetRoute(ctx context.Context, routeID int64) (*Route, error)

	// Liquidate reconciles the route's cash position over [from, to].
	Liquidate(ctx context.Context, routeID int64, from, to time.Time) (*Liquidation, error)

	// CollectionList assesses every active credit on the route for one day,
	// in visit-category terms. One corrupt credit degrades with warnings,
	// never sinks the list.
	CollectionList(ctx context.Context, routeID int64, date time.Time) ([]VisitEntry, error)

	RegisterExpense(ctx context.Context, routeID int64, date time.Time, value Expense) (*Expense, error)

	RegisterTransaction(ctx context.Context, routeID int64, txType TransactionType, t Transaction) (*Transaction, error)
}

type serviceImpl struct {
	repo     Repository
	cache    LiquidationCache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewService builds the route service. cache may be nil, in which case every
// liquidation is recomputed.
func NewService(repo Repository, cache LiquidationCache, cacheTTL time.Duration, logger *slog.Logger) Service {
	return &serviceImpl{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "RouteService"),
	}
}

func (s *serviceImpl) GetRoute(ctx context.Context, routeID int64) (*Route, error) {
	r, err := s.repo.GetRoute(ctx, routeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: route %d not found", apperrors.ErrNotFound, routeID)
		}
		s.logger.ErrorContext(ctx, "Failed to get route", "routeID", routeID, "error", err)
		return nil, fmt.Errorf("%w: failed to get route %d: %v", apperrors.ErrInternalServer, routeID, err)
	}
	return r, nil
}

func liquidationCacheKey(routeID int64, from, to time.Time) string {
	return fmt.Sprintf("liquidation:%d:%s:%s",
		routeID,
		schedule.DateOnly(from).Format("2006-01-02"),
		schedule.DateOnly(to).Format("2006-01-02"))
}

func (s *serviceImpl) Liquidate(ctx context.Context, routeID int64, from, to time.Time) (*Liquidation, error) {
	if _, err := s.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}

	key := liquidationCacheKey(routeID, from, to)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached Liquidation
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				monitoring.RecordCacheLookup("hit")
				monitoring.RecordLiquidation("cache")
				return &cached, nil
			}
			s.logger.WarnContext(ctx, "Discarding unreadable cached liquidation", "key", key)
		}
		monitoring.RecordCacheLookup("miss")
	}

	snap, err := s.repo.GetSnapshot(ctx, routeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load route snapshot", "routeID", routeID, "error", err)
		return nil, fmt.Errorf("%w: failed to load snapshot for route %d: %v", apperrors.ErrInternalServer, routeID, err)
	}

	liq := Reconcile(*snap, from, to)
	monitoring.RecordLiquidation("computed")

	if s.cache != nil {
		if raw, err := json.Marshal(liq); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
				s.logger.WarnContext(ctx, "Failed to cache liquidation", "key", key, "error", err)
			}
		}
	}
	return &liq, nil
}

func (s *serviceImpl) CollectionList(ctx context.Context, routeID int64, date time.Time) ([]VisitEntry, error) {
	if _, err := s.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}

	snap, err := s.repo.GetSnapshot(ctx, routeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load route snapshot", "routeID", routeID, "error", err)
		return nil, fmt.Errorf("%w: failed to load snapshot for route %d: %v", apperrors.ErrInternalServer, routeID, err)
	}

	creditsByClient := make(map[int64][]credit.Credit, len(snap.Credits))
	for _, c := range snap.Credits {
		creditsByClient[c.ClientID] = append(creditsByClient[c.ClientID], c)
	}

	entries := make([]VisitEntry, 0, len(snap.Clients))
	for _, cl := range snap.Clients {
		if !cl.Active {
			continue
		}
		for _, c := range creditsByClient[cl.ClientID] {
			if c.Status == credit.StatusCompleted {
				continue
			}
			a := credit.Assess(c, snap.Payments, date)
			monitoring.RecordAssessment(string(a.Category))
			for _, w := range a.Warnings {
				s.logger.WarnContext(ctx, "Data quality warning in collection list", "routeID", routeID, "creditID", c.ID, "warning", w)
			}
			entries = append(entries, VisitEntry{Client: cl, Assessment: a})
		}
	}
	return entries, nil
}

func (s *serviceImpl) RegisterExpense(ctx context.Context, routeID int64, date time.Time, e Expense) (*Expense, error) {
	if !e.Value.IsPositive() {
		return nil, apperrors.NewValidationError("value", "expense value must be greater than zero")
	}
	if _, err := s.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}
	e.RouteID = routeID
	e.Date = schedule.DateOnly(date)
	created, err := s.repo.InsertExpense(ctx, &e)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert expense", "routeID", routeID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert expense: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Expense registered", "routeID", routeID, "expenseID", created.ID)
	return created, nil
}

func (s *serviceImpl) RegisterTransaction(ctx context.Context, routeID int64, txType TransactionType, t Transaction) (*Transaction, error) {
	if !txType.Valid() {
		return nil, apperrors.NewValidationError("type", fmt.Sprintf("unknown transaction type %q", txType))
	}
	if !t.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("amount", "transaction amount must be greater than zero")
	}
	if _, err := s.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}

	if txType == TransactionInitialBase {
		exists, err := s.repo.HasInitialBase(ctx, routeID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to check opening float: %v", apperrors.ErrInternalServer, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: route %d already has an opening float", apperrors.ErrConflict, routeID)
		}
	}

	t.RouteID = routeID
	t.Type = txType
	t.Date = schedule.DateOnly(t.Date)
	created, err := s.repo.InsertTransaction(ctx, &t)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert transaction", "routeID", routeID, "type", string(txType), "error", err)
		return nil, fmt.Errorf("%w: failed to insert transaction: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Capital transaction registered", "routeID", routeID, "transactionID", created.ID, "type", string(txType))
	return created, nil
}
