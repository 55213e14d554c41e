package route_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cobro-engine/internal/domain/client"
	"cobro-engine/internal/domain/credit"
	"cobro-engine/internal/domain/route"
	"cobro-engine/internal/pkg/apperrors"
)

type MockRouteRepository struct {
	mock.Mock
}

func (m *MockRouteRepository) GetRoute(ctx context.Context, routeID int64) (*route.Route, error) {
	args := m.Called(ctx, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Route), args.Error(1)
}

func (m *MockRouteRepository) ListRouteIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockRouteRepository) GetSnapshot(ctx context.Context, routeID int64) (*route.Snapshot, error) {
	args := m.Called(ctx, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Snapshot), args.Error(1)
}

func (m *MockRouteRepository) InsertExpense(ctx context.Context, e *route.Expense) (*route.Expense, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Expense), args.Error(1)
}

func (m *MockRouteRepository) InsertTransaction(ctx context.Context, tx *route.Transaction) (*route.Transaction, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*route.Transaction), args.Error(1)
}

func (m *MockRouteRepository) HasInitialBase(ctx context.Context, routeID int64) (bool, error) {
	args := m.Called(ctx, routeID)
	return args.Bool(0), args.Error(1)
}

type MockLiquidationCache struct {
	mock.Mock
}

func (m *MockLiquidationCache) Get(ctx context.Context, key string) (string, bool) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1)
}

func (m *MockLiquidationCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func num(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serviceSnapshot() *route.Snapshot {
	start := day(2026, time.January, 5)
	active, _ := credit.NewCredit(10, num("100000"), num("0.2"), 30, "DAILY", start, nil)
	active.ID = 100
	completed, _ := credit.NewCredit(11, num("50000"), num("0.2"), 30, "DAILY", start, nil)
	completed.ID = 101
	completed.Status = credit.StatusCompleted

	return &route.Snapshot{
		RouteID: 1,
		Clients: []client.Client{
			{ClientID: 10, RouteID: 1, Name: "Marta", Active: true},
			{ClientID: 11, RouteID: 1, Name: "Pedro", Active: true},
			{ClientID: 12, RouteID: 1, Name: "Luisa", Active: false},
		},
		Credits: []credit.Credit{*active, *completed},
		Transactions: []route.Transaction{
			{ID: 1, RouteID: 1, Type: route.TransactionInitialBase, Amount: num("500000"), Date: day(2026, time.January, 2)},
		},
	}
}

func TestLiquidate(t *testing.T) {
	ctx := context.Background()
	from, to := day(2026, time.January, 2), day(2026, time.January, 31)

	t.Run("should recompute on cache miss and store the result", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		mockCache := new(MockLiquidationCache)
		svc := route.NewService(mockRepo, mockCache, 5*time.Minute, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1, Name: "Centro"}, nil)
		mockCache.On("Get", ctx, "liquidation:1:2026-01-02:2026-01-31").Return("", false)
		mockRepo.On("GetSnapshot", ctx, int64(1)).Return(serviceSnapshot(), nil)
		mockCache.On("Set", ctx, "liquidation:1:2026-01-02:2026-01-31", mock.Anything, 5*time.Minute).Return(nil)

		liq, err := svc.Liquidate(ctx, 1, from, to)

		assert.NoError(t, err)
		assert.True(t, num("500000").Equal(liq.StartingBase))
		// Both credits disbursed inside the window.
		assert.True(t, num("150000").Equal(liq.NewLoans))
		mockRepo.AssertExpectations(t)
		mockCache.AssertExpectations(t)
	})

	t.Run("should serve a cached liquidation without touching the snapshot", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		mockCache := new(MockLiquidationCache)
		svc := route.NewService(mockRepo, mockCache, 5*time.Minute, testLogger())

		cached := route.Liquidation{RouteID: 1, StartingBase: num("500000"), Balance: num("350000")}
		raw, _ := json.Marshal(cached)

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockCache.On("Get", ctx, "liquidation:1:2026-01-02:2026-01-31").Return(string(raw), true)

		liq, err := svc.Liquidate(ctx, 1, from, to)

		assert.NoError(t, err)
		assert.True(t, num("350000").Equal(liq.Balance))
		mockRepo.AssertNotCalled(t, "GetSnapshot", mock.Anything, mock.Anything)
	})

	t.Run("should recompute when the cached entry is unreadable", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		mockCache := new(MockLiquidationCache)
		svc := route.NewService(mockRepo, mockCache, 5*time.Minute, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockCache.On("Get", ctx, mock.Anything).Return("{not json", true)
		mockRepo.On("GetSnapshot", ctx, int64(1)).Return(serviceSnapshot(), nil)
		mockCache.On("Set", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		liq, err := svc.Liquidate(ctx, 1, from, to)

		assert.NoError(t, err)
		assert.True(t, num("500000").Equal(liq.StartingBase))
	})

	t.Run("should work without a cache", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("GetSnapshot", ctx, int64(1)).Return(serviceSnapshot(), nil)

		liq, err := svc.Liquidate(ctx, 1, from, to)

		assert.NoError(t, err)
		assert.NotNil(t, liq)
	})

	t.Run("should return not found for an unknown route", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(99)).Return(nil, apperrors.ErrNotFound)

		_, err := svc.Liquidate(ctx, 99, from, to)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCollectionList(t *testing.T) {
	ctx := context.Background()

	t.Run("should skip inactive clients and settled credits", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("GetSnapshot", ctx, int64(1)).Return(serviceSnapshot(), nil)

		entries, err := svc.CollectionList(ctx, 1, day(2026, time.January, 10))

		assert.NoError(t, err)
		// Only Marta's active credit survives the filters.
		assert.Len(t, entries, 1)
		assert.Equal(t, int64(10), entries[0].Client.ClientID)
		assert.Equal(t, credit.CategoryInArrears, entries[0].Assessment.Category)
	})

	t.Run("should propagate snapshot failures", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("GetSnapshot", ctx, int64(1)).Return(nil, errors.New("connection reset"))

		_, err := svc.CollectionList(ctx, 1, day(2026, time.January, 10))

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestRegisterExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject a non-positive value", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		_, err := svc.RegisterExpense(ctx, 1, day(2026, time.January, 10), route.Expense{Value: num("0"), Category: "fuel"})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "InsertExpense", mock.Anything, mock.Anything)
	})

	t.Run("should stamp route and truncated date before inserting", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("InsertExpense", ctx, mock.MatchedBy(func(e *route.Expense) bool {
			return e.RouteID == 1 && e.Date.Equal(day(2026, time.January, 10))
		})).Return(&route.Expense{ID: 5, RouteID: 1}, nil)

		created, err := svc.RegisterExpense(ctx, 1,
			time.Date(2026, time.January, 10, 16, 45, 0, 0, time.UTC),
			route.Expense{Value: num("15000"), Category: "fuel"})

		assert.NoError(t, err)
		assert.Equal(t, int64(5), created.ID)
		mockRepo.AssertExpectations(t)
	})
}

func TestRegisterTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject an unknown type", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		_, err := svc.RegisterTransaction(ctx, 1, route.TransactionType("LOAN"),
			route.Transaction{Amount: num("1000"), Date: day(2026, time.January, 2)})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("should refuse a second opening float", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("HasInitialBase", ctx, int64(1)).Return(true, nil)

		_, err := svc.RegisterTransaction(ctx, 1, route.TransactionInitialBase,
			route.Transaction{Amount: num("1000000"), Date: day(2026, time.January, 2)})

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		mockRepo.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
	})

	t.Run("should insert an injection without the opening float check", func(t *testing.T) {
		mockRepo := new(MockRouteRepository)
		svc := route.NewService(mockRepo, nil, 0, testLogger())

		mockRepo.On("GetRoute", ctx, int64(1)).Return(&route.Route{ID: 1}, nil)
		mockRepo.On("InsertTransaction", ctx, mock.MatchedBy(func(tx *route.Transaction) bool {
			return tx.RouteID == 1 && tx.Type == route.TransactionInjection
		})).Return(&route.Transaction{ID: 9, RouteID: 1, Type: route.TransactionInjection}, nil)

		created, err := svc.RegisterTransaction(ctx, 1, route.TransactionInjection,
			route.Transaction{Amount: num("200000"), Date: day(2026, time.January, 12)})

		assert.NoError(t, err)
		assert.Equal(t, int64(9), created.ID)
		mockRepo.AssertNotCalled(t, "HasInitialBase", mock.Anything, mock.Anything)
	})
}
