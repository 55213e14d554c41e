package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cobro-engine/internal/pkg/apperrors"
)

type Service interface {
	CreateClient(ctx context.Context, routeID int64, name, address string) (*Client, error)

	GetClient(ctx context.Context, clientID int64) (*Client, error)

	ListClientsByRoute(ctx context.Context, routeID int64) ([]Client, error)

	FindClientByCredit(ctx context.Context, creditID int64) (*Client, error)

	AssignCreditToClient(ctx context.Context, clientID, creditID int64) error

	UpdateArrears(ctx context.Context, clientID int64, inArrears bool) error
}

type serviceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	return &serviceImpl{repo: repo, logger: logger.With("component", "ClientService")}
}

func (s *serviceImpl) CreateClient(ctx context.Context, routeID int64, name, address string) (*Client, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	if routeID <= 0 {
		return nil, apperrors.NewValidationError("routeId", "a client must belong to a route")
	}

	c := NewClient(routeID, name, address)
	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save client", "error", err)
		return nil, fmt.Errorf("%w: failed to save client: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Client created", "clientID", c.ClientID, "routeID", routeID)
	return c, nil
}

func (s *serviceImpl) GetClient(ctx context.Context, clientID int64) (*Client, error) {
	c, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: client %d not found", apperrors.ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to get client", "clientID", clientID, "error", err)
		return nil, fmt.Errorf("%w: failed to get client %d: %v", apperrors.ErrInternalServer, clientID, err)
	}
	return c, nil
}

func (s *serviceImpl) ListClientsByRoute(ctx context.Context, routeID int64) ([]Client, error) {
	clients, err := s.repo.ListByRoute(ctx, routeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list clients for route", "routeID", routeID, "error", err)
		return nil, fmt.Errorf("%w: failed to list clients for route %d: %v", apperrors.ErrInternalServer, routeID, err)
	}
	return clients, nil
}

func (s *serviceImpl) FindClientByCredit(ctx context.Context, creditID int64) (*Client, error) {
	c, err := s.repo.FindByCreditID(ctx, creditID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no client linked to credit %d", apperrors.ErrNotFound, creditID)
		}
		s.logger.ErrorContext(ctx, "Failed to find client by credit", "creditID", creditID, "error", err)
		return nil, fmt.Errorf("%w: failed to find client by credit %d: %v", apperrors.ErrInternalServer, creditID, err)
	}
	return c, nil
}

func (s *serviceImpl) AssignCreditToClient(ctx context.Context, clientID, creditID int64) error {
	if err := s.repo.UpdateAssignedCredit(ctx, clientID, &creditID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: client %d not found", apperrors.ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to assign credit to client", "clientID", clientID, "creditID", creditID, "error", err)
		return fmt.Errorf("%w: failed to assign credit: %v", apperrors.ErrInternalServer, err)
	}
	s.logger.InfoContext(ctx, "Credit assigned to client", "clientID", clientID, "creditID", creditID)
	return nil
}

func (s *serviceImpl) UpdateArrears(ctx context.Context, clientID int64, inArrears bool) error {
	if err := s.repo.UpdateArrearsStatus(ctx, clientID, inArrears); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: client %d not found", apperrors.ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Failed to update client arrears status", "clientID", clientID, "error", err)
		return fmt.Errorf("%w: failed to update arrears status: %v", apperrors.ErrInternalServer, err)
	}
	return nil
}
