package client

import (
	"context"
	"errors"
)

var (
	ErrNotFound             = errors.New("client not found")
	ErrClientAlreadyHasLoan = errors.New("client already has an active credit assigned")
)

type Repository interface {
	Save(ctx context.Context, c *Client) error

	FindByID(ctx context.Context, clientID int64) (*Client, error)

	FindByCreditID(ctx context.Context, creditID int64) (*Client, error)

	ListByRoute(ctx context.Context, routeID int64) ([]Client, error)

	UpdateArrearsStatus(ctx context.Context, clientID int64, inArrears bool) error

	UpdateAssignedCredit(ctx context.Context, clientID int64, creditID *int64) error
}
