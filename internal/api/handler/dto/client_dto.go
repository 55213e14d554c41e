package dto

import (
	"fmt"
	"strconv"
	"time"

	"cobro-engine/internal/domain/client"
)

type CreateClientRequest struct {
	RouteID int64  `json:"routeId"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (r *CreateClientRequest) Validate() error {
	if r.RouteID <= 0 {
		return fmt.Errorf("routeId must be positive")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

type ClientResponse struct {
	ID        string    `json:"id"`
	RouteID   string    `json:"routeId"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	InArrears bool      `json:"inArrears"`
	Active    bool      `json:"active"`
	CreditID  *string   `json:"creditId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewClientResponse(c *client.Client) ClientResponse {
	resp := ClientResponse{
		ID:        strconv.FormatInt(c.ClientID, 10),
		RouteID:   strconv.FormatInt(c.RouteID, 10),
		Name:      c.Name,
		Address:   c.Address,
		InArrears: c.InArrears,
		Active:    c.Active,
		CreatedAt: c.CreateDate,
		UpdatedAt: c.UpdatedAt,
	}
	if c.CreditID != nil {
		s := strconv.FormatInt(*c.CreditID, 10)
		resp.CreditID = &s
	}
	return resp
}
