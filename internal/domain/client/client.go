package client

import "time"

// Client is a reference entity: a borrower on exactly one collection route.
// InArrears is maintained by the nightly refresh job from the arrears
// classifier's output; it is a denormalized flag, never an input to the
// engine itself.
type Client struct {
	ClientID   int64     `json:"clientId"`
	RouteID    int64     `json:"routeId"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	InArrears  bool      `json:"inArrears"`
	Active     bool      `json:"active"`
	CreditID   *int64    `json:"creditId,omitempty"`
	CreateDate time.Time `json:"createDate"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewClient(routeID int64, name, address string) *Client {
	now := time.Now()
	return &Client{
		RouteID:    routeID,
		Name:       name,
		Address:    address,
		InArrears:  false,
		Active:     true,
		CreditID:   nil,
		CreateDate: now,
		UpdatedAt:  now,
	}
}

func (c *Client) AssignCredit(creditID int64) {
	c.CreditID = &creditID
	c.UpdatedAt = time.Now()
}

func (c *Client) SetArrearsStatus(inArrears bool) {
	if c.InArrears != inArrears {
		c.InArrears = inArrears
		c.UpdatedAt = time.Now()
	}
}

func (c *Client) Deactivate() {
	if c.Active {
		c.Active = false
		c.UpdatedAt = time.Now()
	}
}
