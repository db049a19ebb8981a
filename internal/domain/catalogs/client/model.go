// Package client provides the Client catalog (the buyers a sale is billed to).
package client

import (
	"context"
	"strings"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
)

// Client represents a buyer.
type Client struct {
	entity.Catalog

	// Phone is the contact phone number
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the contact email
	Email *string `db:"email" json:"email,omitempty"`
}

// New creates a new Client with required fields.
func New(name string) *Client {
	return &Client{
		Catalog: entity.NewCatalog("", name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Client) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Email != nil && *c.Email != "" && !strings.Contains(*c.Email, "@") {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *c.Email)
	}

	return nil
}
