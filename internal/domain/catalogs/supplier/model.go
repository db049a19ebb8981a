// Package supplier provides the Supplier catalog (vendors behind purchase orders).
package supplier

import (
	"context"
	"strings"

	"gespro/internal/core/apperror"
	"gespro/internal/core/entity"
)

// Supplier represents a vendor.
type Supplier struct {
	entity.Catalog

	Phone *string `db:"phone" json:"phone,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`
}

// New creates a new Supplier with required fields.
func New(name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog("", name),
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != nil && *s.Email != "" && !strings.Contains(*s.Email, "@") {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *s.Email)
	}

	return nil
}
