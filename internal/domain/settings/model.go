// Package settings manages per-user company settings and the logo file.
package settings

import (
	"context"
	"strings"
	"time"

	"gespro/internal/core/apperror"
)

// Default currency for new accounts. Amounts carry no minor units.
const DefaultCurrency = "XOF"

// CompanySettings holds the business identity printed on documents.
// One row per owner.
type CompanySettings struct {
	OwnerID     string    `db:"owner_id" json:"-"`
	CompanyName string    `db:"company_name" json:"companyName"`
	Address     *string   `db:"address" json:"address,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Currency    string    `db:"currency" json:"currency"`
	LogoURL     *string   `db:"logo_url" json:"logoUrl,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCompanySettings creates default settings for an owner.
func NewCompanySettings(ownerID, companyName string) *CompanySettings {
	now := time.Now()
	return &CompanySettings{
		OwnerID:     ownerID,
		CompanyName: strings.TrimSpace(companyName),
		Currency:    DefaultCurrency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates settings data.
func (s *CompanySettings) Validate(ctx context.Context) error {
	if strings.TrimSpace(s.CompanyName) == "" {
		return apperror.NewValidation("company name is required").
			WithDetail("field", "companyName")
	}
	if s.Currency == "" {
		return apperror.NewValidation("currency is required").
			WithDetail("field", "currency")
	}
	if s.Email != nil && *s.Email != "" && !strings.Contains(*s.Email, "@") {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}
