// Package settings_repo provides the PostgreSQL implementation of the
// company settings repository.
package settings_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/domain/settings"
	"gespro/internal/infrastructure/storage/postgres"
)

// SettingsRepo implements settings.Repository.
type SettingsRepo struct {
	txManager *postgres.TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

// Get retrieves the current user's settings.
func (r *SettingsRepo) Get(ctx context.Context) (*settings.CompanySettings, error) {
	q := r.txManager.GetQuerier(ctx)
	ownerID := appctx.GetUserID(ctx)

	query := `
		SELECT owner_id, company_name, address, phone, email, currency, logo_url, created_at, updated_at
		FROM company_settings
		WHERE owner_id = $1
	`

	var s settings.CompanySettings
	err := q.QueryRow(ctx, query, ownerID).Scan(
		&s.OwnerID, &s.CompanyName, &s.Address, &s.Phone, &s.Email,
		&s.Currency, &s.LogoURL, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("settings", ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	return &s, nil
}

// Upsert inserts or replaces the current user's settings row.
func (r *SettingsRepo) Upsert(ctx context.Context, s *settings.CompanySettings) error {
	q := r.txManager.GetQuerier(ctx)

	if s.OwnerID == "" {
		s.OwnerID = appctx.GetUserID(ctx)
	}

	query := `
		INSERT INTO company_settings (owner_id, company_name, address, phone, email, currency, logo_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			currency = EXCLUDED.currency,
			logo_url = EXCLUDED.logo_url,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query,
		s.OwnerID, s.CompanyName, s.Address, s.Phone, s.Email,
		s.Currency, s.LogoURL, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return nil
}
