package auth_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/auth"
	"gespro/internal/infrastructure/storage/postgres"
)

// ProfileRepo implements auth.ProfileRepository.
type ProfileRepo struct {
	txManager *postgres.TxManager
}

// NewProfileRepo creates a new profile repository.
func NewProfileRepo(txManager *postgres.TxManager) *ProfileRepo {
	return &ProfileRepo{txManager: txManager}
}

// Create creates the profile attached to a user.
func (r *ProfileRepo) Create(ctx context.Context, profile *auth.Profile) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO user_profiles (user_id, business_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		profile.UserID, profile.BusinessName, profile.Phone,
		profile.Role, profile.IsActive, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// GetByUserID retrieves the profile for a user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID id.ID) (*auth.Profile, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		SELECT user_id, business_name, phone, role, is_active, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var profile auth.Profile
	err := q.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &profile.BusinessName, &profile.Phone,
		&profile.Role, &profile.IsActive, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("profile", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	return &profile, nil
}

// Update updates profile data.
func (r *ProfileRepo) Update(ctx context.Context, profile *auth.Profile) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE user_profiles SET
			business_name = $2,
			phone = $3,
			role = $4,
			is_active = $5,
			updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := q.Exec(ctx, query,
		profile.UserID, profile.BusinessName, profile.Phone,
		profile.Role, profile.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("profile", profile.UserID.String())
	}

	return nil
}

// List retrieves profiles joined with their account emails.
func (r *ProfileRepo) List(ctx context.Context, filter auth.ProfileFilter) ([]auth.AccountSummary, int, error) {
	q := r.txManager.GetQuerier(ctx)

	base := `
		FROM user_profiles p
		INNER JOIN users u ON u.id = p.user_id
		WHERE TRUE
	`

	var args []interface{}
	argIdx := 1

	if filter.Search != "" {
		base += fmt.Sprintf(" AND (u.email ILIKE $%d OR p.business_name ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Role != "" {
		base += fmt.Sprintf(" AND p.role = $%d", argIdx)
		args = append(args, filter.Role)
		argIdx++
	}
	if filter.IsActive != nil {
		base += fmt.Sprintf(" AND p.is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := `
		SELECT p.user_id, u.email, p.business_name, p.phone, p.role, p.is_active,
			   u.last_login_at, p.created_at
	` + base + " ORDER BY p.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []auth.AccountSummary
	for rows.Next() {
		var acc auth.AccountSummary
		err := rows.Scan(
			&acc.UserID, &acc.Email, &acc.BusinessName, &acc.Phone,
			&acc.Role, &acc.IsActive, &acc.LastLoginAt, &acc.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}

	return accounts, total, nil
}
