// Package billing_repo provides PostgreSQL implementations for billing
// repositories. Plans are platform-wide; subscriptions are owner-scoped.
package billing_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/billing"
	"gespro/internal/infrastructure/storage/postgres"
)

// PlanRepo implements billing.PlanRepository.
type PlanRepo struct {
	txManager *postgres.TxManager
}

// NewPlanRepo creates a new plan repository.
func NewPlanRepo(txManager *postgres.TxManager) *PlanRepo {
	return &PlanRepo{txManager: txManager}
}

const planColumns = `id, name, price, duration_days, is_active, created_at, updated_at`

// Create creates a new plan.
func (r *PlanRepo) Create(ctx context.Context, plan *billing.Plan) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO saas_plans (id, name, price, duration_days, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.DurationDays,
		plan.IsActive, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by ID.
func (r *PlanRepo) GetByID(ctx context.Context, planID id.ID) (*billing.Plan, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + planColumns + " FROM saas_plans WHERE id = $1"

	var plan billing.Plan
	err := q.QueryRow(ctx, query, planID).Scan(
		&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays,
		&plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("plan", planID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}

	return &plan, nil
}

// Update updates plan data.
func (r *PlanRepo) Update(ctx context.Context, plan *billing.Plan) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE saas_plans SET
			name = $2,
			price = $3,
			duration_days = $4,
			is_active = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		plan.ID, plan.Name, plan.Price, plan.DurationDays, plan.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("plan", plan.ID.String())
	}

	return nil
}

// List retrieves plans, cheapest first.
func (r *PlanRepo) List(ctx context.Context, activeOnly bool) ([]billing.Plan, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + planColumns + " FROM saas_plans"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY price ASC"

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []billing.Plan
	for rows.Next() {
		var plan billing.Plan
		err := rows.Scan(
			&plan.ID, &plan.Name, &plan.Price, &plan.DurationDays,
			&plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}
