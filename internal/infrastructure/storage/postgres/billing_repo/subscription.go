package billing_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/billing"
	"gespro/internal/infrastructure/storage/postgres"
)

// SubscriptionRepo implements billing.SubscriptionRepository.
type SubscriptionRepo struct {
	txManager *postgres.TxManager
}

// NewSubscriptionRepo creates a new subscription repository.
func NewSubscriptionRepo(txManager *postgres.TxManager) *SubscriptionRepo {
	return &SubscriptionRepo{txManager: txManager}
}

const subColumns = `id, owner_id, plan_id, status, starts_at, ends_at, payment_token, created_at, updated_at`

func scanSubscription(row pgx.Row) (*billing.Subscription, error) {
	var sub billing.Subscription
	err := row.Scan(
		&sub.ID, &sub.OwnerID, &sub.PlanID, &sub.Status,
		&sub.StartsAt, &sub.EndsAt, &sub.PaymentToken,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create creates a new subscription.
func (r *SubscriptionRepo) Create(ctx context.Context, sub *billing.Subscription) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO user_subscriptions (id, owner_id, plan_id, status, payment_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		sub.ID, sub.OwnerID, sub.PlanID, sub.Status,
		sub.PaymentToken, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// GetByID retrieves a subscription by ID, scoped to its owner unless the
// caller is an administrator.
func (r *SubscriptionRepo) GetByID(ctx context.Context, subID id.ID) (*billing.Subscription, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + subColumns + " FROM user_subscriptions WHERE id = $1"
	args := []interface{}{subID}
	if !appctx.IsAdmin(ctx) {
		query += " AND owner_id = $2"
		args = append(args, appctx.GetUserID(ctx))
	}

	sub, err := scanSubscription(q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("subscription", subID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}

	return sub, nil
}

// GetByToken retrieves a subscription by its payment token.
func (r *SubscriptionRepo) GetByToken(ctx context.Context, token string) (*billing.Subscription, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + subColumns + " FROM user_subscriptions WHERE payment_token = $1"

	sub, err := scanSubscription(q.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("subscription", "")
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}

	return sub, nil
}

// GetCurrentByOwner retrieves the owner's most recent active subscription.
func (r *SubscriptionRepo) GetCurrentByOwner(ctx context.Context, ownerID string) (*billing.Subscription, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + subColumns + ` FROM user_subscriptions
		WHERE owner_id = $1 AND status = $2
		ORDER BY ends_at DESC NULLS LAST
		LIMIT 1`

	sub, err := scanSubscription(q.QueryRow(ctx, query, ownerID, billing.SubscriptionActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("subscription", ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("query subscription: %w", err)
	}

	return sub, nil
}

// Update updates subscription data.
func (r *SubscriptionRepo) Update(ctx context.Context, sub *billing.Subscription) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE user_subscriptions SET
			status = $2,
			starts_at = $3,
			ends_at = $4,
			payment_token = $5,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		sub.ID, sub.Status, sub.StartsAt, sub.EndsAt, sub.PaymentToken,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("subscription", sub.ID.String())
	}

	return nil
}

// ListByOwner retrieves the owner's subscription history, newest first.
func (r *SubscriptionRepo) ListByOwner(ctx context.Context, ownerID string) ([]billing.Subscription, error) {
	q := r.txManager.GetQuerier(ctx)

	query := "SELECT " + subColumns + ` FROM user_subscriptions
		WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []billing.Subscription
	for rows.Next() {
		var sub billing.Subscription
		err := rows.Scan(
			&sub.ID, &sub.OwnerID, &sub.PlanID, &sub.Status,
			&sub.StartsAt, &sub.EndsAt, &sub.PaymentToken,
			&sub.CreatedAt, &sub.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

// ExpireOutdated flips active subscriptions past their end date to expired.
func (r *SubscriptionRepo) ExpireOutdated(ctx context.Context) (int, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `
		UPDATE user_subscriptions
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND ends_at < NOW()
	`

	result, err := q.Exec(ctx, query, billing.SubscriptionExpired, billing.SubscriptionActive)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}

	return int(result.RowsAffected()), nil
}
