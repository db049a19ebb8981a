package billing

import (
	"context"

	"gespro/internal/core/id"
)

// PlanRepository defines plan storage operations.
type PlanRepository interface {
	// Create creates a new plan.
	Create(ctx context.Context, plan *Plan) error

	// GetByID retrieves a plan by ID.
	GetByID(ctx context.Context, planID id.ID) (*Plan, error)

	// Update updates plan data.
	Update(ctx context.Context, plan *Plan) error

	// List retrieves plans, optionally only active ones, cheapest first.
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
}

// SubscriptionRepository defines subscription storage operations.
type SubscriptionRepository interface {
	// Create creates a new subscription.
	Create(ctx context.Context, sub *Subscription) error

	// GetByID retrieves a subscription by ID, scoped to its owner.
	GetByID(ctx context.Context, subID id.ID) (*Subscription, error)

	// GetByToken retrieves a subscription by its payment token.
	GetByToken(ctx context.Context, token string) (*Subscription, error)

	// GetCurrentByOwner retrieves the owner's most recent active subscription.
	GetCurrentByOwner(ctx context.Context, ownerID string) (*Subscription, error)

	// Update updates subscription data.
	Update(ctx context.Context, sub *Subscription) error

	// ListByOwner retrieves the owner's subscription history, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]Subscription, error)

	// ExpireOutdated flips active subscriptions past their end date to expired.
	ExpireOutdated(ctx context.Context) (int, error)
}
