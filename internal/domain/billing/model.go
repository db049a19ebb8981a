// Package billing provides subscription plans and the payment flow that
// activates them.
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
)

// Plan is a subscription plan offered by the platform.
type Plan struct {
	ID           id.ID           `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	DurationDays int             `db:"duration_days" json:"durationDays"`
	IsActive     bool            `db:"is_active" json:"isActive"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

// NewPlan creates an active plan.
func NewPlan(name string, price decimal.Decimal, durationDays int) *Plan {
	now := time.Now()
	return &Plan{
		ID:           id.New(),
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates plan data.
func (p *Plan) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("plan name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("plan price cannot be negative").WithDetail("field", "price")
	}
	if p.DurationDays <= 0 {
		return apperror.NewValidation("plan duration must be positive").
			WithDetail("field", "durationDays")
	}
	return nil
}

// Duration returns the plan period as a time.Duration.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.DurationDays) * 24 * time.Hour
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

// Subscription statuses.
const (
	SubscriptionPending SubscriptionStatus = "pending"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription ties an owner to a plan for a paid period.
type Subscription struct {
	ID           id.ID              `db:"id" json:"id"`
	OwnerID      string             `db:"owner_id" json:"-"`
	PlanID       id.ID              `db:"plan_id" json:"planId"`
	Status       SubscriptionStatus `db:"status" json:"status"`
	StartsAt     *time.Time         `db:"starts_at" json:"startsAt,omitempty"`
	EndsAt       *time.Time         `db:"ends_at" json:"endsAt,omitempty"`
	PaymentToken *string            `db:"payment_token" json:"-"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updatedAt"`

	// Loaded relation
	Plan *Plan `db:"-" json:"plan,omitempty"`
}

// NewSubscription creates a pending subscription awaiting payment.
func NewSubscription(ownerID string, planID id.ID) *Subscription {
	now := time.Now()
	return &Subscription{
		ID:        id.New(),
		OwnerID:   ownerID,
		PlanID:    planID,
		Status:    SubscriptionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Activate marks the subscription paid for the plan duration starting now.
func (s *Subscription) Activate(plan *Plan) {
	now := time.Now()
	ends := now.Add(plan.Duration())
	s.Status = SubscriptionActive
	s.StartsAt = &now
	s.EndsAt = &ends
	s.UpdatedAt = now
}

// IsCurrent reports whether the subscription grants access right now.
func (s *Subscription) IsCurrent() bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.EndsAt != nil && time.Now().Before(*s.EndsAt)
}

// PaymentRequest carries what the gateway needs to start a payment.
type PaymentRequest struct {
	Amount       decimal.Decimal
	Article      string
	PayerPhone   string
	PayerName    string
	PersonalInfo string
}

// PaymentInit is the gateway's answer to a payment initiation.
type PaymentInit struct {
	Token string
	URL   string
}

// PaymentStatus is the gateway's answer to a status poll.
type PaymentStatus struct {
	Paid      bool
	RawStatus string
	Message   string
}

// GatewayClient talks to the external payment provider.
type GatewayClient interface {
	// InitiatePayment starts a payment and returns the checkout token and URL.
	InitiatePayment(ctx context.Context, req PaymentRequest) (*PaymentInit, error)

	// CheckPayment polls the payment state for a token.
	CheckPayment(ctx context.Context, token string) (*PaymentStatus, error)
}

// Notifier receives subscription lifecycle events.
type Notifier interface {
	SubscriptionActivated(ctx context.Context, ownerID, planName string, endsAt time.Time)
}

// PayerInfo identifies who is paying, taken from the account profile.
type PayerInfo struct {
	Name  string
	Phone string
}
