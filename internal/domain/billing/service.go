package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/pkg/logger"
)

// Service orchestrates plan administration and the subscribe/confirm flow.
type Service struct {
	plans     PlanRepository
	subs      SubscriptionRepository
	gateway   GatewayClient
	txManager tx.Manager
	notifier  Notifier
}

// NewService creates a billing service.
func NewService(
	plans PlanRepository,
	subs SubscriptionRepository,
	gateway GatewayClient,
	txManager tx.Manager,
) *Service {
	return &Service{
		plans:     plans,
		subs:      subs,
		gateway:   gateway,
		txManager: txManager,
	}
}

// WithNotifier attaches a subscription event notifier.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// ListPlans returns plans visible to subscribers.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.plans.List(ctx, !appctx.IsAdmin(ctx))
}

// CreatePlan creates a plan. Admin only.
func (s *Service) CreatePlan(ctx context.Context, name string, price decimal.Decimal, durationDays int) (*Plan, error) {
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("administrator role required")
	}

	plan := NewPlan(name, price, durationDays)
	if err := plan.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// TogglePlan flips a plan's active flag. Admin only.
func (s *Service) TogglePlan(ctx context.Context, planID id.ID) (*Plan, error) {
	if !appctx.IsAdmin(ctx) {
		return nil, apperror.NewForbidden("administrator role required")
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	plan.IsActive = !plan.IsActive
	plan.UpdatedAt = time.Now()
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// Subscribe starts a payment for a plan and records a pending subscription.
// The returned subscription carries the checkout URL via PaymentInit.
func (s *Service) Subscribe(ctx context.Context, planID id.ID, payer PayerInfo) (*Subscription, *PaymentInit, error) {
	ownerID := appctx.GetUserID(ctx)
	if ownerID == "" {
		return nil, nil, apperror.NewUnauthorized("authentication required")
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"this plan is no longer available")
	}

	if current, err := s.subs.GetCurrentByOwner(ctx, ownerID); err == nil && current.IsCurrent() {
		return nil, nil, apperror.NewConflict("an active subscription already exists").
			WithDetail("ends_at", current.EndsAt)
	}

	init, err := s.gateway.InitiatePayment(ctx, PaymentRequest{
		Amount:       plan.Price,
		Article:      plan.Name,
		PayerPhone:   payer.Phone,
		PayerName:    payer.Name,
		PersonalInfo: fmt.Sprintf("abonnement %s", plan.Name),
	})
	if err != nil {
		return nil, nil, err
	}

	sub := NewSubscription(ownerID, plan.ID)
	sub.PaymentToken = &init.Token
	sub.Plan = plan

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.subs.Create(ctx, sub)
	}); err != nil {
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}

	logger.Info(ctx, "subscription payment initiated",
		"subscription_id", sub.ID,
		"plan", plan.Name,
		"token", init.Token)

	return sub, init, nil
}

// ConfirmPayment polls the gateway for a pending subscription and activates
// it when the payment went through.
func (s *Service) ConfirmPayment(ctx context.Context, subID id.ID) (*Subscription, error) {
	sub, err := s.subs.GetByID(ctx, subID)
	if err != nil {
		return nil, err
	}
	if sub.Status == SubscriptionActive {
		return sub, nil
	}
	if sub.PaymentToken == nil {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"no payment was initiated for this subscription")
	}

	status, err := s.gateway.CheckPayment(ctx, *sub.PaymentToken)
	if err != nil {
		return nil, err
	}
	if !status.Paid {
		return nil, apperror.NewBusinessRule(apperror.CodePaymentGateway,
			"payment is not confirmed yet").
			WithDetail("gateway_status", status.RawStatus)
	}

	plan, err := s.plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	sub.Activate(plan)
	sub.Plan = plan

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.subs.Update(ctx, sub)
	}); err != nil {
		return nil, fmt.Errorf("activate subscription: %w", err)
	}

	logger.Info(ctx, "subscription activated",
		"subscription_id", sub.ID,
		"plan", plan.Name,
		"ends_at", sub.EndsAt)

	if s.notifier != nil {
		s.notifier.SubscriptionActivated(ctx, sub.OwnerID, plan.Name, *sub.EndsAt)
	}

	return sub, nil
}

// CurrentSubscription returns the caller's active subscription with its plan.
func (s *Service) CurrentSubscription(ctx context.Context) (*Subscription, error) {
	ownerID := appctx.GetUserID(ctx)
	if ownerID == "" {
		return nil, apperror.NewUnauthorized("authentication required")
	}

	sub, err := s.subs.GetCurrentByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if plan, err := s.plans.GetByID(ctx, sub.PlanID); err == nil {
		sub.Plan = plan
	}
	return sub, nil
}

// EnsureActive verifies the caller holds a current subscription.
// Administrators are exempt.
func (s *Service) EnsureActive(ctx context.Context) error {
	if appctx.IsAdmin(ctx) {
		return nil
	}

	sub, err := s.subs.GetCurrentByOwner(ctx, appctx.GetUserID(ctx))
	if err != nil || !sub.IsCurrent() {
		return apperror.NewBusinessRule(apperror.CodeSubscriptionInactive,
			"an active subscription is required")
	}
	return nil
}

// History returns the caller's subscription history.
func (s *Service) History(ctx context.Context) ([]Subscription, error) {
	return s.subs.ListByOwner(ctx, appctx.GetUserID(ctx))
}

// ExpireOutdated sweeps active subscriptions past their end date.
// Intended for a periodic job.
func (s *Service) ExpireOutdated(ctx context.Context) (int, error) {
	n, err := s.subs.ExpireOutdated(ctx)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	if n > 0 {
		logger.Info(ctx, "subscriptions expired", "count", n)
	}
	return n, nil
}
