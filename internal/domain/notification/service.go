package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gespro/internal/core/appctx"
	"gespro/internal/core/id"
	"gespro/internal/domain/catalogs/product"
	"gespro/pkg/logger"
)

// Service creates and serves user notifications. It implements the
// notifier ports of the sale and billing packages.
type Service struct {
	repo Repository
}

// NewService creates a notification service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// LowStock records a low-stock alert after a sale reduced a product below
// its alert threshold.
func (s *Service) LowStock(ctx context.Context, p *product.Product, remaining decimal.Decimal) error {
	n := New(appctx.GetUserID(ctx), TypeLowStock,
		"Stock faible",
		fmt.Sprintf("Le produit « %s » est presque épuisé : il reste %s unité(s).",
			p.Name, remaining.String()),
	)
	return s.repo.Create(ctx, n)
}

// SubscriptionActivated records the confirmation of a paid subscription.
func (s *Service) SubscriptionActivated(ctx context.Context, ownerID, planName string, endsAt time.Time) {
	n := New(ownerID, TypeSubscription,
		"Abonnement activé",
		fmt.Sprintf("Votre abonnement « %s » est actif jusqu'au %s.",
			planName, endsAt.Format("02/01/2006")),
	)
	if err := s.repo.Create(ctx, n); err != nil {
		logger.Warn(ctx, "subscription notification failed",
			"owner_id", ownerID, "error", err)
	}
}

// Notify records an arbitrary system notification for the current user.
func (s *Service) Notify(ctx context.Context, title, message string) error {
	return s.repo.Create(ctx, New(appctx.GetUserID(ctx), TypeSystem, title, message))
}

// List returns the current user's notifications.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Notification, int, error) {
	return s.repo.List(ctx, filter)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, notificationID id.ID) error {
	return s.repo.MarkRead(ctx, notificationID)
}

// MarkAllRead marks every notification of the current user as read.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	return s.repo.MarkAllRead(ctx)
}

// CountUnread returns the current user's unread notification count.
func (s *Service) CountUnread(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}
