package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// SubscriptionChecker verifies the caller holds a current subscription.
// Implemented by the billing service.
type SubscriptionChecker interface {
	EnsureActive(ctx context.Context) error
}

// RequireSubscription gates business routes behind an active subscription.
// Billing and account routes stay reachable so the user can (re)subscribe.
// Must run after Auth.
func RequireSubscription(checker SubscriptionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checker.EnsureActive(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
