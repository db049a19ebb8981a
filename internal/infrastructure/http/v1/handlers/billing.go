package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/billing"
	"gespro/internal/infrastructure/http/v1/dto"
	"gespro/internal/infrastructure/metrics"
)

// BillingHandler handles subscription and payment endpoints.
type BillingHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(base *BaseHandler, service *billing.Service) *BillingHandler {
	return &BillingHandler{BaseHandler: base, service: service}
}

// ListPlans handles GET /billing/plans.
// Non-admin callers only see active plans.
func (h *BillingHandler) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()

	plans, err := h.service.ListPlans(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": plans})
}

// Subscribe handles POST /billing/subscriptions.
// Initiates payment at the gateway and records a pending subscription
// carrying the gateway token.
func (h *BillingHandler) Subscribe(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SubscribeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	planID, err := id.Parse(req.PlanID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid planId format"))
		return
	}

	sub, init, err := h.service.Subscribe(ctx, planID, req.ToPayerInfo())
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.SubscribeResponse{
		Subscription: sub,
		PaymentToken: init.Token,
		PaymentURL:   init.URL,
	}
	h.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// ConfirmPayment handles POST /billing/subscriptions/:id/confirm.
// Polls the gateway for the payment outcome and activates the
// subscription when the gateway reports it paid.
func (h *BillingHandler) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()

	subID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sub, err := h.service.ConfirmPayment(ctx, subID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if sub.Status == billing.SubscriptionActive {
		metrics.SubscriptionsActivated.Inc()
	}

	h.OK(c, sub)
}

// Current handles GET /billing/subscriptions/current.
func (h *BillingHandler) Current(c *gin.Context) {
	ctx := c.Request.Context()

	sub, err := h.service.CurrentSubscription(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// History handles GET /billing/subscriptions.
func (h *BillingHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	subs, err := h.service.History(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": subs})
}
