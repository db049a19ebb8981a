package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/auth"
	"gespro/internal/domain/billing"
	"gespro/internal/infrastructure/http/v1/dto"
)

// AdminHandler handles platform administration endpoints.
// Routes are mounted behind the admin middleware; the services enforce
// the role again so a misrouted call still fails closed.
type AdminHandler struct {
	*BaseHandler
	authService    *auth.Service
	billingService *billing.Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *BaseHandler, authService *auth.Service, billingService *billing.Service) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    base,
		authService:    authService,
		billingService: billingService,
	}
}


// ListAccounts handles GET /admin/accounts.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	ctx := c.Request.Context()

	filter := auth.ProfileFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if isActive := c.Query("isActive"); isActive != "" {
		val := isActive == "true"
		filter.IsActive = &val
	}

	accounts, total, err := h.authService.ListAccounts(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      accounts,
		TotalCount: int64(total),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// PromoteAccount handles POST /admin/accounts/:id/promote.
func (h *AdminHandler) PromoteAccount(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.authService.PromoteToAdmin(ctx, userID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "account promoted to administrator")
}

// ToggleAccountActivation handles POST /admin/accounts/:id/toggle-activation.
func (h *AdminHandler) ToggleAccountActivation(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	profile, err := h.authService.ToggleActivation(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, profile)
}

// CreatePlan handles POST /admin/plans.
func (h *AdminHandler) CreatePlan(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := h.billingService.CreatePlan(ctx, req.Name, req.Price, req.DurationDays)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", plan)
	c.JSON(http.StatusCreated, plan)
}

// TogglePlan handles POST /admin/plans/:id/toggle.
func (h *AdminHandler) TogglePlan(c *gin.Context) {
	ctx := c.Request.Context()

	planID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	plan, err := h.billingService.TogglePlan(ctx, planID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, plan)
}

// ExpireSubscriptions handles POST /admin/subscriptions/expire.
// Marks every active subscription whose end date has passed as expired.
func (h *AdminHandler) ExpireSubscriptions(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.billingService.ExpireOutdated(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CountResponse{Count: count})
}
