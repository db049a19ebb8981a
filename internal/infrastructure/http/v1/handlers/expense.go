package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/expense"
	"gespro/internal/infrastructure/http/v1/dto"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	*BaseHandler
	service *expense.Service
}

// NewExpenseHandler creates a new expense handler.
func NewExpenseHandler(base *BaseHandler, service *expense.Service) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// Create handles POST /document/expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e := req.ToEntity()
	if err := h.service.Create(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", e)
	c.JSON(http.StatusCreated, e)
}

// List handles GET /document/expenses.
func (h *ExpenseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := expense.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-expense_date")

	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if from, ok := h.parseDateQuery(c, "dateFrom"); !ok {
		return
	} else {
		filter.DateFrom = from
	}
	if to, ok := h.parseDateQuery(c, "dateTo"); !ok {
		return
	} else {
		filter.DateTo = to
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /document/expenses/:id.
func (h *ExpenseHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	e, err := h.service.GetByID(ctx, expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// Update handles PUT /document/expenses/:id.
func (h *ExpenseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.GetByID(ctx, expenseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(e)

	if err := h.service.Update(ctx, e); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, e)
}

// Delete handles DELETE /document/expenses/:id.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	expenseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, expenseID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// MonthTotal handles GET /document/expenses/month-total?month=2026-08.
func (h *ExpenseHandler) MonthTotal(c *gin.Context) {
	ctx := c.Request.Context()

	ref := time.Now().UTC()
	if month := c.Query("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid month format (YYYY-MM expected)"))
			return
		}
		ref = parsed
	}

	total, err := h.service.MonthTotal(ctx, ref)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MonthTotalResponse{
		Month: ref.Format("2006-01"),
		Total: total,
	})
}
