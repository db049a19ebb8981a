package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/documents/sale"
	"gespro/internal/infrastructure/http/v1/dto"
	"gespro/internal/infrastructure/metrics"
	"gespro/internal/infrastructure/storage/postgres"
)

// SaleHandler handles sale document endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
	audit   *postgres.AuditService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// WithAudit attaches the audit trail writer.
func (h *SaleHandler) WithAudit(audit *postgres.AuditService) *SaleHandler {
	h.audit = audit
	return h
}

func (h *SaleHandler) auditLog(c *gin.Context, doc *sale.Sale, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "sale", doc.ID, action, changes)
}

// Create handles POST /document/sales.
// The whole document commits in one transaction: catalog resolution,
// stock decrement, numbering and the sale rows succeed or fail together.
func (h *SaleHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draft, err := req.ToDraft()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(ctx, draft)
	if err != nil {
		h.Error(c, err)
		return
	}

	metrics.DocumentsCommitted.WithLabelValues("sale").Inc()
	h.auditLog(c, doc, postgres.AuditActionCommit, map[string]any{
		"number": doc.Number,
		"total":  doc.TotalAmount,
		"status": doc.Status,
	})

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", doc)
	c.JSON(http.StatusCreated, doc)
}

// List handles GET /document/sales.
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := sale.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")

	if clientID := c.Query("clientId"); clientID != "" {
		parsed, err := id.Parse(clientID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid clientId format"))
			return
		}
		filter.ClientID = &parsed
	}
	if status := c.Query("status"); status != "" {
		st := sale.Status(status)
		filter.Status = &st
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

// Get handles GET /document/sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// RecordPayment handles POST /document/sales/:id/payments.
// A single entry point covers incremental payments and the explicit
// "mark as paid" action; status is always recomputed server-side.
func (h *SaleHandler) RecordPayment(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.RecordPayment(ctx, saleID, req.Amount, sale.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	metrics.PaymentsRecorded.Inc()
	h.auditLog(c, doc, postgres.AuditActionPayment, map[string]any{
		"amount":      req.Amount,
		"amount_paid": doc.AmountPaid,
		"status":      doc.Status,
	})

	h.OK(c, doc)
}

// Cancel handles POST /document/sales/:id/cancel.
func (h *SaleHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.Cancel(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, doc, postgres.AuditActionCancel, map[string]any{
		"number": doc.Number,
	})

	h.OK(c, doc)
}

// Delete handles DELETE /document/sales/:id.
func (h *SaleHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// parseDateQuery parses an RFC 3339 date or datetime query parameter.
// Returns (nil, true) when the parameter is absent.
func (h *BaseHandler) parseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		if t, err = time.Parse("2006-01-02", val); err != nil {
			h.Error(c, apperror.NewValidation("invalid "+key+" format (RFC 3339 expected)"))
			return nil, false
		}
	}
	return &t, true
}
