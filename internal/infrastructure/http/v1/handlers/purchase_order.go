package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/documents/purchaseorder"
	"gespro/internal/infrastructure/http/v1/dto"
	"gespro/internal/infrastructure/metrics"
	"gespro/internal/infrastructure/storage/postgres"
)

// PurchaseOrderHandler handles purchase order endpoints.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchaseorder.Service
	audit   *postgres.AuditService
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchaseorder.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// WithAudit attaches the audit trail writer.
func (h *PurchaseOrderHandler) WithAudit(audit *postgres.AuditService) *PurchaseOrderHandler {
	h.audit = audit
	return h
}

func (h *PurchaseOrderHandler) auditLog(c *gin.Context, doc *purchaseorder.PurchaseOrder, action postgres.AuditAction, changes map[string]any) {
	if h.audit == nil {
		return
	}
	_ = h.audit.LogChange(c.Request.Context(), "purchase_order", doc.ID, action, changes)
}

// Create handles POST /document/purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePurchaseOrderRequest
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

	metrics.DocumentsCommitted.WithLabelValues("purchase_order").Inc()
	h.auditLog(c, doc, postgres.AuditActionCommit, map[string]any{
		"number": doc.Number,
		"total":  doc.TotalAmount,
	})

	h.CompleteIdempotency(c, http.StatusCreated, "application/json", doc)
	c.JSON(http.StatusCreated, doc)
}

// List handles GET /document/purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := purchaseorder.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")

	if supplierID := c.Query("supplierId"); supplierID != "" {
		parsed, err := id.Parse(supplierID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid supplierId format"))
			return
		}
		filter.SupplierID = &parsed
	}
	if status := c.Query("status"); status != "" {
		st := purchaseorder.Status(status)
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

// Get handles GET /document/purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Receive handles POST /document/purchase-orders/:id/receive.
// Received quantities are clamped to what remains outstanding per line;
// stock increments and status derivation happen in one transaction.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToReceiptLines()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Receive(ctx, orderID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, doc, postgres.AuditActionReceive, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	})

	h.OK(c, doc)
}

// Delete handles DELETE /document/purchase-orders/:id.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
