package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/infrastructure/storage/postgres"
)

// auditedEntityTypes restricts the history endpoint to known kinds.
var auditedEntityTypes = map[string]bool{
	"sale":           true,
	"purchase_order": true,
}

// AuditHandler exposes the per-owner audit trail.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// EntityHistory handles GET /audit/:entityType/:id.
func (h *AuditHandler) EntityHistory(c *gin.Context) {
	ctx := c.Request.Context()

	entityType := c.Param("entityType")
	if !auditedEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("value", entityType))
		return
	}

	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetEntityHistory(ctx, entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}
