package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/documents/docsnap"
	"gespro/internal/infrastructure/http/v1/dto"
)

// SnapshotHandler handles receipt snapshot endpoints.
type SnapshotHandler struct {
	*BaseHandler
	service *docsnap.Service
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(base *BaseHandler, service *docsnap.Service) *SnapshotHandler {
	return &SnapshotHandler{BaseHandler: base, service: service}
}

// List handles GET /document/receipts.
func (h *SnapshotHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := docsnap.ListFilter{}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-created_at")

	if typ := c.Query("type"); typ != "" {
		t := docsnap.Type(typ)
		filter.Type = &t
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

// Get handles GET /document/receipts/:id.
func (h *SnapshotHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	snapID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	snap, err := h.service.GetByID(ctx, snapID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Delete handles DELETE /document/receipts/:id.
func (h *SnapshotHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	snapID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, snapID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
