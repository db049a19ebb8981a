package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/domain/reports"
)

// ReportsHandler handles dashboard and reporting endpoints.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{BaseHandler: base, service: service}
}

// Dashboard handles GET /reports/dashboard.
// All aggregates exclude cancelled sales.
func (h *ReportsHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	dashboard, err := h.service.Dashboard(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
