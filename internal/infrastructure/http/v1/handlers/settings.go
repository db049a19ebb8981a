package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/domain/settings"
)

// SettingsHandler handles company settings endpoints.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	cfg, err := h.service.Get(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// Update handles PUT /settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	var req settings.UpdateInput
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := h.service.Update(ctx, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cfg)
}

// UploadLogo handles POST /settings/logo (multipart form, field "logo").
func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		h.Error(c, apperror.NewValidation("logo file is required").WithDetail("error", err.Error()))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.Error(c, apperror.NewValidation("cannot read uploaded file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")

	cfg, err := h.service.UploadLogo(ctx, contentType, fileHeader.Size, file)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cfg)
}
