package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/notification"
	"gespro/internal/infrastructure/http/v1/dto"
)

// NotificationHandler handles in-app notification endpoints.
type NotificationHandler struct {
	*BaseHandler
	service *notification.Service
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(base *BaseHandler, service *notification.Service) *NotificationHandler {
	return &NotificationHandler{BaseHandler: base, service: service}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := notification.ListFilter{
		UnreadOnly: c.Query("unreadOnly") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if typ := c.Query("type"); typ != "" {
		t := notification.Type(typ)
		filter.Type = &t
	}

	items, total, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: int64(total),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()

	notificationID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.MarkRead(ctx, notificationID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "notification marked as read")
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.service.MarkAllRead(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CountResponse{Count: count})
}

// CountUnread handles GET /notifications/unread-count.
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.service.CountUnread(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}
