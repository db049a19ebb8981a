package notification

import (
	"context"

	"gespro/internal/core/id"
)

// Repository defines notification storage operations.
type Repository interface {
	// Create creates a notification.
	Create(ctx context.Context, n *Notification) error

	// List retrieves the owner's notifications, newest first.
	List(ctx context.Context, filter ListFilter) ([]Notification, int, error)

	// MarkRead marks one notification as read, scoped to its owner.
	MarkRead(ctx context.Context, notificationID id.ID) error

	// MarkAllRead marks all of the owner's notifications as read.
	MarkAllRead(ctx context.Context) (int, error)

	// CountUnread counts the owner's unread notifications.
	CountUnread(ctx context.Context) (int, error)
}

// ListFilter for listing notifications.
type ListFilter struct {
	UnreadOnly bool
	Type       *Type
	Limit      int
	Offset     int
}
