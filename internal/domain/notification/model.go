// Package notification stores per-user in-app notifications raised by
// domain events such as low stock or subscription activation.
package notification

import (
	"time"

	"gespro/internal/core/id"
)

// Type classifies a notification.
type Type string

// Notification types.
const (
	TypeLowStock     Type = "low_stock"
	TypeSubscription Type = "subscription"
	TypeSystem       Type = "system"
)

// Notification is a single in-app message for one user.
type Notification struct {
	ID        id.ID     `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"-"`
	Type      Type      `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// New creates an unread notification for an owner.
func New(ownerID string, typ Type, title, message string) *Notification {
	return &Notification{
		ID:        id.New(),
		OwnerID:   ownerID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
