// Package notification_repo provides the PostgreSQL implementation of the
// notification repository. All queries are owner-scoped.
package notification_repo

import (
	"context"
	"fmt"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/notification"
	"gespro/internal/infrastructure/storage/postgres"
)

// NotificationRepo implements notification.Repository.
type NotificationRepo struct {
	txManager *postgres.TxManager
}

// NewNotificationRepo creates a new notification repository.
func NewNotificationRepo(txManager *postgres.TxManager) *NotificationRepo {
	return &NotificationRepo{txManager: txManager}
}

// Create creates a notification.
func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	q := r.txManager.GetQuerier(ctx)

	query := `
		INSERT INTO notifications (id, owner_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		n.ID, n.OwnerID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// List retrieves the owner's notifications, newest first.
func (r *NotificationRepo) List(ctx context.Context, filter notification.ListFilter) ([]notification.Notification, int, error) {
	q := r.txManager.GetQuerier(ctx)

	base := " FROM notifications WHERE owner_id = $1"
	args := []interface{}{appctx.GetUserID(ctx)}
	argIdx := 2

	if filter.UnreadOnly {
		base += " AND read = FALSE"
	}
	if filter.Type != nil {
		base += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := "SELECT id, owner_id, type, title, message, read, created_at" +
		base + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var items []notification.Notification
	for rows.Next() {
		var n notification.Notification
		err := rows.Scan(&n.ID, &n.OwnerID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}

	return items, total, nil
}

// MarkRead marks one notification as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID id.ID) error {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2`
	result, err := q.Exec(ctx, query, notificationID, appctx.GetUserID(ctx))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("notification", notificationID.String())
	}

	return nil
}

// MarkAllRead marks all of the owner's notifications as read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context) (int, error) {
	q := r.txManager.GetQuerier(ctx)

	query := `UPDATE notifications SET read = TRUE WHERE owner_id = $1 AND read = FALSE`
	result, err := q.Exec(ctx, query, appctx.GetUserID(ctx))
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// CountUnread counts the owner's unread notifications.
func (r *NotificationRepo) CountUnread(ctx context.Context) (int, error) {
	q := r.txManager.GetQuerier(ctx)

	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE owner_id = $1 AND read = FALSE`,
		appctx.GetUserID(ctx),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}
