package sqlite

import (
	"context"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/domain"
)

type notificationsRepo struct {
	db dbtx
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, link, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, n.Link, n.Read, n.CreatedAt,
	)
	return mapConstraint(err)
}

// ListNotifications returns broadcast notices (empty user_id) plus the
// user's own, newest first.
func (r *notificationsRepo) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, link, read, created_at
		 FROM notifications
		 WHERE user_id = '' OR user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *notificationsRepo) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *notificationsRepo) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < ?`, cutoff)
	return err
}
