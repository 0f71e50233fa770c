package repositories

import (
	"fmt"

	"retail_pos_backend/internal/models"
)

type notificationRepository struct {
	exec SQLExecutor
}

func (r *notificationRepository) LoadAll(userID int64) ([]models.Notification, error) {
	notifications := []models.Notification{}
	query := `SELECT id, user_id, type, title, message, priority, category, persistent, read, created_at
	          FROM notifications
	          WHERE user_id = $1
	          ORDER BY created_at DESC`
	rows, err := r.exec.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading notifications: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Priority,
			&n.Category, &n.Persistent, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning notification: %v", ErrDatabaseError, err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating notifications: %v", ErrDatabaseError, err)
	}
	return notifications, nil
}

// SaveAll replaces the persisted list wholesale, mirroring how the capped
// in-memory list is maintained. Run inside Store.WithinTx so the delete and
// the re-insert land together.
func (r *notificationRepository) SaveAll(userID int64, notifications []models.Notification) error {
	if _, err := r.exec.Exec(`DELETE FROM notifications WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("%w: clearing notifications: %v", ErrDatabaseError, err)
	}

	query := `INSERT INTO notifications
	            (id, user_id, type, title, message, priority, category, persistent, read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, n := range notifications {
		if _, err := r.exec.Exec(query,
			n.ID, userID, n.Type, n.Title, n.Message, n.Priority,
			n.Category, n.Persistent, n.Read, n.CreatedAt,
		); err != nil {
			return fmt.Errorf("%w: saving notification %s: %v", ErrDatabaseError, n.ID, err)
		}
	}
	return nil
}
