package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateNotification inserts a pending notification record for the given
// match triple. If a record for the triple already exists the insert is a
// no-op and created is false. The uniqueness constraint does the check, so
// two concurrent dispatch attempts for the same triple cannot both create a
// record.
func (db *DB) CreateNotification(ctx context.Context, userID, profileID, postingID uuid.UUID) (created bool, id uuid.UUID, err error) {
	err = db.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, profile_id, posting_id, status)
		 VALUES ($1, $2, $3, 'pending')
		 ON CONFLICT (user_id, profile_id, posting_id) DO NOTHING
		 RETURNING id`,
		userID, profileID, postingID,
	).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, uuid.Nil, nil
		}
		return false, uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return true, id, nil
}

// MarkNotification transitions a notification to sent or failed and stamps
// sent_at
func (db *DB) MarkNotification(ctx context.Context, id uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE notifications SET status = $1, sent_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s: %w", status, err)
	}
	return nil
}

// ListNotificationsByUser retrieves a user's notification records, newest
// first
func (db *DB) ListNotificationsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]NotificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, profile_id, posting_id, status, sent_at, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var n NotificationRecord
		if err := rows.Scan(&n.ID, &n.UserID, &n.ProfileID, &n.PostingID,
			&n.Status, &n.SentAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		records = append(records, n)
	}
	return records, rows.Err()
}
