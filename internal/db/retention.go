package db

import (
	"context"
	"fmt"
	"time"
)

// SweepResult reports how many rows a retention sweep removed
type SweepResult struct {
	PostingsRemoved      int64 `json:"postings_removed"`
	NotificationsRemoved int64 `json:"notifications_removed"`
}

// Sweep hard-deletes postings older than postingHorizon and notification
// records older than notificationHorizon, in one transaction. A failure rolls
// back the whole sweep so no partial deletion is ever visible.
func (db *DB) Sweep(ctx context.Context, postingHorizon, notificationHorizon time.Duration) (SweepResult, error) {
	var result SweepResult

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin sweep transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	postingCutoff := time.Now().Add(-postingHorizon)
	tag, err := tx.Exec(ctx,
		`DELETE FROM job_postings WHERE ingested_at < $1`, postingCutoff)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired postings: %w", err)
	}
	result.PostingsRemoved = tag.RowsAffected()

	notificationCutoff := time.Now().Add(-notificationHorizon)
	tag, err = tx.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, notificationCutoff)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	result.NotificationsRemoved = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return SweepResult{}, fmt.Errorf("failed to commit sweep: %w", err)
	}
	return result, nil
}
