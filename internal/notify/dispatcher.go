package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/job-scout/internal/db"
)

// Store is the slice of the database layer the dispatcher needs.
type Store interface {
	CreateNotification(ctx context.Context, userID, profileID, postingID uuid.UUID) (created bool, id uuid.UUID, err error)
	MarkNotification(ctx context.Context, id uuid.UUID, status string) error
}

// Result reports what Dispatch did for one triple.
type Result struct {
	Created         bool
	AlreadyNotified bool
	SendSucceeded   bool
	NotificationID  uuid.UUID
}

// Dispatcher sends at most one alert per (user, profile, posting) triple.
type Dispatcher struct {
	store  Store
	sender MessageSender
}

// NewDispatcher builds a dispatcher over the given store and sender.
func NewDispatcher(store Store, sender MessageSender) *Dispatcher {
	return &Dispatcher{store: store, sender: sender}
}

// Dispatch claims the notification record for the triple, then renders and
// sends the alert. If the record already exists nothing is sent; the
// storage-level uniqueness constraint is the idempotence check, so two
// concurrent dispatches of the same triple cannot both send. A send failure
// marks the record failed and keeps it; failed sends are not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, user db.User, profile db.SearchProfile, posting db.JobPosting) (Result, error) {
	created, id, err := d.store.CreateNotification(ctx, user.ID, profile.ID, posting.ID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to claim notification: %w", err)
	}
	if !created {
		return Result{AlreadyNotified: true}, nil
	}
	result := Result{Created: true, NotificationID: id}

	subject, body, err := RenderMatchEmail(user, profile, posting)
	if err == nil {
		err = d.sender.Send(user.Email, subject, body)
	}
	if err != nil {
		log.Printf("[notify] send failed for user %s posting %s: %v", user.ID, posting.ExternalKey, err)
		if markErr := d.store.MarkNotification(ctx, id, db.NotificationFailed); markErr != nil {
			// Keep the send error visible; it is the root cause.
			return result, fmt.Errorf("failed to mark notification failed: %v (send error: %w)", markErr, err)
		}
		return result, err
	}

	if err := d.store.MarkNotification(ctx, id, db.NotificationSent); err != nil {
		return result, fmt.Errorf("failed to mark notification sent: %w", err)
	}
	result.SendSucceeded = true
	return result, nil
}
