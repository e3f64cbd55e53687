package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType constants for job postings and search profiles
const (
	JobTypeRemote  = "remote"
	JobTypeHybrid  = "hybrid"
	JobTypeOnsite  = "onsite"
	JobTypeUnknown = "unknown"
	JobTypeAny     = "any" // profiles only: no filtering
)

// ExperienceLevel constants
const (
	ExperienceEntry   = "entry"
	ExperienceMid     = "mid"
	ExperienceSenior  = "senior"
	ExperienceUnknown = "unknown"
	ExperienceAny     = "any" // profiles only: no filtering
)

// NotificationStatus constants
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// JobPosting represents a job posting discovered from an external source.
// ExternalKey (source name + source-native id) uniquely identifies a posting
// across all time; re-ingesting the same key updates the row in place.
type JobPosting struct {
	ID              uuid.UUID  `json:"id"`
	ExternalKey     string     `json:"external_key"`
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	JobType         string     `json:"job_type"`
	ExperienceLevel string     `json:"experience_level"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	Description     string     `json:"description"`
	Skills          []string   `json:"skills,omitempty"`
	ApplicationURL  string     `json:"application_url"`
	Source          string     `json:"source"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	IngestedAt      time.Time  `json:"ingested_at"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ExternalKey builds the globally unique posting key from a source name and
// the source-native identifier.
func ExternalKey(source, nativeID string) string {
	return fmt.Sprintf("%s:%s", source, nativeID)
}

// SearchProfile represents a user's saved search criteria.
type SearchProfile struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Keywords        []string  `json:"keywords"`
	Location        string    `json:"location,omitempty"`
	JobType         string    `json:"job_type"`
	ExperienceLevel string    `json:"experience_level"`
	SalaryMin       *float64  `json:"salary_min,omitempty"`
	SalaryMax       *float64  `json:"salary_max,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NotificationRecord tracks delivery state for one (user, profile, posting)
// match triple. The triple is unique at the storage layer; that constraint is
// what makes dispatch idempotent.
type NotificationRecord struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ProfileID uuid.UUID  `json:"profile_id"`
	PostingID uuid.UUID  `json:"posting_id"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IngestionRun is an append-only audit record of one source's contribution to
// one ingestion invocation.
type IngestionRun struct {
	ID          uuid.UUID  `json:"id"`
	Source      string     `json:"source"`
	SearchTerms any        `json:"search_terms,omitempty"`
	JobsFound   int        `json:"jobs_found"`
	JobsNew     int        `json:"jobs_new"`
	JobsUpdated int        `json:"jobs_updated"`
	Errors      *string    `json:"errors,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// User represents an account that owns search profiles and receives
// notifications.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
