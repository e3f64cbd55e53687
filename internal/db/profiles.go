package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, user_id, name, keywords, location, job_type,
	experience_level, salary_min, salary_max, is_active, created_at, updated_at`

// CreateProfileInput holds the fields for creating a search profile.
// Keyword validation (non-empty) happens at the API boundary before this is
// called.
type CreateProfileInput struct {
	UserID          uuid.UUID
	Name            string
	Keywords        []string
	Location        string
	JobType         string
	ExperienceLevel string
	SalaryMin       *float64
	SalaryMax       *float64
}

// CreateProfile inserts a new search profile and returns it
func (db *DB) CreateProfile(ctx context.Context, input *CreateProfileInput) (*SearchProfile, error) {
	jobType := input.JobType
	if jobType == "" {
		jobType = JobTypeAny
	}
	level := input.ExperienceLevel
	if level == "" {
		level = ExperienceAny
	}

	return db.scanProfile(db.pool.QueryRow(ctx,
		`INSERT INTO search_profiles (user_id, name, keywords, location, job_type,
		                              experience_level, salary_min, salary_max)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+profileColumns,
		input.UserID, input.Name, input.Keywords, input.Location, jobType,
		level, input.SalaryMin, input.SalaryMax))
}

// GetProfile retrieves a search profile by ID
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*SearchProfile, error) {
	return db.scanProfile(db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM search_profiles WHERE id = $1`, id))
}

// ListProfilesByUser retrieves all profiles owned by a user
func (db *DB) ListProfilesByUser(ctx context.Context, userID uuid.UUID) ([]SearchProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM search_profiles WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// ListActiveProfiles retrieves all active profiles across users. The
// scheduler's ingestion task iterates these.
func (db *DB) ListActiveProfiles(ctx context.Context) ([]SearchProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+`
		 FROM search_profiles WHERE is_active = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// ListActiveProfilesWithActiveUsers retrieves active profiles whose owning
// user is also active. The notify task only alerts these.
func (db *DB) ListActiveProfilesWithActiveUsers(ctx context.Context) ([]SearchProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.id, p.user_id, p.name, p.keywords, p.location, p.job_type,
		        p.experience_level, p.salary_min, p.salary_max, p.is_active,
		        p.created_at, p.updated_at
		 FROM search_profiles p
		 JOIN users u ON u.id = p.user_id
		 WHERE p.is_active = TRUE AND u.is_active = TRUE
		 ORDER BY p.created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifiable profiles: %w", err)
	}
	defer rows.Close()
	return collectProfiles(rows)
}

// UpdateProfileInput holds optional updates; nil fields are left unchanged
type UpdateProfileInput struct {
	Name            *string
	Keywords        []string
	Location        *string
	JobType         *string
	ExperienceLevel *string
	SalaryMin       *float64
	SalaryMax       *float64
	Active          *bool
}

// UpdateProfile applies the non-nil fields of input to an existing profile
func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, input *UpdateProfileInput) (*SearchProfile, error) {
	query := `UPDATE search_profiles SET updated_at = NOW()`
	args := []any{}
	argNum := 1

	appendSet := func(column string, value any) {
		query += fmt.Sprintf(", %s = $%d", column, argNum)
		args = append(args, value)
		argNum++
	}

	if input.Name != nil {
		appendSet("name", *input.Name)
	}
	if input.Keywords != nil {
		appendSet("keywords", input.Keywords)
	}
	if input.Location != nil {
		appendSet("location", *input.Location)
	}
	if input.JobType != nil {
		appendSet("job_type", *input.JobType)
	}
	if input.ExperienceLevel != nil {
		appendSet("experience_level", *input.ExperienceLevel)
	}
	if input.SalaryMin != nil {
		appendSet("salary_min", *input.SalaryMin)
	}
	if input.SalaryMax != nil {
		appendSet("salary_max", *input.SalaryMax)
	}
	if input.Active != nil {
		appendSet("is_active", *input.Active)
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING ", argNum) + profileColumns
	args = append(args, id)

	return db.scanProfile(db.pool.QueryRow(ctx, query, args...))
}

// DeleteProfile removes a profile; its notification records cascade
func (db *DB) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM search_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", id)
	}
	return nil
}

func (db *DB) scanProfile(row pgx.Row) (*SearchProfile, error) {
	var p SearchProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Keywords, &p.Location,
		&p.JobType, &p.ExperienceLevel, &p.SalaryMin, &p.SalaryMax,
		&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func collectProfiles(rows pgx.Rows) ([]SearchProfile, error) {
	var profiles []SearchProfile
	for rows.Next() {
		var p SearchProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Keywords, &p.Location,
			&p.JobType, &p.ExperienceLevel, &p.SalaryMin, &p.SalaryMax,
			&p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
