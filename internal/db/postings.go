package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetPostingByExternalKey retrieves a posting by its source-qualified key
func (db *DB) GetPostingByExternalKey(ctx context.Context, key string) (*JobPosting, error) {
	return db.scanPosting(db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE external_key = $1`, key))
}

// GetPostingByID retrieves a posting by its ID
func (db *DB) GetPostingByID(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	return db.scanPosting(db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM job_postings WHERE id = $1`, id))
}

const postingColumns = `id, external_key, title, company, location, job_type,
	experience_level, salary_min, salary_max, description, skills,
	application_url, source, posted_at, ingested_at, is_active, created_at`

func (db *DB) scanPosting(row pgx.Row) (*JobPosting, error) {
	var p JobPosting
	err := row.Scan(&p.ID, &p.ExternalKey, &p.Title, &p.Company, &p.Location,
		&p.JobType, &p.ExperienceLevel, &p.SalaryMin, &p.SalaryMax,
		&p.Description, &p.Skills, &p.ApplicationURL, &p.Source,
		&p.PostedAt, &p.IngestedAt, &p.Active, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}
	return &p, nil
}

const upsertPostingSQL = `
	INSERT INTO job_postings (external_key, title, company, location, job_type,
	                          experience_level, salary_min, salary_max, description,
	                          skills, application_url, source, posted_at, ingested_at, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), TRUE)
	ON CONFLICT (external_key) DO UPDATE SET
	    title            = $2,
	    company          = $3,
	    location         = $4,
	    job_type         = $5,
	    experience_level = $6,
	    salary_min       = $7,
	    salary_max       = $8,
	    description      = $9,
	    skills           = $10,
	    application_url  = $11,
	    posted_at        = $13,
	    ingested_at      = NOW(),
	    is_active        = TRUE`

// CommitIngestion applies all staged posting upserts and audit rows from one
// ingestion run in a single transaction. Either everything from the run
// becomes visible together or nothing does. The ON CONFLICT clause keeps
// external_key unique even if a concurrent run races this one.
func (db *DB) CommitIngestion(ctx context.Context, staged []JobPosting, runs []IngestionRun) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i := range staged {
		p := &staged[i]
		_, err := tx.Exec(ctx, upsertPostingSQL,
			p.ExternalKey, p.Title, p.Company, p.Location, p.JobType,
			p.ExperienceLevel, p.SalaryMin, p.SalaryMax, p.Description,
			p.Skills, p.ApplicationURL, p.Source, p.PostedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert posting %s: %w", p.ExternalKey, err)
		}
	}

	for i := range runs {
		r := &runs[i]
		var termsJSON []byte
		if r.SearchTerms != nil {
			termsJSON, err = json.Marshal(r.SearchTerms)
			if err != nil {
				return fmt.Errorf("failed to marshal search terms: %w", err)
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO ingestion_runs (source, search_terms, jobs_found, jobs_new,
			                             jobs_updated, errors, started_at, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.Source, termsJSON, r.JobsFound, r.JobsNew, r.JobsUpdated,
			r.Errors, r.StartedAt, r.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to insert ingestion run for %s: %w", r.Source, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ingestion: %w", err)
	}
	return nil
}

// ListActivePostingsSince returns active postings ingested at or after the
// given time, most recently ingested first. This is the matcher's candidate
// set; profile filters are applied by the caller.
func (db *DB) ListActivePostingsSince(ctx context.Context, since time.Time) ([]JobPosting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE is_active = TRUE AND ingested_at >= $1
		 ORDER BY ingested_at DESC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent postings: %w", err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

// SearchPostingsOptions contains filters for searching stored postings
type SearchPostingsOptions struct {
	Keywords        []string
	Location        string
	JobType         string
	ExperienceLevel string
	SalaryMin       *float64
	SalaryMax       *float64
	Source          string
	Limit           int
	Offset          int
}

// SearchPostings searches active postings with optional filters and
// pagination, most recently ingested first.
func (db *DB) SearchPostings(ctx context.Context, opts SearchPostingsOptions) ([]JobPosting, error) {
	query := `SELECT ` + postingColumns + ` FROM job_postings WHERE is_active = TRUE`
	args := []any{}
	argNum := 1

	if len(opts.Keywords) > 0 {
		var clauses []string
		for _, kw := range opts.Keywords {
			clauses = append(clauses, fmt.Sprintf(
				"(title ILIKE $%d OR description ILIKE $%d OR company ILIKE $%d)",
				argNum, argNum, argNum))
			args = append(args, "%"+kw+"%")
			argNum++
		}
		query += " AND (" + strings.Join(clauses, " OR ") + ")"
	}
	if opts.Location != "" {
		query += fmt.Sprintf(" AND location ILIKE $%d", argNum)
		args = append(args, "%"+opts.Location+"%")
		argNum++
	}
	if opts.JobType != "" && opts.JobType != JobTypeAny {
		query += fmt.Sprintf(" AND job_type = $%d", argNum)
		args = append(args, opts.JobType)
		argNum++
	}
	if opts.ExperienceLevel != "" && opts.ExperienceLevel != ExperienceAny {
		query += fmt.Sprintf(" AND experience_level = $%d", argNum)
		args = append(args, opts.ExperienceLevel)
		argNum++
	}
	if opts.SalaryMin != nil {
		query += fmt.Sprintf(" AND salary_max >= $%d", argNum)
		args = append(args, *opts.SalaryMin)
		argNum++
	}
	if opts.SalaryMax != nil {
		query += fmt.Sprintf(" AND salary_min <= $%d", argNum)
		args = append(args, *opts.SalaryMax)
		argNum++
	}
	if opts.Source != "" {
		query += fmt.Sprintf(" AND source = $%d", argNum)
		args = append(args, opts.Source)
		argNum++
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY ingested_at DESC LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search postings: %w", err)
	}
	defer rows.Close()
	return collectPostings(rows)
}

func collectPostings(rows pgx.Rows) ([]JobPosting, error) {
	var postings []JobPosting
	for rows.Next() {
		var p JobPosting
		if err := rows.Scan(&p.ID, &p.ExternalKey, &p.Title, &p.Company, &p.Location,
			&p.JobType, &p.ExperienceLevel, &p.SalaryMin, &p.SalaryMax,
			&p.Description, &p.Skills, &p.ApplicationURL, &p.Source,
			&p.PostedAt, &p.IngestedAt, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}
