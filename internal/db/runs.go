package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListRecentRuns retrieves the most recent ingestion audit rows
func (db *DB) ListRecentRuns(ctx context.Context, limit int) ([]IngestionRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, source, search_terms, jobs_found, jobs_new, jobs_updated,
		        errors, started_at, completed_at
		 FROM ingestion_runs ORDER BY started_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion runs: %w", err)
	}
	defer rows.Close()

	var runs []IngestionRun
	for rows.Next() {
		var r IngestionRun
		var termsJSON []byte
		if err := rows.Scan(&r.ID, &r.Source, &termsJSON, &r.JobsFound,
			&r.JobsNew, &r.JobsUpdated, &r.Errors, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingestion run: %w", err)
		}
		if termsJSON != nil {
			var terms any
			if err := json.Unmarshal(termsJSON, &terms); err == nil {
				r.SearchTerms = terms
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
