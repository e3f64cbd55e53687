// Package ingest runs the scrape-and-store side of the pipeline: it fans out
// over the enabled source adapters, normalizes what they return, and commits
// everything from one run in a single transaction.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/source"
)

// Store is the slice of the database layer the engine needs.
type Store interface {
	GetPostingByExternalKey(ctx context.Context, key string) (*db.JobPosting, error)
	CommitIngestion(ctx context.Context, staged []db.JobPosting, runs []db.IngestionRun) error
}

// Summary aggregates the outcome of one ingestion run across all sources.
type Summary struct {
	SourcesAttempted int               `json:"sources_attempted"`
	FoundTotal       int               `json:"found_total"`
	NewTotal         int               `json:"new_total"`
	UpdatedTotal     int               `json:"updated_total"`
	SourceErrors     map[string]string `json:"source_errors,omitempty"`
}

// Engine coordinates one ingestion run.
type Engine struct {
	store       Store
	registry    *source.Registry
	concurrency int
}

// NewEngine builds an engine. concurrency bounds how many sources are
// fetched in parallel; values below 1 mean one at a time.
func NewEngine(store Store, registry *source.Registry, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{store: store, registry: registry, concurrency: concurrency}
}

// sourceResult is one source's contribution to a run, collected before the
// shared commit.
type sourceResult struct {
	name        string
	staged      []db.JobPosting
	found       int
	errs        []string
	searchTerms []string
	startedAt   time.Time
	completedAt time.Time
}

// Run executes one ingestion run for a single search.
func (e *Engine) Run(ctx context.Context, params source.SearchParams) (Summary, error) {
	return e.RunBatch(ctx, []source.SearchParams{params})
}

// RunBatch executes one ingestion run covering several searches, typically
// one per active profile. Sources are fetched in parallel with a bounded
// group; a source that fails is recorded in its audit row and does not stop
// the others. All staged postings and all audit rows commit together in one
// transaction, so a run is either fully visible or not at all.
func (e *Engine) RunBatch(ctx context.Context, searches []source.SearchParams) (Summary, error) {
	adapters := e.registry.All()
	summary := Summary{SourcesAttempted: len(adapters)}
	if len(adapters) == 0 || len(searches) == 0 {
		return summary, nil
	}

	results := make([]sourceResult, len(adapters))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for i, adapter := range adapters {
		group.Go(func() error {
			results[i] = e.fetchSource(groupCtx, adapter, searches)
			return nil
		})
	}
	// Goroutines only record failures in their result slot.
	_ = group.Wait()

	staged, runs := e.stage(ctx, results, &summary)

	if err := e.store.CommitIngestion(ctx, staged, runs); err != nil {
		return summary, fmt.Errorf("failed to commit ingestion run: %w", err)
	}
	log.Printf("[ingest] run complete: sources=%d found=%d new=%d updated=%d errors=%d",
		summary.SourcesAttempted, summary.FoundTotal, summary.NewTotal,
		summary.UpdatedTotal, len(summary.SourceErrors))
	return summary, nil
}

// fetchSource runs every search against one adapter, one search at a time,
// so a site never sees concurrent requests from us; parallelism is across
// sites only.
func (e *Engine) fetchSource(ctx context.Context, adapter source.Adapter, searches []source.SearchParams) sourceResult {
	result := sourceResult{name: adapter.Name(), startedAt: time.Now()}

	for _, params := range searches {
		result.searchTerms = append(result.searchTerms, strings.Join(params.Keywords, " "))

		raws, err := adapter.Fetch(ctx, params)
		if err != nil {
			result.errs = append(result.errs, err.Error())
			log.Printf("[ingest] source %s fetch failed: %v", result.name, err)
			continue
		}
		result.found += len(raws)
		for _, raw := range raws {
			posting, err := source.Normalize(result.name, raw)
			if err != nil {
				result.errs = append(result.errs, err.Error())
				continue
			}
			result.staged = append(result.staged, posting)
		}
	}
	result.completedAt = time.Now()
	return result
}

// stage deduplicates each source's postings by external key, classifies them
// as new or updated against the current store, and builds one audit row per
// source.
func (e *Engine) stage(ctx context.Context, results []sourceResult, summary *Summary) ([]db.JobPosting, []db.IngestionRun) {
	var staged []db.JobPosting
	var runs []db.IngestionRun

	for _, res := range results {
		run := db.IngestionRun{
			Source:      res.name,
			SearchTerms: res.searchTerms,
			JobsFound:   res.found,
			StartedAt:   res.startedAt,
			CompletedAt: &res.completedAt,
		}

		seen := make(map[string]int, len(res.staged))
		var unique []db.JobPosting
		for _, posting := range res.staged {
			if idx, dup := seen[posting.ExternalKey]; dup {
				// Later card for the same key is fresher
				unique[idx] = posting
				continue
			}
			seen[posting.ExternalKey] = len(unique)
			unique = append(unique, posting)
		}

		for _, posting := range unique {
			existing, err := e.store.GetPostingByExternalKey(ctx, posting.ExternalKey)
			if err != nil {
				res.errs = append(res.errs, fmt.Sprintf("lookup %s: %v", posting.ExternalKey, err))
				continue
			}
			if existing == nil {
				run.JobsNew++
			} else {
				run.JobsUpdated++
			}
			staged = append(staged, posting)
		}

		if len(res.errs) > 0 {
			joined := strings.Join(res.errs, "; ")
			run.Errors = &joined
			if summary.SourceErrors == nil {
				summary.SourceErrors = make(map[string]string)
			}
			summary.SourceErrors[res.name] = joined
		}

		summary.FoundTotal += run.JobsFound
		summary.NewTotal += run.JobsNew
		summary.UpdatedTotal += run.JobsUpdated
		runs = append(runs, run)
	}
	return staged, runs
}
