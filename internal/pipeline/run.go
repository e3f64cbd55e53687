// Package pipeline wires the ingestion engine, matcher, and dispatcher into
// the periodic tasks the scheduler drives. Each task is also callable
// directly for one-shot CLI runs and the on-demand API trigger.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/ingest"
	"github.com/jonathan/job-scout/internal/notify"
	"github.com/jonathan/job-scout/internal/scheduler"
	"github.com/jonathan/job-scout/internal/source"
)

// Store is the slice of the database layer the pipeline needs.
type Store interface {
	ListActiveProfiles(ctx context.Context) ([]db.SearchProfile, error)
	ListActiveProfilesWithActiveUsers(ctx context.Context) ([]db.SearchProfile, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	Sweep(ctx context.Context, postingHorizon, notificationHorizon time.Duration) (db.SweepResult, error)
}

// Ingester runs one ingestion batch. Satisfied by *ingest.Engine.
type Ingester interface {
	RunBatch(ctx context.Context, searches []source.SearchParams) (ingest.Summary, error)
}

// Matcher finds postings for one profile. Satisfied by *match.Matcher.
type Matcher interface {
	FindMatches(ctx context.Context, profile db.SearchProfile, since time.Time) ([]db.JobPosting, error)
}

// Dispatcher alerts one triple. Satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, user db.User, profile db.SearchProfile, posting db.JobPosting) (notify.Result, error)
}

// Options holds the cadence and retention knobs.
type Options struct {
	ScrapeInterval      time.Duration
	NotifyInterval      time.Duration
	SweepInterval       time.Duration
	Lookback            time.Duration
	PostingHorizon      time.Duration
	NotificationHorizon time.Duration
}

// Pipeline owns the three periodic jobs.
type Pipeline struct {
	store      Store
	ingester   Ingester
	matcher    Matcher
	dispatcher Dispatcher
	opts       Options
	now        func() time.Time
}

// New builds a pipeline.
func New(store Store, ingester Ingester, matcher Matcher, dispatcher Dispatcher, opts Options) *Pipeline {
	return &Pipeline{
		store:      store,
		ingester:   ingester,
		matcher:    matcher,
		dispatcher: dispatcher,
		opts:       opts,
		now:        time.Now,
	}
}

// Tasks returns the scheduler tasks in pipeline order: ingest, then
// match+notify, then retention.
func (p *Pipeline) Tasks() []scheduler.Task {
	return []scheduler.Task{
		{Name: "ingest", Interval: p.opts.ScrapeInterval, Run: func(ctx context.Context) error {
			_, err := p.IngestActiveProfiles(ctx)
			return err
		}},
		{Name: "notify", Interval: p.opts.NotifyInterval, Run: func(ctx context.Context) error {
			_, err := p.NotifyMatches(ctx)
			return err
		}},
		{Name: "retention", Interval: p.opts.SweepInterval, Run: func(ctx context.Context) error {
			_, err := p.SweepRetention(ctx)
			return err
		}},
	}
}

// IngestActiveProfiles runs one ingestion batch covering every active
// profile's search. With no active profiles there is nothing to search for
// and the run is skipped.
func (p *Pipeline) IngestActiveProfiles(ctx context.Context) (ingest.Summary, error) {
	profiles, err := p.store.ListActiveProfiles(ctx)
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("failed to list active profiles: %w", err)
	}
	if len(profiles) == 0 {
		log.Printf("[pipeline] no active profiles, skipping ingestion")
		return ingest.Summary{}, nil
	}

	searches := make([]source.SearchParams, 0, len(profiles))
	for _, profile := range profiles {
		searches = append(searches, SearchParamsFor(profile))
	}
	return p.ingester.RunBatch(ctx, searches)
}

// SearchParamsFor maps a profile's criteria onto adapter search parameters.
func SearchParamsFor(profile db.SearchProfile) source.SearchParams {
	params := source.SearchParams{
		Keywords:  profile.Keywords,
		Location:  profile.Location,
		SalaryMin: profile.SalaryMin,
		SalaryMax: profile.SalaryMax,
	}
	if profile.JobType != db.JobTypeAny {
		params.JobType = profile.JobType
	}
	if profile.ExperienceLevel != db.ExperienceAny {
		params.ExperienceLevel = profile.ExperienceLevel
	}
	return params
}

// NotifyStats aggregates one match+dispatch pass.
type NotifyStats struct {
	ProfilesChecked int `json:"profiles_checked"`
	Matched         int `json:"matched"`
	Sent            int `json:"sent"`
	AlreadyNotified int `json:"already_notified"`
	Failed          int `json:"failed"`
}

// NotifyMatches runs the matcher over every active profile of an active user
// and dispatches each match. The matcher re-discovers postings that were
// already alerted inside the lookback window; the dispatcher's idempotence
// check turns those into cheap no-ops.
func (p *Pipeline) NotifyMatches(ctx context.Context) (NotifyStats, error) {
	var stats NotifyStats

	profiles, err := p.store.ListActiveProfilesWithActiveUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list notifiable profiles: %w", err)
	}
	since := p.now().Add(-p.opts.Lookback)

	for _, profile := range profiles {
		stats.ProfilesChecked++

		user, err := p.store.GetUser(ctx, profile.UserID)
		if err != nil {
			return stats, fmt.Errorf("failed to load user %s: %w", profile.UserID, err)
		}
		if user == nil || !user.Active {
			continue
		}

		matches, err := p.matcher.FindMatches(ctx, profile, since)
		if err != nil {
			return stats, fmt.Errorf("failed to match profile %s: %w", profile.ID, err)
		}
		stats.Matched += len(matches)

		for _, posting := range matches {
			result, err := p.dispatcher.Dispatch(ctx, *user, profile, posting)
			switch {
			case result.AlreadyNotified:
				stats.AlreadyNotified++
			case result.Created && result.SendSucceeded:
				stats.Sent++
			case result.Created:
				// Record claimed but delivery failed; kept as failed, not retried
				stats.Failed++
				log.Printf("[pipeline] delivery failed for profile %s posting %s: %v",
					profile.ID, posting.ExternalKey, err)
			default:
				return stats, fmt.Errorf("failed to dispatch for profile %s: %w", profile.ID, err)
			}
		}
	}

	log.Printf("[pipeline] notify pass: profiles=%d matched=%d sent=%d already=%d failed=%d",
		stats.ProfilesChecked, stats.Matched, stats.Sent, stats.AlreadyNotified, stats.Failed)
	return stats, nil
}

// SweepRetention removes postings and notification records past their
// retention horizons.
func (p *Pipeline) SweepRetention(ctx context.Context) (db.SweepResult, error) {
	result, err := p.store.Sweep(ctx, p.opts.PostingHorizon, p.opts.NotificationHorizon)
	if err != nil {
		return result, err
	}
	log.Printf("[pipeline] retention sweep: postings=%d notifications=%d",
		result.PostingsRemoved, result.NotificationsRemoved)
	return result, nil
}
