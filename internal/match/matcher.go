// Package match evaluates search profiles against recently ingested
// postings. The store narrows candidates to active postings inside the
// lookback window; the filters themselves run in Go so they stay cheap to
// test and identical across callers.
package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-scout/internal/db"
)

// Store is the slice of the database layer the matcher needs.
type Store interface {
	ListActivePostingsSince(ctx context.Context, since time.Time) ([]db.JobPosting, error)
}

// Matcher finds postings that satisfy a profile's criteria.
type Matcher struct {
	store Store
}

// NewMatcher builds a matcher over the given store.
func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// FindMatches returns the active postings ingested at or after since that
// satisfy the profile, most recently ingested first. The matcher does not
// consult notification history; re-discovering an already-notified posting
// is expected and the dispatcher's idempotence check makes it a no-op.
func (m *Matcher) FindMatches(ctx context.Context, profile db.SearchProfile, since time.Time) ([]db.JobPosting, error) {
	candidates, err := m.store.ListActivePostingsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate postings: %w", err)
	}

	var matches []db.JobPosting
	for _, posting := range candidates {
		if Matches(profile, posting) {
			matches = append(matches, posting)
		}
	}
	return matches, nil
}

// Matches reports whether a posting satisfies every filter the profile sets.
// Filters the profile leaves unset ("any" selectors, empty location, unset
// salary bounds) pass unconditionally.
func Matches(profile db.SearchProfile, posting db.JobPosting) bool {
	return matchesKeywords(profile.Keywords, posting) &&
		matchesLocation(profile.Location, posting.Location) &&
		matchesSelector(profile.JobType, posting.JobType) &&
		matchesSelector(profile.ExperienceLevel, posting.ExperienceLevel) &&
		matchesSalary(profile, posting)
}

// matchesKeywords passes when any profile keyword appears, case-insensitive,
// in the posting's title, description, or company.
func matchesKeywords(keywords []string, posting db.JobPosting) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(posting.Title + "\n" + posting.Description + "\n" + posting.Company)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func matchesLocation(want, have string) bool {
	if want == "" {
		return true
	}
	return strings.Contains(strings.ToLower(have), strings.ToLower(want))
}

// matchesSelector compares enumerated fields (job type, experience level).
// "any" or an unset selector passes everything, including unknown.
func matchesSelector(want, have string) bool {
	if want == "" || want == db.JobTypeAny {
		return true
	}
	return want == have
}

// matchesSalary checks interval overlap between the profile's bounds and the
// posting's salary range. A posting with no salary information never matches
// a salary-bounded profile; silence is not evidence the pay is in range.
func matchesSalary(profile db.SearchProfile, posting db.JobPosting) bool {
	if profile.SalaryMin == nil && profile.SalaryMax == nil {
		return true
	}
	if profile.SalaryMin != nil {
		if posting.SalaryMax == nil || *posting.SalaryMax < *profile.SalaryMin {
			return false
		}
	}
	if profile.SalaryMax != nil {
		if posting.SalaryMin == nil || *posting.SalaryMin > *profile.SalaryMax {
			return false
		}
	}
	return true
}
