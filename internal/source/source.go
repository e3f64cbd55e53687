// Package source provides job-site adapters that turn a search into raw
// postings. Each adapter knows one site: how to build its search URL, fetch
// the result page, and parse job cards out of the HTML. Parsed cards are
// normalized into storage postings by Normalize.
package source

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/job-scout/internal/fetch"
)

// SearchParams describes one search against a job site. It mirrors the
// fields of a search profile that sites can filter on server-side; anything
// a site cannot express in its URL is filtered later by the matcher.
type SearchParams struct {
	Keywords        []string
	Location        string
	JobType         string
	ExperienceLevel string
	SalaryMin       *float64
	SalaryMax       *float64
}

// RawPosting is one job card as parsed from a site's result page, before
// normalization. Text fields carry whatever the site showed; SalaryText and
// JobTypeText are parsed into structured values by Normalize.
type RawPosting struct {
	NativeID    string
	Title       string
	Company     string
	Location    string
	URL         string
	SalaryText  string
	JobTypeText string
	Description string
	PostedAt    *time.Time
}

// Adapter is one job site's scraper.
type Adapter interface {
	// Name returns the site identifier used in external keys and audit rows.
	Name() string
	// SearchURL builds the site's search URL for the given parameters.
	SearchURL(params SearchParams) string
	// Fetch retrieves and parses one page of search results. A non-nil
	// error means the whole fetch failed; individual malformed cards are
	// skipped, not fatal.
	Fetch(ctx context.Context, params SearchParams) ([]RawPosting, error)
}

// Error represents a failure fetching or parsing a job site.
type Error struct {
	Source  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config holds fetch behavior shared by all adapters.
type Config struct {
	MaxRetries   int
	RequestDelay time.Duration
	Timeout      time.Duration
	UserAgent    string
}

// DefaultConfig returns the fetch defaults adapters use when no
// configuration is supplied.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		RequestDelay: 2 * time.Second,
		Timeout:      30 * time.Second,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	}
}

// fetchWithRetry fetches a URL, retrying transient failures up to
// cfg.MaxRetries attempts with cfg.RequestDelay between attempts.
func fetchWithRetry(ctx context.Context, sourceName, urlStr string, cfg Config) (*fetch.Result, error) {
	opts := &fetch.Options{
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	}

	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &Error{Source: sourceName, Message: "fetch canceled", Cause: ctx.Err()}
			case <-time.After(cfg.RequestDelay):
			}
		}

		result, err := fetch.URL(ctx, urlStr, opts)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &Error{
		Source:  sourceName,
		Message: fmt.Sprintf("fetch failed after %d attempts", attempts),
		Cause:   lastErr,
	}
}

var relativeDatePattern = regexp.MustCompile(`(\d+)\s*(hour|day|week|month)s?\s*ago`)

// parseRelativeDate converts relative timestamps like "3 days ago" into an
// absolute time. "Just posted" and "Today" map to now. Returns nil when the
// text has no recognizable date.
func parseRelativeDate(text string, now time.Time) *time.Time {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return nil
	}
	if strings.Contains(lower, "just posted") || strings.Contains(lower, "today") {
		return &now
	}

	match := relativeDatePattern.FindStringSubmatch(lower)
	if match == nil {
		return nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return nil
	}

	var d time.Duration
	switch match[2] {
	case "hour":
		d = time.Duration(n) * time.Hour
	case "day":
		d = time.Duration(n) * 24 * time.Hour
	case "week":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "month":
		d = time.Duration(n) * 30 * 24 * time.Hour
	}
	t := now.Add(-d)
	return &t
}
