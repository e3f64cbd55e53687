package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-scout/internal/fetch"
)

const (
	linkedinBaseURL = "https://www.linkedin.com"
	// The guest API serves the same cards as the public search page
	// without requiring a login or JavaScript.
	linkedinGuestSearch = linkedinBaseURL + "/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedinPageSearch  = linkedinBaseURL + "/jobs/search"
	// Individual postings are served by the guest API too, keyed by the
	// numeric ID from the card's URN.
	linkedinGuestPosting = linkedinBaseURL + "/jobs-guest/jobs/api/jobPosting/"

	// Search cards carry no description text, so each posting costs one
	// extra request. Cap the detail fetches per search to stay polite.
	maxDetailFetches = 10
)

// LinkedIn scrapes job cards from LinkedIn's guest search API, falling back
// to a headless-browser render of the public search page when the guest
// endpoint serves nothing.
type LinkedIn struct {
	cfg         Config
	now         func() time.Time
	renderPage  func(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error)
	fetchPage   func(ctx context.Context, url string) (string, error)
	browserFall bool
}

// NewLinkedIn builds a LinkedIn adapter. browserFallback enables headless
// rendering of the search page when the guest API returns no cards; it
// requires Chrome on the host.
func NewLinkedIn(cfg Config, browserFallback bool) *LinkedIn {
	s := &LinkedIn{
		cfg:         cfg,
		now:         time.Now,
		renderPage:  fetch.WithBrowser,
		browserFall: browserFallback,
	}
	s.fetchPage = func(ctx context.Context, url string) (string, error) {
		result, err := fetchWithRetry(ctx, s.Name(), url, s.cfg)
		if err != nil {
			return "", err
		}
		return result.HTML, nil
	}
	return s
}

func (s *LinkedIn) Name() string { return "linkedin" }

// SearchURL builds the guest API search URL. LinkedIn has no salary filter
// parameters; salary bounds are enforced by the matcher.
func (s *LinkedIn) SearchURL(params SearchParams) string {
	return linkedinGuestSearch + "?" + s.query(params).Encode()
}

func (s *LinkedIn) query(params SearchParams) url.Values {
	q := url.Values{}
	if len(params.Keywords) > 0 {
		q.Set("keywords", strings.Join(params.Keywords, " "))
	}
	if params.Location != "" {
		q.Set("location", params.Location)
	}
	switch params.JobType {
	case "onsite":
		q.Set("f_WT", "1")
	case "remote":
		q.Set("f_WT", "2")
	case "hybrid":
		q.Set("f_WT", "3")
	}
	switch params.ExperienceLevel {
	case "entry":
		q.Set("f_E", "1")
	case "mid":
		q.Set("f_E", "2")
	case "senior":
		q.Set("f_E", "3")
	}
	q.Set("start", "0")
	return q
}

// Fetch retrieves one page of LinkedIn search results and parses its job
// cards.
func (s *LinkedIn) Fetch(ctx context.Context, params SearchParams) ([]RawPosting, error) {
	result, err := fetchWithRetry(ctx, s.Name(), s.SearchURL(params), s.cfg)
	if err != nil {
		if !s.browserFall {
			return nil, err
		}
		return s.fetchRendered(ctx, params)
	}

	postings, err := s.parseSearchHTML(result.HTML)
	if err != nil {
		return nil, err
	}
	// An empty card list from a near-empty page usually means the guest API
	// served a JS shell rather than a genuinely empty result set.
	if len(postings) == 0 && s.browserFall && fetch.ShouldUseBrowser(result.HTML) {
		postings, err = s.fetchRendered(ctx, params)
		if err != nil {
			return nil, err
		}
	}
	s.enrichDescriptions(ctx, postings)
	return postings, nil
}

// enrichDescriptions fills in description text from the per-posting guest
// endpoint, spacing requests by the configured delay. Failures leave the card
// as-is; a posting without a description is still worth keeping.
func (s *LinkedIn) enrichDescriptions(ctx context.Context, postings []RawPosting) {
	fetched := 0
	for i := range postings {
		if fetched >= maxDetailFetches {
			return
		}
		p := &postings[i]
		if p.Description != "" || p.NativeID == "" || strings.HasPrefix(p.NativeID, "fp-") {
			continue
		}
		if s.cfg.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.RequestDelay):
			}
		}
		html, err := s.fetchPage(ctx, linkedinGuestPosting+p.NativeID)
		if err != nil {
			return
		}
		fetched++
		selectors := append([]string{
			".show-more-less-html__markup",
			".description__text",
		}, fetch.JobPostingSelectors()...)
		text, err := fetch.ExtractMainText(html, selectors)
		if err != nil || text == "" {
			continue
		}
		p.Description = text
	}
}

// fetchRendered renders the public search page in a headless browser and
// parses the same card markup.
func (s *LinkedIn) fetchRendered(ctx context.Context, params SearchParams) ([]RawPosting, error) {
	pageURL := linkedinPageSearch + "?" + s.query(params).Encode()
	html, err := s.renderPage(ctx, pageURL, s.cfg.Timeout, false)
	if err != nil {
		return nil, &Error{Source: s.Name(), Message: "browser fallback failed", Cause: err}
	}
	return s.parseSearchHTML(html)
}

func (s *LinkedIn) parseSearchHTML(html string) ([]RawPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Source: s.Name(), Message: "failed to parse search page", Cause: err}
	}

	now := s.now()
	var postings []RawPosting
	doc.Find("div.base-card, div.job-search-card, li > div[data-entity-urn]").Each(func(_ int, card *goquery.Selection) {
		raw := s.parseCard(card, now)
		if raw.Title == "" {
			return
		}
		postings = append(postings, raw)
	})
	return postings, nil
}

// parseCard extracts one job card. The stable hook is the posting URN in the
// data-entity-urn attribute ("urn:li:jobPosting:<id>").
func (s *LinkedIn) parseCard(card *goquery.Selection, now time.Time) RawPosting {
	raw := RawPosting{
		Title:       cardText(card, "h3.base-search-card__title", "h3", "a[class*='title']"),
		Company:     cardText(card, "h4.base-search-card__subtitle", "h4", "span[class*='company']"),
		Location:    cardText(card, "span.job-search-card__location", "span[class*='location']"),
		SalaryText:  cardText(card, "span.job-search-card__salary-info", "span[class*='salary']"),
		JobTypeText: cardText(card, "span[class*='work-type']"),
	}

	if urn, ok := card.Attr("data-entity-urn"); ok {
		if i := strings.LastIndex(urn, ":"); i >= 0 && i+1 < len(urn) {
			raw.NativeID = urn[i+1:]
		}
	}

	link := card.Find("a.base-card__full-link").First()
	if link.Length() == 0 {
		link = card.Find("a[href]").First()
	}
	if href, ok := link.Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "http") {
			raw.URL = href
		} else {
			raw.URL = linkedinBaseURL + href
		}
	}
	if raw.NativeID == "" && raw.Title != "" {
		raw.NativeID = fingerprintID(raw.Title, raw.Company, raw.Location)
	}

	if timeElem := card.Find("time").First(); timeElem.Length() > 0 {
		if dt, ok := timeElem.Attr("datetime"); ok {
			if t, err := time.Parse("2006-01-02", dt); err == nil {
				raw.PostedAt = &t
			}
		}
		if raw.PostedAt == nil {
			raw.PostedAt = parseRelativeDate(timeElem.Text(), now)
		}
	}
	return raw
}
