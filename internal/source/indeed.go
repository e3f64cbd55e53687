package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indeedBaseURL = "https://www.indeed.com"

// Indeed scrapes job cards from Indeed search result pages.
type Indeed struct {
	cfg Config
	now func() time.Time
}

// NewIndeed builds an Indeed adapter with the given fetch configuration.
func NewIndeed(cfg Config) *Indeed {
	return &Indeed{cfg: cfg, now: time.Now}
}

func (s *Indeed) Name() string { return "indeed" }

// SearchURL builds the Indeed search URL. Job type and experience level map
// to Indeed's own filter parameters; salary bounds ride along as query
// parameters and are enforced again by the matcher.
func (s *Indeed) SearchURL(params SearchParams) string {
	q := url.Values{}
	if len(params.Keywords) > 0 {
		q.Set("q", strings.Join(params.Keywords, " "))
	}
	if params.Location != "" {
		q.Set("l", params.Location)
	}
	switch params.JobType {
	case "remote":
		q.Set("remotejob", "1")
	case "hybrid":
		q.Set("remotejob", "2")
	case "onsite":
		q.Set("remotejob", "0")
	}
	switch params.ExperienceLevel {
	case "entry":
		q.Set("explvl", "ENTRY_LEVEL")
	case "mid":
		q.Set("explvl", "MID_LEVEL")
	case "senior":
		q.Set("explvl", "SENIOR_LEVEL")
	}
	if params.SalaryMin != nil {
		q.Set("salary_min", fmt.Sprintf("%d", int(*params.SalaryMin)))
	}
	if params.SalaryMax != nil {
		q.Set("salary_max", fmt.Sprintf("%d", int(*params.SalaryMax)))
	}
	q.Set("sort", "date")
	return indeedBaseURL + "/jobs?" + q.Encode()
}

// Fetch retrieves one page of Indeed search results and parses its job
// cards.
func (s *Indeed) Fetch(ctx context.Context, params SearchParams) ([]RawPosting, error) {
	result, err := fetchWithRetry(ctx, s.Name(), s.SearchURL(params), s.cfg)
	if err != nil {
		return nil, err
	}
	return s.parseSearchHTML(result.HTML)
}

func (s *Indeed) parseSearchHTML(html string) ([]RawPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{Source: s.Name(), Message: "failed to parse search page", Cause: err}
	}

	now := s.now()
	var postings []RawPosting
	doc.Find("div.job_seen_beacon, td.resultContent").Each(func(_ int, card *goquery.Selection) {
		raw := s.parseCard(card, now)
		if raw.Title == "" {
			return
		}
		postings = append(postings, raw)
	})
	return postings, nil
}

// parseCard extracts one job card. Indeed's stable hook is the data-jk job
// key on the title link; everything else falls back through the class names
// the site has used over time.
func (s *Indeed) parseCard(card *goquery.Selection, now time.Time) RawPosting {
	raw := RawPosting{
		Title:       cardText(card, "h2.jobTitle span[title]", "h2.jobTitle a", "h2 a", "a[class*='title']"),
		Company:     cardText(card, "[data-testid='company-name']", "span.companyName", "div.companyName"),
		Location:    cardText(card, "[data-testid='text-location']", "div.companyLocation", "span.companyLocation"),
		SalaryText:  cardText(card, "div.salary-snippet-container", "[class*='salary']"),
		JobTypeText: cardText(card, "[data-testid='attribute_snippet_testid']", "[class*='remote']"),
		Description: cardText(card, "div.job-snippet", "[class*='snippet']"),
	}

	link := card.Find("h2.jobTitle a, a[data-jk]").First()
	if link.Length() == 0 {
		link = card.Find("a[href]").First()
	}
	if jk, ok := link.Attr("data-jk"); ok && jk != "" {
		raw.NativeID = jk
	}
	if href, ok := link.Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "http") {
			raw.URL = href
		} else {
			raw.URL = indeedBaseURL + href
		}
	}
	if raw.NativeID == "" && raw.Title != "" {
		raw.NativeID = fingerprintID(raw.Title, raw.Company, raw.Location)
	}

	if dateText := cardText(card, "span.date", "[data-testid='myJobsStateDate']"); dateText != "" {
		raw.PostedAt = parseRelativeDate(dateText, now)
	}
	return raw
}

// cardText returns the trimmed text of the first selector that matches
// anything in the card.
func cardText(card *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if found := card.Find(sel); found.Length() > 0 {
			if text := strings.TrimSpace(found.First().Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// fingerprintID derives a stable fallback identifier for cards that carry no
// native job key, so re-ingesting the same card updates rather than
// duplicates.
func fingerprintID(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("fp-%x", h.Sum64())
}
