package source

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-scout/internal/db"
)

// Normalize converts a raw job card into a storage posting. It derives the
// structured fields the site did not provide directly: salary bounds from
// the display text, job type and experience level from keyword heuristics,
// and the skill list from the description.
//
// A card without a native ID or title cannot be keyed or shown and is
// rejected; the caller counts such records as per-record parse failures
// without failing the fetch.
func Normalize(sourceName string, raw RawPosting) (db.JobPosting, error) {
	nativeID := strings.TrimSpace(raw.NativeID)
	title := strings.TrimSpace(raw.Title)
	if nativeID == "" {
		return db.JobPosting{}, &Error{Source: sourceName, Message: "posting has no native id"}
	}
	if title == "" {
		return db.JobPosting{}, &Error{Source: sourceName, Message: fmt.Sprintf("posting %s has no title", nativeID)}
	}

	salaryMin, salaryMax := ParseSalaryRange(raw.SalaryText)
	if salaryMin != nil && salaryMax != nil && *salaryMin > *salaryMax {
		salaryMin, salaryMax = salaryMax, salaryMin
	}

	return db.JobPosting{
		ExternalKey:     db.ExternalKey(sourceName, nativeID),
		Title:           title,
		Company:         strings.TrimSpace(raw.Company),
		Location:        strings.TrimSpace(raw.Location),
		JobType:         DetectJobType(title, raw.JobTypeText+" "+raw.Description),
		ExperienceLevel: DetectExperienceLevel(title, raw.Description),
		SalaryMin:       salaryMin,
		SalaryMax:       salaryMax,
		Description:     strings.TrimSpace(raw.Description),
		Skills:          ExtractSkills(raw.Description),
		ApplicationURL:  raw.URL,
		Source:          sourceName,
		PostedAt:        raw.PostedAt,
		Active:          true,
	}, nil
}
