package source

import (
	"sort"
	"strings"

	"github.com/jonathan/job-scout/internal/db"
)

var (
	remoteWords = []string{"remote", "work from home", "wfh"}
	hybridWords = []string{"hybrid", "partially remote"}
	onsiteWords = []string{"onsite", "on-site", "in-office", "in person"}

	seniorWords = []string{"senior", "lead", "principal", "staff"}
	midWords    = []string{"mid", "intermediate", "experienced"}
	entryWords  = []string{"junior", "entry", "associate", "graduate", "intern"}
)

// skillKeywords are well-known technology terms scanned for in descriptions.
// Matching is plain substring search over lowercased text.
var skillKeywords = []string{
	"python", "javascript", "typescript", "java", "go", "rust", "ruby", "php",
	"react", "angular", "vue", "node.js", "html", "css",
	"sql", "postgresql", "mongodb", "redis",
	"aws", "gcp", "azure", "docker", "kubernetes", "terraform",
	"machine learning", "data science", "devops", "ci/cd", "microservices",
	"api", "git", "agile", "scrum",
	"tensorflow", "pytorch", "pandas", "numpy",
}

// DetectJobType classifies a posting as remote, hybrid, or onsite from its
// title and any work-arrangement text the site showed. Unrecognized postings
// are unknown, which profiles filtering on a concrete type will not match.
func DetectJobType(title, text string) string {
	combined := strings.ToLower(title + " " + text)
	switch {
	case containsAny(combined, remoteWords):
		return db.JobTypeRemote
	case containsAny(combined, hybridWords):
		return db.JobTypeHybrid
	case containsAny(combined, onsiteWords):
		return db.JobTypeOnsite
	}
	return db.JobTypeUnknown
}

// DetectExperienceLevel classifies seniority from title and description.
// Senior markers win over entry markers so "Senior Associate" reads as
// senior.
func DetectExperienceLevel(title, description string) string {
	combined := strings.ToLower(title + " " + description)
	switch {
	case containsAny(combined, seniorWords):
		return db.ExperienceSenior
	case containsAny(combined, midWords):
		return db.ExperienceMid
	case containsAny(combined, entryWords):
		return db.ExperienceEntry
	}
	return db.ExperienceUnknown
}

// ExtractSkills finds known technology keywords in a description. The result
// is deduplicated and sorted for stable storage.
func ExtractSkills(description string) []string {
	if description == "" {
		return nil
	}
	lower := strings.ToLower(description)

	seen := map[string]bool{}
	var skills []string
	for _, skill := range skillKeywords {
		if containsToken(lower, skill) && !seen[skill] {
			seen[skill] = true
			skills = append(skills, skill)
		}
	}
	sort.Strings(skills)
	return skills
}

// containsToken reports whether token occurs in text bounded by
// non-alphanumeric characters, so "go" does not match inside "google".
func containsToken(text, token string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], token)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordChar(text[i-1])
		afterIdx := i + len(token)
		after := afterIdx == len(text) || !isWordChar(text[afterIdx])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
