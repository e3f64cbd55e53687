package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	posted := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	raw := RawPosting{
		NativeID:    "abc123",
		Title:       "  Senior Go Engineer  ",
		Company:     "Acme Corp",
		Location:    "Denver, CO",
		URL:         "https://www.indeed.com/viewjob?jk=abc123",
		SalaryText:  "$120,000 - $150,000 a year",
		JobTypeText: "Remote",
		Description: "Build services in Go with PostgreSQL.",
		PostedAt:    &posted,
	}

	posting, err := Normalize("indeed", raw)
	require.NoError(t, err)

	assert.Equal(t, "indeed:abc123", posting.ExternalKey)
	assert.Equal(t, "Senior Go Engineer", posting.Title)
	assert.Equal(t, "Acme Corp", posting.Company)
	assert.Equal(t, "remote", posting.JobType)
	assert.Equal(t, "senior", posting.ExperienceLevel)
	require.NotNil(t, posting.SalaryMin)
	require.NotNil(t, posting.SalaryMax)
	assert.Equal(t, 120000.0, *posting.SalaryMin)
	assert.Equal(t, 150000.0, *posting.SalaryMax)
	assert.Equal(t, []string{"go", "postgresql"}, posting.Skills)
	assert.Equal(t, "indeed", posting.Source)
	assert.True(t, posting.Active)
	assert.Equal(t, &posted, posting.PostedAt)
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	_, err := Normalize("indeed", RawPosting{Title: "Engineer"})
	assert.Error(t, err, "missing native id")

	_, err = Normalize("indeed", RawPosting{NativeID: "x1"})
	assert.Error(t, err, "missing title")
}

func TestNormalizeSwapsInvertedSalary(t *testing.T) {
	posting, err := Normalize("indeed", RawPosting{
		NativeID:   "x1",
		Title:      "Engineer",
		SalaryText: "150,000 - 120,000",
	})
	require.NoError(t, err)
	require.NotNil(t, posting.SalaryMin)
	require.NotNil(t, posting.SalaryMax)
	assert.LessOrEqual(t, *posting.SalaryMin, *posting.SalaryMax)
}
