package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/source"
)

type fakeStore struct {
	existing  map[string]db.JobPosting
	committed []db.JobPosting
	runs      []db.IngestionRun
	commitErr error
	commits   int
}

func (f *fakeStore) GetPostingByExternalKey(_ context.Context, key string) (*db.JobPosting, error) {
	if p, ok := f.existing[key]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeStore) CommitIngestion(_ context.Context, staged []db.JobPosting, runs []db.IngestionRun) error {
	f.commits++
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, staged...)
	f.runs = append(f.runs, runs...)
	return nil
}

type fakeAdapter struct {
	name     string
	postings []source.RawPosting
	err      error
	calls    int
}

func (f *fakeAdapter) Name() string { return f.name }
func (f *fakeAdapter) SearchURL(source.SearchParams) string { return "https://example.com" }
func (f *fakeAdapter) Fetch(context.Context, source.SearchParams) ([]source.RawPosting, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

func newRegistry(t *testing.T, adapters ...source.Adapter) *source.Registry {
	t.Helper()
	r := source.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, r.Register(a))
	}
	return r
}

func TestRunStagesNewAndUpdated(t *testing.T) {
	store := &fakeStore{existing: map[string]db.JobPosting{
		"indeed:known": {ExternalKey: "indeed:known"},
	}}
	adapter := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "known", Title: "Engineer"},
		{NativeID: "fresh", Title: "Senior Engineer"},
	}}
	engine := NewEngine(store, newRegistry(t, adapter), 2)

	summary, err := engine.Run(context.Background(), source.SearchParams{Keywords: []string{"go"}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SourcesAttempted)
	assert.Equal(t, 2, summary.FoundTotal)
	assert.Equal(t, 1, summary.NewTotal)
	assert.Equal(t, 1, summary.UpdatedTotal)
	assert.Empty(t, summary.SourceErrors)
	assert.Len(t, store.committed, 2)
	require.Len(t, store.runs, 1)
	assert.Equal(t, "indeed", store.runs[0].Source)
	assert.Equal(t, 2, store.runs[0].JobsFound)
	assert.Nil(t, store.runs[0].Errors)
}

func TestRunIsolatesSourceFailure(t *testing.T) {
	store := &fakeStore{}
	good := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "a1", Title: "Engineer"},
	}}
	bad := &fakeAdapter{name: "linkedin", err: errors.New("boom")}
	engine := NewEngine(store, newRegistry(t, good, bad), 2)

	summary, err := engine.Run(context.Background(), source.SearchParams{Keywords: []string{"go"}})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SourcesAttempted)
	assert.Equal(t, 1, summary.FoundTotal)
	assert.Equal(t, 1, summary.NewTotal)
	assert.Contains(t, summary.SourceErrors, "linkedin")
	assert.NotContains(t, summary.SourceErrors, "indeed")

	// Audit rows are written for the failed source too
	require.Len(t, store.runs, 2)
	var linkedinRun *db.IngestionRun
	for i := range store.runs {
		if store.runs[i].Source == "linkedin" {
			linkedinRun = &store.runs[i]
		}
	}
	require.NotNil(t, linkedinRun)
	assert.Equal(t, 0, linkedinRun.JobsFound)
	require.NotNil(t, linkedinRun.Errors)
	assert.Contains(t, *linkedinRun.Errors, "boom")
}

func TestRunSkipsMalformedRecords(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "good", Title: "Engineer"},
		{NativeID: "", Title: "No ID"},
	}}
	engine := NewEngine(store, newRegistry(t, adapter), 1)

	summary, err := engine.Run(context.Background(), source.SearchParams{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FoundTotal)
	assert.Equal(t, 1, summary.NewTotal)
	assert.Len(t, store.committed, 1)
	assert.Contains(t, summary.SourceErrors, "indeed")
}

func TestRunDeduplicatesWithinRun(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "dup", Title: "Engineer"},
		{NativeID: "dup", Title: "Engineer (updated card)"},
	}}
	engine := NewEngine(store, newRegistry(t, adapter), 1)

	summary, err := engine.Run(context.Background(), source.SearchParams{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FoundTotal)
	assert.Equal(t, 1, summary.NewTotal)
	require.Len(t, store.committed, 1)
	// Later card wins
	assert.Equal(t, "Engineer (updated card)", store.committed[0].Title)
}

func TestRunBatchCommitsOnce(t *testing.T) {
	store := &fakeStore{}
	adapter := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "a1", Title: "Engineer"},
	}}
	engine := NewEngine(store, newRegistry(t, adapter), 1)

	searches := []source.SearchParams{
		{Keywords: []string{"go"}},
		{Keywords: []string{"rust"}},
	}
	_, err := engine.RunBatch(context.Background(), searches)
	require.NoError(t, err)

	assert.Equal(t, 1, store.commits)
	assert.Equal(t, 2, adapter.calls)
	// Same posting from both searches stages once
	assert.Len(t, store.committed, 1)
}

func TestRunSurfacesCommitFailure(t *testing.T) {
	store := &fakeStore{commitErr: errors.New("connection lost")}
	adapter := &fakeAdapter{name: "indeed", postings: []source.RawPosting{
		{NativeID: "a1", Title: "Engineer"},
	}}
	engine := NewEngine(store, newRegistry(t, adapter), 1)

	_, err := engine.Run(context.Background(), source.SearchParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit ingestion run")
}
