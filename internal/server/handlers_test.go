package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/ingest"
	"github.com/jonathan/job-scout/internal/scheduler"
	"github.com/jonathan/job-scout/internal/server/middleware"
)

// fakeStore implements the Store interface in memory.
type fakeStore struct {
	*fakeUserStore
	profiles      map[uuid.UUID]*db.SearchProfile
	postings      map[uuid.UUID]*db.JobPosting
	notifications []db.NotificationRecord
	runs          []db.IngestionRun

	lastSearch db.SearchPostingsOptions
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fakeUserStore: newFakeUserStore(),
		profiles:      make(map[uuid.UUID]*db.SearchProfile),
		postings:      make(map[uuid.UUID]*db.JobPosting),
	}
}

func (f *fakeStore) CreateProfile(_ context.Context, input *db.CreateProfileInput) (*db.SearchProfile, error) {
	jobType := input.JobType
	if jobType == "" {
		jobType = db.JobTypeAny
	}
	level := input.ExperienceLevel
	if level == "" {
		level = db.ExperienceAny
	}
	p := &db.SearchProfile{
		ID:              uuid.New(),
		UserID:          input.UserID,
		Name:            input.Name,
		Keywords:        input.Keywords,
		Location:        input.Location,
		JobType:         jobType,
		ExperienceLevel: level,
		SalaryMin:       input.SalaryMin,
		SalaryMax:       input.SalaryMax,
		Active:          true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.profiles[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*db.SearchProfile, error) {
	return f.profiles[id], nil
}

func (f *fakeStore) ListProfilesByUser(_ context.Context, userID uuid.UUID) ([]db.SearchProfile, error) {
	var out []db.SearchProfile
	for _, p := range f.profiles {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProfile(_ context.Context, id uuid.UUID, input *db.UpdateProfileInput) (*db.SearchProfile, error) {
	p := f.profiles[id]
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Keywords != nil {
		p.Keywords = input.Keywords
	}
	if input.Active != nil {
		p.Active = *input.Active
	}
	return p, nil
}

func (f *fakeStore) DeleteProfile(_ context.Context, id uuid.UUID) error {
	delete(f.profiles, id)
	return nil
}

func (f *fakeStore) SearchPostings(_ context.Context, opts db.SearchPostingsOptions) ([]db.JobPosting, error) {
	f.lastSearch = opts
	var out []db.JobPosting
	for _, p := range f.postings {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetPostingByID(_ context.Context, id uuid.UUID) (*db.JobPosting, error) {
	return f.postings[id], nil
}

func (f *fakeStore) ListNotificationsByUser(_ context.Context, userID uuid.UUID, _ int) ([]db.NotificationRecord, error) {
	var out []db.NotificationRecord
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRecentRuns(_ context.Context, _ int) ([]db.IngestionRun, error) {
	return f.runs, nil
}

type fakeTrigger struct {
	summary ingest.Summary
	err     error
	calls   int
}

func (f *fakeTrigger) IngestActiveProfiles(_ context.Context) (ingest.Summary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeSched struct {
	running bool
}

func (f *fakeSched) Start() error {
	if f.running {
		return assert.AnError
	}
	f.running = true
	return nil
}

func (f *fakeSched) Stop() { f.running = false }

func (f *fakeSched) Status() scheduler.Status {
	return scheduler.Status{Running: f.running, NextRuns: map[string]time.Time{}}
}

// newTestServer builds a Server around fakes without the HTTP listener.
func newTestServer(store *fakeStore) *Server {
	return &Server{
		store:     store,
		pipeline:  &fakeTrigger{},
		scheduler: &fakeSched{},
	}
}

// authedRequest returns a request carrying an authenticated user ID, the way
// the auth middleware would.
func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.UserIDKey(), userID)
	return req.WithContext(ctx)
}

func TestHandleCreateProfile(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	userID := uuid.New()

	body, _ := json.Marshal(map[string]any{
		"name":     "Go jobs",
		"keywords": []string{"golang", "backend"},
		"job_type": "remote",
	})
	w := httptest.NewRecorder()
	srv.handleCreateProfile(w, authedRequest(http.MethodPost, "/profiles", body, userID))

	require.Equal(t, http.StatusCreated, w.Code)

	var profile db.SearchProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, []string{"golang", "backend"}, profile.Keywords)
	assert.Equal(t, db.JobTypeRemote, profile.JobType)
	assert.Equal(t, db.ExperienceAny, profile.ExperienceLevel)
	assert.True(t, profile.Active)
}

func TestHandleCreateProfile_Validation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing keywords", map[string]any{"name": "p"}},
		{"empty keywords", map[string]any{"name": "p", "keywords": []string{}}},
		{"blank keyword", map[string]any{"name": "p", "keywords": []string{""}}},
		{"bad job type", map[string]any{"name": "p", "keywords": []string{"go"}, "job_type": "freelance"}},
		{"missing name", map[string]any{"keywords": []string{"go"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(newFakeStore())
			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			srv.handleCreateProfile(w, authedRequest(http.MethodPost, "/profiles", body, uuid.New()))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleCreateProfile_InvertedSalaryBounds(t *testing.T) {
	srv := newTestServer(newFakeStore())
	body, _ := json.Marshal(map[string]any{
		"name":       "p",
		"keywords":   []string{"go"},
		"salary_min": 150000,
		"salary_max": 100000,
	})
	w := httptest.NewRecorder()
	srv.handleCreateProfile(w, authedRequest(http.MethodPost, "/profiles", body, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "salary_min")
}

func TestHandleGetProfile_OwnerScoping(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	owner := uuid.New()
	other := uuid.New()

	profile, err := store.CreateProfile(context.Background(), &db.CreateProfileInput{
		UserID:   owner,
		Name:     "mine",
		Keywords: []string{"go"},
	})
	require.NoError(t, err)

	// Owner sees the profile
	w := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/profiles/"+profile.ID.String(), nil, owner)
	req.SetPathValue("id", profile.ID.String())
	srv.handleGetProfile(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Another user gets 404, not 403, so profile existence is not leaked
	w = httptest.NewRecorder()
	req = authedRequest(http.MethodGet, "/profiles/"+profile.ID.String(), nil, other)
	req.SetPathValue("id", profile.ID.String())
	srv.handleGetProfile(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleUpdateProfile(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	owner := uuid.New()

	profile, err := store.CreateProfile(context.Background(), &db.CreateProfileInput{
		UserID:   owner,
		Name:     "before",
		Keywords: []string{"go"},
	})
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]any{"name": "after", "active": false})
	w := httptest.NewRecorder()
	req := authedRequest(http.MethodPut, "/profiles/"+profile.ID.String(), body, owner)
	req.SetPathValue("id", profile.ID.String())
	srv.handleUpdateProfile(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "after", store.profiles[profile.ID].Name)
	assert.False(t, store.profiles[profile.ID].Active)
}

func TestHandleDeleteProfile(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	owner := uuid.New()

	profile, err := store.CreateProfile(context.Background(), &db.CreateProfileInput{
		UserID:   owner,
		Name:     "gone soon",
		Keywords: []string{"go"},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := authedRequest(http.MethodDelete, "/profiles/"+profile.ID.String(), nil, owner)
	req.SetPathValue("id", profile.ID.String())
	srv.handleDeleteProfile(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, store.profiles, profile.ID)
}

func TestHandleSearchPostings_QueryParams(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/postings?q=golang,%20kubernetes&location=Berlin&job_type=remote&salary_min=90000&limit=10&offset=20", nil)
	srv.handleSearchPostings(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"golang", "kubernetes"}, store.lastSearch.Keywords)
	assert.Equal(t, "Berlin", store.lastSearch.Location)
	assert.Equal(t, "remote", store.lastSearch.JobType)
	require.NotNil(t, store.lastSearch.SalaryMin)
	assert.Equal(t, 90000.0, *store.lastSearch.SalaryMin)
	assert.Equal(t, 10, store.lastSearch.Limit)
	assert.Equal(t, 20, store.lastSearch.Offset)
}

func TestHandleSearchPostings_LimitClamped(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)

	w := httptest.NewRecorder()
	srv.handleSearchPostings(w, httptest.NewRequest(http.MethodGet, "/postings?limit=9999&offset=-5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultPostingLimit, store.lastSearch.Limit)
	assert.Equal(t, 0, store.lastSearch.Offset)
}

func TestHandleGetPosting(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)

	posting := &db.JobPosting{ID: uuid.New(), Title: "Backend Engineer", Company: "Acme"}
	store.postings[posting.ID] = posting

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/postings/"+posting.ID.String(), nil)
	req.SetPathValue("id", posting.ID.String())
	srv.handleGetPosting(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Backend Engineer")

	// Unknown ID
	unknown := uuid.New()
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/postings/"+unknown.String(), nil)
	req.SetPathValue("id", unknown.String())
	srv.handleGetPosting(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed ID
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/postings/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	srv.handleGetPosting(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleListNotifications_ScopedToUser(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	userID := uuid.New()

	store.notifications = []db.NotificationRecord{
		{ID: uuid.New(), UserID: userID, Status: db.NotificationSent},
		{ID: uuid.New(), UserID: uuid.New(), Status: db.NotificationSent},
	}

	w := httptest.NewRecorder()
	srv.handleListNotifications(w, authedRequest(http.MethodGet, "/notifications", nil, userID))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestHandleTriggerIngestion(t *testing.T) {
	srv := newTestServer(newFakeStore())
	trigger := &fakeTrigger{summary: ingest.Summary{SourcesAttempted: 2, FoundTotal: 7, NewTotal: 3}}
	srv.pipeline = trigger

	w := httptest.NewRecorder()
	srv.handleTriggerIngestion(w, httptest.NewRequest(http.MethodPost, "/ingestion/trigger", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, trigger.calls)

	var summary ingest.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.NewTotal)
}

func TestHandleSchedulerEndpoints(t *testing.T) {
	srv := newTestServer(newFakeStore())

	// Initially stopped
	w := httptest.NewRecorder()
	srv.handleSchedulerStatus(w, httptest.NewRequest(http.MethodGet, "/scheduler/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":false`)

	// Start
	w = httptest.NewRecorder()
	srv.handleSchedulerStart(w, httptest.NewRequest(http.MethodPost, "/scheduler/start", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Starting again conflicts
	w = httptest.NewRecorder()
	srv.handleSchedulerStart(w, httptest.NewRequest(http.MethodPost, "/scheduler/start", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Stop
	w = httptest.NewRecorder()
	srv.handleSchedulerStop(w, httptest.NewRequest(http.MethodPost, "/scheduler/stop", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, srv.scheduler.(*fakeSched).running)
}
