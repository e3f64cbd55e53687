package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/job-scout/internal/db"
)

const (
	defaultPostingLimit = 50
	maxPostingLimit     = 200
)

// parseQueryInt parses an integer query parameter, returning defaultValue
// when absent or malformed.
func parseQueryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseQueryFloat parses a float query parameter, returning nil when absent
// or malformed.
func parseQueryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// handleSearchPostings searches stored postings with optional filters.
// Query parameters: q (comma-separated keywords), location, job_type,
// experience_level, salary_min, salary_max, source, limit, offset.
func (s *Server) handleSearchPostings(w http.ResponseWriter, r *http.Request) {
	var keywords []string
	if q := r.URL.Query().Get("q"); q != "" {
		for _, kw := range strings.Split(q, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	limit := parseQueryInt(r, "limit", defaultPostingLimit)
	if limit < 1 || limit > maxPostingLimit {
		limit = defaultPostingLimit
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	opts := db.SearchPostingsOptions{
		Keywords:        keywords,
		Location:        r.URL.Query().Get("location"),
		JobType:         r.URL.Query().Get("job_type"),
		ExperienceLevel: r.URL.Query().Get("experience_level"),
		SalaryMin:       parseQueryFloat(r, "salary_min"),
		SalaryMax:       parseQueryFloat(r, "salary_max"),
		Source:          r.URL.Query().Get("source"),
		Limit:           limit,
		Offset:          offset,
	}

	postings, err := s.store.SearchPostings(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to search postings")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"postings": postings,
		"count":    len(postings),
		"limit":    limit,
		"offset":   offset,
	})
}

// handleGetPosting returns a single posting by ID.
func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid posting ID")
		return
	}

	posting, err := s.store.GetPostingByID(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get posting")
		return
	}
	if posting == nil {
		notFound := &ErrPostingNotFound{PostingID: id}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, posting)
}
