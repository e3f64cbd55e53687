package server

import (
	"net/http"

	"github.com/jonathan/job-scout/internal/server/middleware"
)

const (
	defaultNotificationLimit = 100
	defaultRunLimit          = 50
)

// handleListNotifications returns the authenticated user's notification
// history, most recent first.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := parseQueryInt(r, "limit", defaultNotificationLimit)
	if limit < 1 {
		limit = defaultNotificationLimit
	}

	records, err := s.store.ListNotificationsByUser(r.Context(), userID, limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": records,
		"count":         len(records),
	})
}

// handleTriggerIngestion runs one ingestion batch immediately instead of
// waiting for the next scheduled run.
func (s *Server) handleTriggerIngestion(w http.ResponseWriter, r *http.Request) {
	summary, err := s.pipeline.IngestActiveProfiles(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Ingestion failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// handleListRuns returns recent ingestion run audit records.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", defaultRunLimit)
	if limit < 1 {
		limit = defaultRunLimit
	}

	runs, err := s.store.ListRecentRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list ingestion runs")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleSchedulerStatus reports whether the scheduler is running and when
// each job fires next.
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.scheduler.Status())
}

// handleSchedulerStart starts the periodic scheduler.
func (s *Server) handleSchedulerStart(w http.ResponseWriter, _ *http.Request) {
	if err := s.scheduler.Start(); err != nil {
		s.errorResponse(w, http.StatusConflict, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "started"})
}

// handleSchedulerStop stops the periodic scheduler.
func (s *Server) handleSchedulerStop(w http.ResponseWriter, _ *http.Request) {
	s.scheduler.Stop()
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "stopped"})
}
