package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/server/middleware"
	"github.com/jonathan/job-scout/internal/types"
)

// getOwnedProfile loads a profile and verifies the caller owns it.
func (s *Server) getOwnedProfile(ctx context.Context, id, userID uuid.UUID) (*db.SearchProfile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, &ErrProfileNotFound{ProfileID: id}
	}
	if profile.UserID != userID {
		// Hide other users' profiles rather than confirming they exist.
		return nil, &ErrProfileNotFound{ProfileID: id}
	}
	return profile, nil
}

// handleCreateProfile creates a search profile owned by the authenticated user.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req types.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, firstValidationError(err))
		return
	}
	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		s.errorResponse(w, http.StatusBadRequest, "salary_min must not exceed salary_max")
		return
	}

	profile, err := s.store.CreateProfile(r.Context(), &db.CreateProfileInput{
		UserID:          userID,
		Name:            req.Name,
		Keywords:        req.Keywords,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	s.jsonResponse(w, http.StatusCreated, profile)
}

// handleListProfiles lists the authenticated user's search profiles.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	profiles, err := s.store.ListProfilesByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// handleGetProfile returns a single profile owned by the authenticated user.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	profile, err := s.getOwnedProfile(r.Context(), id, userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleUpdateProfile applies a partial update to an owned profile.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	if _, err := s.getOwnedProfile(r.Context(), id, userID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	var req types.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, firstValidationError(err))
		return
	}

	profile, err := s.store.UpdateProfile(r.Context(), id, &db.UpdateProfileInput{
		Name:            req.Name,
		Keywords:        req.Keywords,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Active:          req.Active,
	})
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	s.jsonResponse(w, http.StatusOK, profile)
}

// handleDeleteProfile deletes an owned profile.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid profile ID")
		return
	}

	if _, err := s.getOwnedProfile(r.Context(), id, userID); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if err := s.store.DeleteProfile(r.Context(), id); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
