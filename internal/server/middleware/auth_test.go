package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClaims struct{ id uuid.UUID }

func (c staticClaims) GetUserID() uuid.UUID { return c.id }

type staticValidator struct {
	id  uuid.UUID
	err error
}

func (v staticValidator) ValidateToken(string) (UserIDGetter, error) {
	if v.err != nil {
		return nil, v.err
	}
	return staticClaims{id: v.id}, nil
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		validator  staticValidator
		wantStatus int
	}{
		{"no header", "", staticValidator{id: userID}, http.StatusUnauthorized},
		{"wrong scheme", "Basic dXNlcjpwdw==", staticValidator{id: userID}, http.StatusUnauthorized},
		{"scheme without token", "Bearer", staticValidator{id: userID}, http.StatusUnauthorized},
		{"too many parts", "Bearer one two", staticValidator{id: userID}, http.StatusUnauthorized},
		{"rejected token", "Bearer expired", staticValidator{err: errors.New("token expired")}, http.StatusUnauthorized},
		{"valid token", "Bearer good", staticValidator{id: userID}, http.StatusOK},
		{"lowercase scheme", "bearer good", staticValidator{id: userID}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID uuid.UUID
			handler := AuthMiddleware(tt.validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := GetUserID(r)
				require.NoError(t, err, "middleware must set the user ID before the handler runs")
				gotUserID = id
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
			}
		})
	}
}

func TestGetUserIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/profiles", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)
}

func TestUserIDKeyInjection(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey(), userID))

	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
