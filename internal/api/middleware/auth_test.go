package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beargallbladder/golfswarm/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier returns canned claims or a canned error.
type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *stubVerifier) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		header     string
		verifier   *stubVerifier
		wantStatus int
	}{
		{
			name:       "valid token",
			header:     "Bearer good-token",
			verifier:   &stubVerifier{claims: &auth.Claims{UserID: userID}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			header:     "",
			verifier:   &stubVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header",
			header:     "good-token",
			verifier:   &stubVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic good-token",
			verifier:   &stubVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer stale-token",
			verifier:   &stubVerifier{err: auth.ErrExpiredToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			header:     "Bearer bad-token",
			verifier:   &stubVerifier{err: auth.ErrInvalidToken},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "verifier failure",
			header:     "Bearer any-token",
			verifier:   &stubVerifier{err: errors.New("keyset unavailable")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotID uuid.UUID
			var gotOK bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, gotOK = GetUserID(r)
				w.WriteHeader(http.StatusOK)
			})

			m := NewAuthMiddleware(tc.verifier)
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			m.Authenticate(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				require.True(t, gotOK)
				assert.Equal(t, userID, gotID)
			} else {
				assert.False(t, gotOK)
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	_, ok := GetUserID(req)
	assert.False(t, ok)
}
