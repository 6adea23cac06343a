package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/beargallbladder/golfswarm/internal/auth"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"shot not found", store.ErrShotNotFound, http.StatusNotFound},
		{"job not found", store.ErrJobNotFound, http.StatusNotFound},
		{"generic not found", store.ErrNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"empty media content", domain.ErrEmptyMediaContent, http.StatusBadRequest},
		{"empty task id", domain.ErrEmptyTaskID, http.StatusBadRequest},
		{"unknown lane", domain.ErrUnknownLane, http.StatusBadRequest},
		{"wrapped sentinel", fmt.Errorf("saving shot: %w", store.ErrDuplicate), http.StatusConflict},
		{"unknown error", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Token expired", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Shot not found", GetSafeErrorMessage(store.ErrShotNotFound))
	assert.Equal(t, "Resource already exists", GetSafeErrorMessage(store.ErrDuplicate))
	assert.Equal(t, "Task is missing required fields", GetSafeErrorMessage(domain.ErrEmptyTaskType))

	// Internal detail must never reach the client.
	leaky := errors.New("pq: connection to host 10.0.0.3 refused")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
