package api

import (
	"errors"
	"net/http"

	"github.com/beargallbladder/golfswarm/internal/auth"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrShotNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrEmptyMediaID),
		errors.Is(err, domain.ErrEmptyMediaContent),
		errors.Is(err, domain.ErrInvalidConfidence),
		errors.Is(err, domain.ErrEmptyTaskID),
		errors.Is(err, domain.ErrEmptyTaskType),
		errors.Is(err, domain.ErrUnknownLane):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"

	case errors.Is(err, store.ErrShotNotFound):
		return "Shot not found"

	case errors.Is(err, store.ErrJobNotFound):
		return "Queued job not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrEmptyMediaContent):
		return "Upload content cannot be empty"

	case errors.Is(err, domain.ErrEmptyTaskID),
		errors.Is(err, domain.ErrEmptyTaskType):
		return "Task is missing required fields"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
