package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/beargallbladder/golfswarm/internal/api/middleware"
	"github.com/beargallbladder/golfswarm/internal/api/shared"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/store"
)

// ShotGetter loads a single stored shot.
type ShotGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NormalizedShot, error)
}

// ShotHandler serves the shot-detail endpoint.
type ShotHandler struct {
	shots ShotGetter
}

// NewShotHandler creates a ShotHandler.
func NewShotHandler(shots ShotGetter) *ShotHandler {
	return &ShotHandler{shots: shots}
}

// GetShot handles GET /api/v1/shots/{shotID}. Shots belonging to another
// user are indistinguishable from missing ones.
func (h *ShotHandler) GetShot(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	shotID, err := uuid.Parse(chi.URLParam(r, "shotID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid shot ID")
		return
	}

	shot, err := h.shots.GetByID(r.Context(), shotID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if shot.UserID != userID {
		err := store.ErrShotNotFound
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, shot)
}
