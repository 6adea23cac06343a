package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/beargallbladder/golfswarm/internal/api/middleware"
	"github.com/beargallbladder/golfswarm/internal/api/shared"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/pipeline"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// recentShotLimit bounds how much club history the equipment comparison
// loads per request.
const recentShotLimit = 50

// ShotPipeline is the upload-processing contract the handler consumes.
type ShotPipeline interface {
	ProcessUpload(ctx context.Context, payload *domain.MediaPayload, user *domain.User, reqCtx *domain.RequestContext) *pipeline.Response
	ProcessBatch(ctx context.Context, payloads []*domain.MediaPayload, user *domain.User, reqCtx *domain.RequestContext) *pipeline.BatchResponse
}

// ShotReader loads a user's recent shots for the equipment comparison.
type ShotReader interface {
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.NormalizedShot, error)
}

// UploadHandler serves the single and batch shot-upload endpoints.
type UploadHandler struct {
	pipeline    ShotPipeline
	shots       ShotReader
	validator   *validator.Validate
	development bool
	logger      *slog.Logger
}

// NewUploadHandler creates an UploadHandler. shots is optional; without it
// the equipment comparison sees only the uploaded shot.
func NewUploadHandler(p ShotPipeline, shots ShotReader, development bool, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		pipeline:    p,
		shots:       shots,
		validator:   validator.New(),
		development: development,
		logger:      logger.With("component", "upload_handler"),
	}
}

// ProcessUpload handles POST /api/v1/uploads.
func (h *UploadHandler) ProcessUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UploadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	payload, err := domain.NewMediaPayload(domain.MediaKind(req.Kind), req.Source, req.MIMEType, req.Content, 1.0)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	user := h.loadUser(r.Context(), userID, req.SkillLevel, req.Handicap)
	reqCtx := &domain.RequestContext{
		Device:      domain.DeviceClass(req.Device),
		Development: h.development,
	}

	resp := h.pipeline.ProcessUpload(r.Context(), payload, user, reqCtx)

	status := http.StatusOK
	if !resp.Success {
		// Validation rejections are client data problems; everything
		// else failed inside the pipeline.
		if resp.Error == pipeline.ErrCodeValidationFailed {
			status = http.StatusUnprocessableEntity
		} else {
			status = http.StatusInternalServerError
		}
	}
	shared.RespondWithJSON(w, r, status, resp)
}

// ProcessBatch handles POST /api/v1/uploads/batch.
func (h *UploadHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req BatchUploadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	payloads := make([]*domain.MediaPayload, 0, len(req.Uploads))
	for _, upload := range req.Uploads {
		payload, err := domain.NewMediaPayload(domain.MediaKind(upload.Kind), upload.Source, upload.MIMEType, upload.Content, 1.0)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
			return
		}
		payloads = append(payloads, payload)
	}

	user := h.loadUser(r.Context(), userID, req.SkillLevel, req.Handicap)
	reqCtx := &domain.RequestContext{
		Device:      domain.DeviceClass(req.Device),
		Development: h.development,
	}

	resp := h.pipeline.ProcessBatch(r.Context(), payloads, user, reqCtx)

	// A batch with failures still returns the per-item detail; the batch
	// call itself succeeded.
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// loadUser assembles the pipeline's user profile from the token identity,
// the request's profile hints, and stored shot history. History load
// failures degrade to an empty history, never fail the upload.
func (h *UploadHandler) loadUser(ctx context.Context, userID uuid.UUID, skillLevel string, handicap float64) *domain.User {
	user := &domain.User{
		ID:         userID,
		SkillLevel: domain.SkillLevel(skillLevel),
		Handicap:   handicap,
	}

	if h.shots == nil {
		return user
	}
	recent, err := h.shots.ListRecentByUser(ctx, userID, recentShotLimit)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load recent shots, continuing without history",
			"user_id", userID, "error", err)
		return user
	}
	user.RecentShots = recent
	return user
}
