package api

import (
	"context"
	"net/http"

	"github.com/beargallbladder/golfswarm/internal/api/shared"
	"github.com/beargallbladder/golfswarm/internal/domain"
	"github.com/beargallbladder/golfswarm/internal/swarm"
	"github.com/go-playground/validator/v10"
)

// RoadmapExecutor is the swarm contract the handler consumes.
type RoadmapExecutor interface {
	ExecuteRoadmap(ctx context.Context, tasks []domain.Task) *swarm.RoadmapResult
}

// RoadmapHandler serves the roadmap execution endpoint.
type RoadmapHandler struct {
	scheduler RoadmapExecutor
	validator *validator.Validate
}

// NewRoadmapHandler creates a RoadmapHandler.
func NewRoadmapHandler(scheduler RoadmapExecutor) *RoadmapHandler {
	return &RoadmapHandler{
		scheduler: scheduler,
		validator: validator.New(),
	}
}

// ExecuteRoadmap handles POST /api/v1/roadmap.
func (h *RoadmapHandler) ExecuteRoadmap(w http.ResponseWriter, r *http.Request) {
	var req RoadmapRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	tasks := make([]domain.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, t.toDomain())
	}

	result := h.scheduler.ExecuteRoadmap(r.Context(), tasks)
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
