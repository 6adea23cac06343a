package api

import (
	"net/http"

	"github.com/beargallbladder/golfswarm/internal/api/shared"
	"github.com/beargallbladder/golfswarm/internal/domain"
)

// StatusReporter supplies the per-worker health records.
type StatusReporter interface {
	AgentStatus() map[string]domain.AgentHealthStatus
}

// StatusHandler serves the worker health endpoint.
type StatusHandler struct {
	monitor StatusReporter
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(monitor StatusReporter) *StatusHandler {
	return &StatusHandler{monitor: monitor}
}

// GetAgentStatus handles GET /api/v1/agents/status.
func (h *StatusHandler) GetAgentStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, AgentStatusResponse{
		Agents: h.monitor.AgentStatus(),
	})
}
