package handler

import (
	"net/http"

	"github.com/helpdesk-ai/support-router/internal/agent"
)

// AgentsHandler exposes the agent capability listing.
type AgentsHandler struct{}

// NewAgentsHandler creates a new agents handler.
func NewAgentsHandler() *AgentsHandler {
	return &AgentsHandler{}
}

// List handles GET /api/v1/agents
func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": agent.Capabilities(),
	})
}
