package relay

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves the relay websocket and its REST companions.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// HandleRelayConnection upgrades a client. The optional role query
// parameter is display or registration.
func (h *Handler) HandleRelayConnection(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	switch role {
	case "", RoleDisplay, RoleRegistration:
	default:
		http.Error(w, "role must be display or registration", http.StatusBadRequest)
		return
	}

	// Upgrade writes its own error response.
	if _, err := h.service.hub.Upgrade(w, r, role); err != nil {
		log.Error().Err(err).Str("role", role).Msg("failed to upgrade relay connection")
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.service.GetStats())
}

// HandleRestart broadcasts a session-restart on behalf of an HTTP caller.
func (h *Handler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = RoleRegistration
	}
	m, err := h.service.RestartSession(r.Context(), source)
	if err != nil {
		log.Error().Err(err).Msg("failed to restart session")
		http.Error(w, "failed to restart session", http.StatusBadGateway)
		return
	}
	WriteJSON(w, http.StatusAccepted, m)
}

// RegisterRoutes registers relay routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/relay", h.HandleRelayConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("/api/restart", h.HandleRestart)
}

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}
