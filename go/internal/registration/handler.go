package registration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mcdev12/vallamkali/go/internal/relay"
	"github.com/rs/zerolog/log"
)

// Publisher broadcasts a session-start to the displays.
type Publisher interface {
	StartSession(ctx context.Context, start relay.SessionStart, source string) (relay.Message, error)
}

// Handler serves the registration endpoints.
type Handler struct {
	app       *App
	publisher Publisher
}

func NewHandler(app *App, publisher Publisher) *Handler {
	return &Handler{app: app, publisher: publisher}
}

type errorResponse struct {
	Error  string `json:"error"`
	Player int    `json:"player,omitempty"`
}

// HandleRegister validates a form and starts a race on the displays.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req relay.SessionStart
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		relay.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	start, err := h.app.Register(req)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		var pe *PlayerError
		if errors.As(err, &pe) {
			resp.Player = pe.Player
		}
		relay.WriteJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	m, err := h.publisher.StartSession(r.Context(), start, relay.RoleRegistration)
	if err != nil {
		log.Error().Err(err).Msg("failed to publish session-start")
		relay.WriteJSON(w, http.StatusBadGateway, errorResponse{Error: "could not reach the displays"})
		return
	}
	relay.WriteJSON(w, http.StatusAccepted, m)
}

// HandleList returns recent registrations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	regs, err := h.app.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list registrations")
		relay.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list registrations"})
		return
	}
	relay.WriteJSON(w, http.StatusOK, regs)
}

// RegisterRoutes registers the registration routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.HandleRegister)
	mux.HandleFunc("/api/registrations", h.HandleList)
}
