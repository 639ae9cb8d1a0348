package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/camplay/internal/action"
	"github.com/ayusman/camplay/internal/minigame"
	"github.com/ayusman/camplay/internal/store"
)

// ActionHandler handles HTTP requests for the action challenge game.
type ActionHandler struct {
	service *action.Service
	store   *store.Store
}

// NewActionHandler creates an ActionHandler. store may be nil to disable
// the history endpoint.
func NewActionHandler(s *action.Service, st *store.Store) *ActionHandler {
	return &ActionHandler{service: s, store: st}
}

// ServeHTTP routes /api/action/* requests.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/action/start" && r.Method == http.MethodPost:
		h.start(w, r)
	case r.URL.Path == "/api/action/stop" && r.Method == http.MethodPost:
		h.stop(w, r)
	case r.URL.Path == "/api/action/status" && r.Method == http.MethodGet:
		h.status(w, r)
	case r.URL.Path == "/api/action/history" && r.Method == http.MethodGet:
		h.history(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// start handles POST /api/action/start. The difficulty form value selects
// the challenge set, defaulting to easy.
func (h *ActionHandler) start(w http.ResponseWriter, r *http.Request) {
	difficulty := action.ParseDifficulty(r.FormValue("difficulty"))
	sessionID := uuid.NewString()

	if err := h.service.Start(sessionID, difficulty); err != nil {
		if errors.Is(err, minigame.ErrAlreadyRunning) {
			writeError(w, http.StatusBadRequest, "Action detection already running")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start action detection")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "started",
		"session_id": sessionID,
		"difficulty": string(difficulty),
	})
}

// stop handles POST /api/action/stop.
func (h *ActionHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(); err != nil {
		if errors.Is(err, minigame.ErrNotRunning) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "idle",
				"message": "No challenge session in progress",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop action detection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
}

// status handles GET /api/action/status.
func (h *ActionHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

// history handles GET /api/action/history?session_id=... and returns the
// completed challenges recorded for one session.
func (h *ActionHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "History store not configured")
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	challenges, err := h.store.ChallengesBySession(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if challenges == nil {
		challenges = []store.Challenge{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenges": challenges})
}
