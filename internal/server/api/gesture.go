package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/camplay/internal/gesture"
	"github.com/ayusman/camplay/internal/minigame"
	"github.com/ayusman/camplay/internal/recognize"
)

// GestureHandler handles HTTP requests for the gesture detection session.
type GestureHandler struct {
	service *gesture.Service
}

// NewGestureHandler creates a GestureHandler for the given service.
func NewGestureHandler(s *gesture.Service) *GestureHandler {
	return &GestureHandler{service: s}
}

// ServeHTTP routes /api/gesture/* requests.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/gesture/start" && r.Method == http.MethodPost:
		h.start(w, r)
	case r.URL.Path == "/api/gesture/stop" && r.Method == http.MethodPost:
		h.stop(w, r)
	case r.URL.Path == "/api/gesture/status" && r.Method == http.MethodGet:
		h.status(w, r)
	case r.URL.Path == "/api/gesture/current" && r.Method == http.MethodGet:
		h.current(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// start handles POST /api/gesture/start. An optional duration form value
// (seconds) limits the session length.
func (h *GestureHandler) start(w http.ResponseWriter, r *http.Request) {
	var duration time.Duration
	if v := r.FormValue("duration"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 0 {
			writeError(w, http.StatusBadRequest, "Invalid duration")
			return
		}
		duration = time.Duration(seconds) * time.Second
	}

	if err := h.service.Start(duration); err != nil {
		switch {
		case errors.Is(err, minigame.ErrAlreadyRunning):
			writeError(w, http.StatusBadRequest, "Gesture detection already running")
		case errors.Is(err, recognize.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Gesture recognizer unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to start gesture detection")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "started",
		"duration_seconds": int(duration.Seconds()),
	})
}

// stop handles POST /api/gesture/stop.
func (h *GestureHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(); err != nil {
		if errors.Is(err, minigame.ErrNotRunning) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "idle",
				"message": "No detection session in progress",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop gesture detection")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
}

// status handles GET /api/gesture/status.
func (h *GestureHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

// current handles GET /api/gesture/current.
func (h *GestureHandler) current(w http.ResponseWriter, r *http.Request) {
	label, confidence := h.service.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"gesture":    label,
		"confidence": confidence,
	})
}
