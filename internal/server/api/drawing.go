package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/camplay/internal/drawing"
	"github.com/ayusman/camplay/internal/minigame"
)

// DrawingHandler handles HTTP requests for the gesture drawing game.
type DrawingHandler struct {
	service *drawing.Service
}

// NewDrawingHandler creates a DrawingHandler for the given service.
func NewDrawingHandler(s *drawing.Service) *DrawingHandler {
	return &DrawingHandler{service: s}
}

// ServeHTTP routes /api/drawing/* requests.
func (h *DrawingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/drawing/start" && r.Method == http.MethodPost:
		h.start(w, r)
	case r.URL.Path == "/api/drawing/stop" && r.Method == http.MethodPost:
		h.stop(w, r)
	case r.URL.Path == "/api/drawing/status" && r.Method == http.MethodGet:
		h.status(w, r)
	case r.URL.Path == "/api/drawing/recognize" && r.Method == http.MethodPost:
		h.recognize(w, r)
	case r.URL.Path == "/api/drawing/clear" && r.Method == http.MethodPost:
		h.clear(w, r)
	case r.URL.Path == "/api/drawing/color" && r.Method == http.MethodPost:
		h.color(w, r)
	case r.URL.Path == "/api/drawing/brush" && r.Method == http.MethodPost:
		h.brush(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// start handles POST /api/drawing/start. Form values mode and color select
// the drawing mode and initial brush color.
func (h *DrawingHandler) start(w http.ResponseWriter, r *http.Request) {
	mode := drawing.ParseMode(r.FormValue("mode"))

	id, err := h.service.Start(mode, r.FormValue("color"))
	if err != nil {
		if errors.Is(err, minigame.ErrAlreadyRunning) {
			writeError(w, http.StatusBadRequest, "A drawing session is already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start drawing session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "started",
		"session_id": id,
		"mode":       string(mode),
	})
}

// stop handles POST /api/drawing/stop. The final canvas recognition is
// included in the response.
func (h *DrawingHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(); err != nil {
		if errors.Is(err, minigame.ErrNotRunning) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "idle",
				"message": "No drawing session in progress",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop drawing session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "stopped",
		"final_recognition": h.service.Recognize(),
	})
}

// status handles GET /api/drawing/status.
func (h *DrawingHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}

// recognize handles POST /api/drawing/recognize and classifies the current
// canvas content.
func (h *DrawingHandler) recognize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Recognize())
}

// clear handles POST /api/drawing/clear.
func (h *DrawingHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear canvas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

// color handles POST /api/drawing/color. Unknown color names fall back to
// black; the applied color is echoed back.
func (h *DrawingHandler) color(w http.ResponseWriter, r *http.Request) {
	applied := h.service.SetColor(r.FormValue("color"))
	writeJSON(w, http.StatusOK, map[string]any{"color": applied})
}

// brush handles POST /api/drawing/brush with a size form value.
func (h *DrawingHandler) brush(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.FormValue("size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid brush size")
		return
	}

	h.service.SetBrushSize(size)
	writeJSON(w, http.StatusOK, map[string]any{"brush_size": h.service.Status().BrushSize})
}
