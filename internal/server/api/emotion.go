package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/camplay/internal/emotion"
	"github.com/ayusman/camplay/internal/minigame"
)

// EmotionHandler handles HTTP requests for emotion analysis.
type EmotionHandler struct {
	service *emotion.Service
}

// NewEmotionHandler creates an EmotionHandler for the given service.
func NewEmotionHandler(s *emotion.Service) *EmotionHandler {
	return &EmotionHandler{service: s}
}

// ServeHTTP routes /api/emotion/* requests.
func (h *EmotionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/emotion/analyze/image" && r.Method == http.MethodPost:
		h.analyzeImage(w, r)
	case r.URL.Path == "/api/emotion/start" && r.Method == http.MethodPost:
		h.start(w, r)
	case r.URL.Path == "/api/emotion/stop" && r.Method == http.MethodPost:
		h.stop(w, r)
	case r.URL.Path == "/api/emotion/status" && r.Method == http.MethodGet:
		h.status(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// analyzeImage handles POST /api/emotion/analyze/image: one uploaded image
// is analyzed outside any running session.
func (h *EmotionHandler) analyzeImage(w http.ResponseWriter, r *http.Request) {
	img, err := decodeUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode uploaded image")
		return
	}
	defer img.Close()

	result, found, err := h.service.AnalyzeFrame(&img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Emotion analysis failed")
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{
			"face_detected": false,
			"message":       "No face found in the image",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"face_detected": true,
		"emotion":       result.Emotion,
		"confidence":    result.Confidence,
		"scores":        result.Scores,
	})
}

// start handles POST /api/emotion/start.
func (h *EmotionHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Start(); err != nil {
		if errors.Is(err, minigame.ErrAlreadyRunning) {
			writeError(w, http.StatusBadRequest, "Emotion analysis already running")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start emotion analysis")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "started"})
}

// stop handles POST /api/emotion/stop.
func (h *EmotionHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Stop(); err != nil {
		if errors.Is(err, minigame.ErrNotRunning) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":  "idle",
				"message": "No analysis session in progress",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to stop emotion analysis")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
}

// status handles GET /api/emotion/status.
func (h *EmotionHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Status())
}
