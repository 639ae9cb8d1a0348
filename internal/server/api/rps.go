package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/camplay/internal/game"
	"github.com/ayusman/camplay/internal/recognize"
	"github.com/ayusman/camplay/internal/store"
)

// RPSHandler handles HTTP requests for the rock-paper-scissors game.
type RPSHandler struct {
	game       *game.Game
	recognizer recognize.Recognizer
	store      *store.Store
	threshold  float64
}

// NewRPSHandler creates an RPSHandler. store may be nil to disable the
// history endpoints; threshold is the minimum confidence for a submitted
// image to count as the player's throw.
func NewRPSHandler(g *game.Game, r recognize.Recognizer, s *store.Store, threshold float64) *RPSHandler {
	return &RPSHandler{game: g, recognizer: r, store: s, threshold: threshold}
}

// ServeHTTP routes /api/rps/* requests.
func (h *RPSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/rps/start":
		h.requirePost(w, r, h.start)
	case "/api/rps/stop":
		h.requirePost(w, r, h.stop)
	case "/api/rps/status":
		h.requireGet(w, r, h.status)
	case "/api/rps/submit":
		h.requirePost(w, r, h.submit)
	case "/api/rps/history":
		h.requireGet(w, r, h.history)
	case "/api/rps/stats":
		h.requireGet(w, r, h.stats)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *RPSHandler) requirePost(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	fn(w, r)
}

func (h *RPSHandler) requireGet(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	fn(w, r)
}

type startGameRequest struct {
	TargetScore int `json:"target_score"`
}

// start handles POST /api/rps/start.
func (h *RPSHandler) start(w http.ResponseWriter, r *http.Request) {
	req := startGameRequest{TargetScore: 3}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.TargetScore < 1 {
		req.TargetScore = 1
	}

	if err := h.game.Start(req.TargetScore); err != nil {
		switch {
		case errors.Is(err, game.ErrAlreadyRunning):
			writeError(w, http.StatusBadRequest, "A game is already in progress")
		case errors.Is(err, game.ErrRecognizerUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Gesture recognizer unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to start game")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "started",
		"game_id":      h.game.Status().GameID,
		"target_score": req.TargetScore,
	})
}

// stop handles POST /api/rps/stop.
func (h *RPSHandler) stop(w http.ResponseWriter, r *http.Request) {
	summary, err := h.game.Stop()
	if errors.Is(err, game.ErrNotRunning) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "idle",
			"message": "No game in progress",
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to stop game")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "stopped",
		"summary": summary,
	})
}

// status handles GET /api/rps/status.
func (h *RPSHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.game.Status())
}

// submit handles POST /api/rps/submit: an uploaded image is classified and,
// when readable and confident enough, becomes the player's throw.
func (h *RPSHandler) submit(w http.ResponseWriter, r *http.Request) {
	img, err := decodeUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not decode uploaded image")
		return
	}
	defer img.Close()

	result, err := h.recognizer.Detect(&img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Gesture recognition failed")
		return
	}

	gesture := game.Gesture(result.Label)
	accepted := false
	if gesture.Valid() && result.Confidence > h.threshold {
		accepted = h.game.SetPlayerGesture(gesture)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gesture":    result.Label,
		"confidence": result.Confidence,
		"is_valid":   result.Label != recognize.LabelUnknown,
		"accepted":   accepted,
	})
}

// history handles GET /api/rps/history. With a game_id query parameter it
// returns that game's rounds in order, otherwise the most recent rounds.
func (h *RPSHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "History store not configured")
		return
	}

	var (
		rounds []store.Round
		err    error
	)
	if gameID := r.URL.Query().Get("game_id"); gameID != "" {
		rounds, err = h.store.RoundsByGame(gameID)
	} else {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rounds, err = h.store.RecentRounds(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}
	if rounds == nil {
		rounds = []store.Round{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds})
}

// stats handles GET /api/rps/stats.
func (h *RPSHandler) stats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "History store not configured")
		return
	}

	stats, err := h.store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
