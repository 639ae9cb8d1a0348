// Package server provides the HTTP and websocket server for the camplay
// game backend.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/camplay/internal/action"
	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/drawing"
	"github.com/ayusman/camplay/internal/emotion"
	"github.com/ayusman/camplay/internal/game"
	"github.com/ayusman/camplay/internal/gesture"
	"github.com/ayusman/camplay/internal/recognize"
	"github.com/ayusman/camplay/internal/server/api"
	"github.com/ayusman/camplay/internal/session"
	"github.com/ayusman/camplay/internal/store"
)

// Config holds the server dependencies. Nil services leave their routes
// unregistered, which keeps tests and partial deployments simple.
type Config struct {
	AllowedOrigin       string
	ConfidenceThreshold float64
	StaticDir           string

	Broadcaster *broadcast.Broadcaster
	Game        *game.Game
	Recognizer  recognize.Recognizer
	Gesture     *gesture.Service
	Action      *action.Service
	Emotion     *emotion.Service
	Drawing     *drawing.Service
	Hands       detector.HandDetector
	Store       *store.Store
}

// Server is the HTTP server for the camplay application.
type Server struct {
	config  Config
	mux     *http.ServeMux
	arbiter *session.Arbiter
	start   time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	if config.Game != nil && config.Broadcaster != nil && config.Recognizer != nil {
		s.arbiter = session.NewArbiter(config.Game, config.Broadcaster, config.Recognizer, config.ConfidenceThreshold)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Game != nil && s.config.Recognizer != nil {
		rps := api.NewRPSHandler(s.config.Game, s.config.Recognizer, s.config.Store, s.config.ConfidenceThreshold)
		s.mux.Handle("/api/rps/", rps)
	}
	if s.config.Gesture != nil {
		s.mux.Handle("/api/gesture/", api.NewGestureHandler(s.config.Gesture))
	}
	if s.config.Action != nil {
		s.mux.Handle("/api/action/", api.NewActionHandler(s.config.Action, s.config.Store))
	}
	if s.config.Emotion != nil {
		s.mux.Handle("/api/emotion/", api.NewEmotionHandler(s.config.Emotion))
	}
	if s.config.Drawing != nil {
		s.mux.Handle("/api/drawing/", api.NewDrawingHandler(s.config.Drawing))
	}

	if s.arbiter != nil {
		s.mux.HandleFunc("/ws/rps", s.handleRPSSocket)
	}
	if s.config.Broadcaster != nil {
		s.mux.HandleFunc("/ws/gesture", s.forwardSocket(gesture.Channel))
		s.mux.HandleFunc("/ws/action", s.forwardSocket(action.Channel))
	}
	if s.config.Emotion != nil {
		s.mux.HandleFunc("/ws/emotion", s.handleEmotionSocket)
	}
	if s.config.Drawing != nil && s.config.Hands != nil {
		s.mux.HandleFunc("/ws/drawing", s.handleDrawingSocket)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface with CORS headers on
// every response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := s.config.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
