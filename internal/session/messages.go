package session

import (
	"time"

	"github.com/ayusman/camplay/internal/game"
)

// clientMessage is the envelope for everything a websocket client sends.
// The Type field decides which other fields are meaningful.
type clientMessage struct {
	Type string `json:"type"`

	// frame
	Image     string  `json:"image,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`

	// game_control
	Action      string `json:"action,omitempty"`
	TargetScore int    `json:"target_score,omitempty"`

	// no_gesture_detected
	UnknownConfidence float64 `json:"unknown_confidence,omitempty"`
}

type pongMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// recognitionResult echoes what the recognizer saw in a submitted frame,
// whether or not the gesture was good enough to count as player input.
type recognitionResult struct {
	Type       string  `json:"type"`
	Gesture    string  `json:"gesture"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
	IsValid    bool    `json:"is_valid"`
}

type gestureSetMessage struct {
	Type    string `json:"type"`
	Gesture string `json:"gesture"`
	Message string `json:"message"`
}

// controlAck confirms a game_control request. Status is "started",
// "stopped" or "idle"; Summary is set on a successful stop.
type controlAck struct {
	Type        string        `json:"type"`
	Action      string        `json:"action"`
	Status      string        `json:"status"`
	GameID      string        `json:"game_id,omitempty"`
	TargetScore int           `json:"target_score,omitempty"`
	Summary     *game.Summary `json:"summary,omitempty"`
}

// gameStateMessage is a broadcast event re-tagged for the integrated
// websocket: the event shape plus a type so clients can route it.
type gameStateMessage struct {
	Type      string         `json:"type"`
	Channel   string         `json:"channel"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func errorReply(message string) errorMessage {
	return errorMessage{Type: "error", Message: message}
}
