// Package session bridges websocket connections to the game services:
// an integrated arbiter connection for rock-paper-scissors and
// channel-filtered event forwarders for the other mini-games.
package session

import (
	"errors"
	"log"

	"github.com/gorilla/websocket"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/game"
	"github.com/ayusman/camplay/internal/recognize"
)

// DefaultConfidenceThreshold is the minimum recognition confidence for a
// frame to count as the player's throw.
const DefaultConfidenceThreshold = 0.6

// Arbiter serves the integrated rock-paper-scissors websocket. One
// connection carries game control, frame recognition and the game state
// broadcast, so clients only manage a single socket.
type Arbiter struct {
	game        *game.Game
	broadcaster *broadcast.Broadcaster
	recognizer  recognize.Recognizer
	threshold   float64
}

// NewArbiter wires an arbiter to the game machine. A threshold of 0 or
// less falls back to DefaultConfidenceThreshold.
func NewArbiter(g *game.Game, b *broadcast.Broadcaster, r recognize.Recognizer, threshold float64) *Arbiter {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Arbiter{
		game:        g,
		broadcaster: b,
		recognizer:  r,
		threshold:   threshold,
	}
}

// Serve runs the connection until the client disconnects. It owns all
// writes to the socket; a read pump feeds client messages into the same
// loop that drains the status broadcast, so the two never interleave.
func (a *Arbiter) Serve(conn *websocket.Conn) {
	defer conn.Close()

	sub := a.broadcaster.Subscribe()
	defer a.broadcaster.Unsubscribe(sub)

	inbound := make(chan clientMessage, 1)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		defer close(inbound)
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-quit:
				return
			}
		}
	}()

	log.Printf("session: arbiter connection open")
	defer log.Printf("session: arbiter connection closed")

	for {
		select {
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			if reply := a.handle(msg); reply != nil {
				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			}

		case ev, ok := <-sub.C:
			if !ok {
				// The broadcaster dropped us for falling behind.
				log.Printf("session: arbiter subscription dropped")
				return
			}
			if ev.Channel != game.Channel {
				continue
			}
			state := gameStateMessage{
				Type:      "game_state",
				Channel:   ev.Channel,
				Stage:     ev.Stage,
				Message:   ev.Message,
				Data:      ev.Data,
				Timestamp: ev.Timestamp,
			}
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}

// handle routes one client message and returns the reply to write, or nil
// for none. Unknown message types get an error reply but keep the
// connection open.
func (a *Arbiter) handle(msg clientMessage) any {
	switch msg.Type {
	case "ping":
		return pongMessage{Type: "pong"}

	case "frame":
		return a.handleFrame(msg)

	case "no_gesture_detected":
		if a.game.SetPlayerUnknown() {
			log.Printf("session: player gesture set to unknown (client confidence %.2f)", msg.UnknownConfidence)
		}
		return gestureSetMessage{
			Type:    "gesture_set",
			Gesture: recognize.LabelUnknown,
			Message: "no gesture detected, the round continues",
		}

	case "game_control":
		return a.handleControl(msg)

	default:
		return errorReply("unsupported message type: " + msg.Type)
	}
}

// handleFrame recognizes a camera frame and, when the gesture is readable
// and confident enough, submits it as the player's throw. The recognition
// result is always echoed back so the client can render live feedback.
func (a *Arbiter) handleFrame(msg clientMessage) any {
	img, err := recognize.DecodeFrame(msg.Image)
	if err != nil {
		log.Printf("session: decode frame: %v", err)
		return errorReply("could not decode frame image")
	}
	defer img.Close()

	result, err := a.recognizer.Detect(&img)
	if err != nil {
		log.Printf("session: recognize frame: %v", err)
		return errorReply("gesture recognition failed")
	}

	gesture := game.Gesture(result.Label)
	if gesture.Valid() && result.Confidence > a.threshold {
		if a.game.SetPlayerGesture(gesture) {
			log.Printf("session: player gesture set to %s (%.0f%%)", gesture, result.Confidence*100)
		}
	}

	return recognitionResult{
		Type:       "recognition_result",
		Gesture:    result.Label,
		Confidence: result.Confidence,
		Timestamp:  msg.Timestamp,
		IsValid:    result.Label != recognize.LabelUnknown,
	}
}

func (a *Arbiter) handleControl(msg clientMessage) any {
	switch msg.Action {
	case "start_game":
		target := msg.TargetScore
		if target < 1 {
			target = 1
		}
		if err := a.game.Start(target); err != nil {
			log.Printf("session: start game: %v", err)
			return errorReply("could not start game: " + err.Error())
		}
		return controlAck{
			Type:        "control_ack",
			Action:      msg.Action,
			Status:      "started",
			GameID:      a.game.Status().GameID,
			TargetScore: target,
		}

	case "stop_game":
		summary, err := a.game.Stop()
		if errors.Is(err, game.ErrNotRunning) {
			return controlAck{Type: "control_ack", Action: msg.Action, Status: "idle"}
		}
		if err != nil {
			log.Printf("session: stop game: %v", err)
			return errorReply("could not stop game: " + err.Error())
		}
		return controlAck{
			Type:    "control_ack",
			Action:  msg.Action,
			Status:  "stopped",
			GameID:  summary.GameID,
			Summary: &summary,
		}

	default:
		return errorReply("unknown game control action: " + msg.Action)
	}
}
