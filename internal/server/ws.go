package server

import (
	"encoding/json"
	"image"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/drawing"
	"github.com/ayusman/camplay/internal/recognize"
	"github.com/ayusman/camplay/internal/session"
)

var upgrader = websocket.Upgrader{
	// Cross-origin browsers are allowed; the API is origin-checked by the
	// CORS layer and the socket endpoints carry no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleRPSSocket upgrades /ws/rps and hands the connection to the
// integrated game arbiter.
func (s *Server) handleRPSSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: upgrade /ws/rps: %v", err)
		return
	}
	s.arbiter.Serve(conn)
}

// forwardSocket returns a handler that streams one broadcast channel.
func (s *Server) forwardSocket(channel string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("server: upgrade /ws/%s: %v", channel, err)
			return
		}
		session.Forward(conn, s.config.Broadcaster, channel)
	}
}

type emotionFrameMessage struct {
	Type      string  `json:"type"`
	Image     string  `json:"image"`
	Timestamp float64 `json:"timestamp"`
}

// handleEmotionSocket answers per-frame emotion analysis on /ws/emotion.
// Every frame message gets a result reply; pings get a plain text pong.
func (s *Server) handleEmotionSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: upgrade /ws/emotion: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg emotionFrameMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			if writeErr := conn.WriteJSON(map[string]any{
				"type":    "error",
				"message": "invalid JSON message",
			}); writeErr != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "ping":
			if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}

		case "frame":
			if err := conn.WriteJSON(s.analyzeEmotionFrame(msg)); err != nil {
				return
			}

		default:
			echo := string(raw)
			if len(echo) > 200 {
				echo = echo[:200]
			}
			if err := conn.WriteJSON(map[string]any{
				"type":          "error",
				"message":       "unsupported message type: " + msg.Type,
				"received_data": echo,
			}); err != nil {
				return
			}
		}
	}
}

func (s *Server) analyzeEmotionFrame(msg emotionFrameMessage) map[string]any {
	img, err := recognize.DecodeFrame(msg.Image)
	if err != nil {
		return map[string]any{
			"type":      "error",
			"message":   "could not decode frame image",
			"timestamp": msg.Timestamp,
		}
	}
	defer img.Close()

	result, found, err := s.config.Emotion.AnalyzeFrame(&img)
	if err != nil {
		return map[string]any{
			"type":      "error",
			"message":   "emotion analysis failed",
			"timestamp": msg.Timestamp,
		}
	}
	if !found {
		return map[string]any{
			"type":          "result",
			"face_detected": false,
			"timestamp":     msg.Timestamp,
		}
	}

	return map[string]any{
		"type":          "result",
		"face_detected": true,
		"emotion":       result.Emotion,
		"confidence":    result.Confidence,
		"scores":        result.Scores,
		"timestamp":     msg.Timestamp,
	}
}

type drawingSocketMessage struct {
	Type      string  `json:"type"`
	ClientID  string  `json:"client_id,omitempty"`
	Mode      string  `json:"mode,omitempty"`
	Color     string  `json:"color,omitempty"`
	Image     string  `json:"image,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
}

// handleDrawingSocket runs the interactive gesture drawing protocol on
// /ws/drawing. Frames stream from the client, so no camera session is
// started; fingertip positions are applied straight to the canvas.
func (s *Server) handleDrawingSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: upgrade /ws/drawing: %v", err)
		return
	}
	defer conn.Close()

	wsID := "ws_" + uuid.NewString()
	active := false
	sessionID := ""

	if err := conn.WriteJSON(map[string]any{
		"type":       "opened",
		"session_id": wsID,
		"status":     "ready",
	}); err != nil {
		return
	}

	for {
		var msg drawingSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		var reply any
		switch msg.Type {
		case "open":
			reply = map[string]any{
				"type":       "connection_confirmed",
				"session_id": wsID,
				"client_id":  msg.ClientID,
				"status":     "active",
			}

		case "start_gesture_drawing":
			s.config.Drawing.SetMode(drawing.ParseMode(msg.Mode))
			color := s.config.Drawing.SetColor(msg.Color)
			if err := s.config.Drawing.Clear(); err != nil {
				reply = wsError("could not reset canvas", msg.Timestamp)
				break
			}
			active = true
			sessionID = uuid.NewString()
			reply = map[string]any{
				"type":       "drawing_started",
				"session_id": sessionID,
				"mode":       msg.Mode,
				"color":      color,
				"timestamp":  msg.Timestamp,
			}

		case "camera_frame":
			if !active {
				reply = wsError("no active gesture drawing session", msg.Timestamp)
				break
			}
			reply = s.applyDrawingFrame(msg)

		case "change_color":
			if !active {
				reply = wsError("no active gesture drawing session", msg.Timestamp)
				break
			}
			if _, ok := drawing.LookupColor(msg.Color); !ok {
				reply = wsError("invalid color: "+msg.Color, msg.Timestamp)
				break
			}
			reply = map[string]any{
				"type":      "color_changed",
				"color":     s.config.Drawing.SetColor(msg.Color),
				"timestamp": msg.Timestamp,
			}

		case "stop_drawing":
			if !active {
				reply = wsError("no active gesture drawing session", msg.Timestamp)
				break
			}
			active = false
			s.config.Drawing.PenUp()
			reply = map[string]any{
				"type":              "drawing_stopped",
				"session_id":        sessionID,
				"final_recognition": s.config.Drawing.Recognize(),
				"timestamp":         msg.Timestamp,
			}

		case "close":
			s.config.Drawing.PenUp()
			conn.WriteJSON(map[string]any{
				"type":       "closed",
				"session_id": wsID,
				"reason":     "client_request",
			})
			return

		case "ping":
			reply = map[string]any{"type": "pong", "timestamp": msg.Timestamp}

		case "pong":
			// Heartbeat ack, nothing to do.

		default:
			reply = wsError("unsupported message type: "+msg.Type, msg.Timestamp)
		}

		if reply != nil {
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}
}

// applyDrawingFrame detects the hand in a streamed frame and applies the
// fingertip to the canvas, answering with the updated canvas image.
func (s *Server) applyDrawingFrame(msg drawingSocketMessage) any {
	img, err := recognize.DecodeFrame(msg.Image)
	if err != nil {
		return wsError("could not decode frame image", msg.Timestamp)
	}
	defer img.Close()

	hands, err := s.config.Hands.Detect(&img)
	if err != nil {
		return wsError("hand detection failed", msg.Timestamp)
	}

	if len(hands) == 0 {
		s.config.Drawing.PenUp()
		return map[string]any{
			"type":          "gesture_status",
			"hand_detected": false,
			"timestamp":     msg.Timestamp,
		}
	}

	hand := hands[0]
	tip := hand.Points[detector.IndexTip]
	fingers := hand.FingersUp()
	p := image.Point{
		X: drawing.CanvasWidth - int(tip.X*drawing.CanvasWidth),
		Y: int(tip.Y * drawing.CanvasHeight),
	}
	s.config.Drawing.DrawAt(p, fingers)

	canvas, err := s.config.Drawing.CanvasPNG()
	if err != nil {
		return wsError("could not encode canvas", msg.Timestamp)
	}
	return map[string]any{
		"type":          "canvas_update",
		"hand_detected": true,
		"fingers_up":    fingers,
		"canvas_base64": canvas,
		"stroke_count":  s.config.Drawing.Status().Strokes,
		"timestamp":     msg.Timestamp,
	}
}

func wsError(message string, timestamp float64) map[string]any {
	return map[string]any{
		"type":      "error",
		"message":   message,
		"timestamp": timestamp,
	}
}
