package drawing

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/minigame"
)

// Channel is the broadcast channel drawing events are published on.
const Channel = "drawing"

const stopJoinTimeout = 2 * time.Second

// Mode selects how fingertip tracking maps to canvas actions.
type Mode string

const (
	// ModeIndexFinger draws while only the index finger is up.
	ModeIndexFinger Mode = "index_finger"

	// ModeBothFingers draws while index and middle fingers are up.
	ModeBothFingers Mode = "both_fingers"

	// ModeGestureControl maps finger counts to draw, erase and clear.
	ModeGestureControl Mode = "gesture_control"
)

// ParseMode maps a request string to a Mode, defaulting to index finger.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeBothFingers:
		return ModeBothFingers
	case ModeGestureControl:
		return ModeGestureControl
	default:
		return ModeIndexFinger
	}
}

// Status is a snapshot of the drawing session.
type Status struct {
	Drawing   bool    `json:"is_drawing"`
	SessionID string  `json:"session_id,omitempty"`
	Mode      Mode    `json:"current_mode"`
	Color     string  `json:"current_color"`
	BrushSize int     `json:"brush_size"`
	Strokes   int     `json:"total_strokes"`
	Duration  float64 `json:"duration"`
}

// Config tunes the session loop.
type Config struct {
	// FrameDelay is the pause between captured frames. Default ~33ms.
	FrameDelay time.Duration

	// RecognitionInterval is how often the canvas is auto-recognized
	// and broadcast. Zero disables auto recognition.
	RecognitionInterval time.Duration
}

// Service runs gesture drawing sessions over the shared runner.
type Service struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	hands       detector.HandDetector
	runner      *minigame.Runner

	mu        sync.Mutex
	canvas    *Canvas
	sessionID string
	mode      Mode
	started   time.Time
	lastRecog time.Time
}

// New creates an idle drawing service.
func New(cfg Config, b *broadcast.Broadcaster, hands detector.HandDetector, camera capture.Camera) *Service {
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = 33 * time.Millisecond
	}

	return &Service{
		cfg:         cfg,
		broadcaster: b,
		hands:       hands,
		runner:      minigame.NewRunner("drawing", camera, cfg.FrameDelay),
		canvas:      NewCanvas(),
		mode:        ModeIndexFinger,
	}
}

// Start begins a drawing session and returns its id. Camera sessions need
// the hand detector; the websocket frame path does not go through here.
func (s *Service) Start(mode Mode, colorName string) (string, error) {
	if s.hands == nil {
		return "", errors.New("hand detector unavailable")
	}

	s.mu.Lock()
	s.sessionID = uuid.NewString()
	s.mode = mode
	s.canvas.Clear()
	colorName = s.canvas.SetColor(colorName)
	s.started = time.Now()
	s.lastRecog = time.Now()
	id := s.sessionID
	s.mu.Unlock()

	err := s.runner.Start(minigame.Hooks{
		Process: s.processFrame,
		OnError: func(err error) {
			s.publish("error", err.Error(), nil)
		},
		OnExit: s.publishStopped,
	})
	if err != nil {
		return "", err
	}

	s.publish("started", "drawing session started", map[string]any{
		"session_id": id,
		"mode":       string(mode),
		"color":      colorName,
	})
	return id, nil
}

// Stop ends the session.
func (s *Service) Stop() error {
	return s.runner.Stop(stopJoinTimeout)
}

// Running reports whether a session is active.
func (s *Service) Running() bool {
	return s.runner.Running()
}

// Status returns a snapshot of the session.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Drawing:   s.runner.Running(),
		SessionID: s.sessionID,
		Mode:      s.mode,
		Color:     s.canvas.Color(),
		BrushSize: s.canvas.BrushSize(),
		Strokes:   s.canvas.Strokes(),
	}
	if !s.started.IsZero() {
		status.Duration = time.Since(s.started).Seconds()
	}
	return status
}

// SetMode switches how finger poses map to canvas actions.
func (s *Service) SetMode(mode Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.canvas.PenUp()
}

// SetColor switches the brush color and reports the applied name.
func (s *Service) SetColor(name string) string {
	return s.canvas.SetColor(name)
}

// SetBrushSize sets the brush diameter.
func (s *Service) SetBrushSize(size int) {
	s.canvas.SetBrushSize(size)
}

// Recognize classifies the current canvas content.
func (s *Service) Recognize() Recognition {
	snapshot := s.canvas.Snapshot()
	defer snapshot.Close()
	return RecognizeShape(snapshot)
}

// CanvasPNG returns the canvas as a base64 PNG data URL.
func (s *Service) CanvasPNG() (string, error) {
	return s.canvas.EncodePNG()
}

// Clear wipes the canvas and broadcasts the blank image.
func (s *Service) Clear() error {
	s.canvas.Clear()

	img, err := s.canvas.EncodePNG()
	if err != nil {
		return err
	}
	s.publish("canvas_cleared", "canvas cleared", map[string]any{
		"canvas_image": img,
	})
	return nil
}

// DrawAt applies a fingertip position directly, bypassing the camera.
// Used by the websocket frame path.
func (s *Service) DrawAt(p image.Point, fingers [5]bool) {
	s.applyFingers(p, fingers)
}

// PenUp ends the current stroke. The websocket frame path calls this when
// a frame contains no hand.
func (s *Service) PenUp() {
	s.canvas.PenUp()
}

func (s *Service) processFrame(frame *gocv.Mat) error {
	hands, err := s.hands.Detect(frame)
	if err != nil {
		return err
	}

	if len(hands) == 0 {
		s.canvas.PenUp()
	} else {
		hand := hands[0]
		tip := hand.Points[detector.IndexTip]
		// Mirror horizontally so the canvas moves like a mirror image.
		p := image.Point{
			X: CanvasWidth - int(tip.X*CanvasWidth),
			Y: int(tip.Y * CanvasHeight),
		}
		s.applyFingers(p, hand.FingersUp())
	}

	s.maybeRecognize()
	return nil
}

// applyFingers maps the finger pose to a canvas action per the active mode.
func (s *Service) applyFingers(p image.Point, fingers [5]bool) {
	count := 0
	for _, up := range fingers {
		if up {
			count++
		}
	}

	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()

	switch mode {
	case ModeIndexFinger:
		if fingers[1] && !fingers[2] {
			s.canvas.Draw(p)
		} else {
			s.canvas.PenUp()
		}
	case ModeBothFingers:
		if fingers[1] && fingers[2] {
			s.canvas.Draw(p)
		} else {
			s.canvas.PenUp()
		}
	case ModeGestureControl:
		switch {
		case count == 1 && fingers[1]:
			s.canvas.Draw(p)
		case count == 2 && fingers[1] && fingers[2]:
			s.canvas.Erase(p)
		case count == 5:
			s.canvas.Clear()
		default:
			s.canvas.PenUp()
		}
	}
}

func (s *Service) maybeRecognize() {
	if s.cfg.RecognitionInterval <= 0 {
		return
	}

	s.mu.Lock()
	due := time.Since(s.lastRecog) >= s.cfg.RecognitionInterval
	if due {
		s.lastRecog = time.Now()
	}
	var elapsed float64
	if !s.started.IsZero() {
		elapsed = time.Since(s.started).Seconds()
	}
	s.mu.Unlock()
	if !due {
		return
	}

	recognition := s.Recognize()
	img, err := s.canvas.EncodePNG()
	if err != nil {
		log.Printf("drawing: encode canvas: %v", err)
		return
	}

	s.publish("recognition_update", recognition.Message, map[string]any{
		"recognition":      recognition,
		"canvas_image":     img,
		"drawing_duration": elapsed,
	})
}

func (s *Service) publishStopped() {
	s.mu.Lock()
	var elapsed float64
	if !s.started.IsZero() {
		elapsed = time.Since(s.started).Seconds()
	}
	strokes := s.canvas.Strokes()
	s.mu.Unlock()

	s.publish("stopped", fmt.Sprintf("drawing session ended after %.1fs", elapsed), map[string]any{
		"duration":      elapsed,
		"total_strokes": strokes,
	})
}

func (s *Service) publish(stage, message string, data map[string]any) {
	s.broadcaster.Publish(broadcast.Event{
		Channel: Channel,
		Stage:   stage,
		Message: message,
		Data:    data,
	})
}
