// Package gesture implements the continuous hand-gesture detection session.
// While a session runs, a capture loop classifies frames and publishes the
// current gesture on the "gesture" broadcast channel at most once a second.
package gesture

import (
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/minigame"
	"github.com/ayusman/camplay/internal/recognize"
)

// Channel is the broadcast channel gesture events are published on.
const Channel = "gesture"

const (
	// stableThreshold is how many consecutive identical detections make
	// a gesture count as stable.
	stableThreshold = 3

	// acceptConfidence is the minimum confidence for a detection to
	// update the session state.
	acceptConfidence = 0.5

	historyLimit    = 50
	stopJoinTimeout = 2 * time.Second
)

// Detection is one accepted classification, kept in the session history.
type Detection struct {
	Gesture     string    `json:"gesture"`
	Confidence  float64   `json:"confidence"`
	StableCount int       `json:"stable_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// Status is a snapshot of the detection session.
type Status struct {
	Detecting       bool        `json:"is_detecting"`
	Duration        float64     `json:"detection_duration"`
	TotalDetections int         `json:"total_detections"`
	CurrentGesture  string      `json:"current_gesture"`
	Confidence      float64     `json:"current_confidence"`
	StableCount     int         `json:"stable_count"`
	IsStable        bool        `json:"is_stable"`
	RecentHistory   []Detection `json:"recent_history"`
}

// Config tunes the session loop. Zero values fall back to live defaults.
type Config struct {
	// BroadcastInterval rate-limits "detecting" events. Default 1s.
	BroadcastInterval time.Duration

	// FrameDelay is the pause between captured frames. Default ~33ms.
	FrameDelay time.Duration

	// MotionThreshold is the percent of changed pixels below which a
	// frame is skipped entirely. Zero disables motion gating.
	MotionThreshold float64
}

// Service runs gesture detection sessions over the shared runner.
type Service struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	recognizer  recognize.Recognizer
	runner      *minigame.Runner
	motion      *capture.MotionDetector

	mu        sync.Mutex
	started   time.Time
	total     int
	current   string
	conf      float64
	stable    int
	lastGest  string
	history   []Detection
	frameNo   int
	lastEvent time.Time
	deadline  time.Time
}

// New creates an idle gesture service.
func New(cfg Config, b *broadcast.Broadcaster, r recognize.Recognizer, camera capture.Camera) *Service {
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = time.Second
	}
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = 33 * time.Millisecond
	}

	s := &Service{
		cfg:         cfg,
		broadcaster: b,
		recognizer:  r,
		runner:      minigame.NewRunner("gesture", camera, cfg.FrameDelay),
	}
	if cfg.MotionThreshold > 0 {
		s.motion = capture.NewMotionDetector(cfg.MotionThreshold)
	}
	return s
}

// Start begins a detection session. duration limits the session length;
// zero means run until stopped.
func (s *Service) Start(duration time.Duration) error {
	if s.recognizer == nil || !s.recognizer.IsAvailable() {
		return recognize.ErrUnavailable
	}

	s.mu.Lock()
	s.started = time.Now()
	s.total = 0
	s.current = recognize.LabelUnknown
	s.conf = 0
	s.stable = 0
	s.lastGest = recognize.LabelUnknown
	s.history = nil
	s.frameNo = 0
	s.lastEvent = time.Time{}
	if duration > 0 {
		s.deadline = s.started.Add(duration)
	} else {
		s.deadline = time.Time{}
	}
	s.mu.Unlock()

	if s.motion != nil {
		s.motion.Reset()
	}

	err := s.runner.Start(minigame.Hooks{
		Process: s.processFrame,
		OnError: func(err error) {
			s.publish("error", err.Error(), nil)
		},
		OnExit: s.publishStopped,
	})
	if err != nil {
		return err
	}

	s.publish("started", "gesture detection started", map[string]any{
		"duration": duration.Seconds(),
	})
	return nil
}

// Stop ends the session and publishes the final summary.
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
		Detecting:       s.runner.Running(),
		TotalDetections: s.total,
		CurrentGesture:  s.current,
		Confidence:      s.conf,
		StableCount:     s.stable,
		IsStable:        s.stable >= stableThreshold,
	}
	if !s.started.IsZero() {
		status.Duration = time.Since(s.started).Seconds()
	}
	if n := len(s.history); n > 0 {
		start := n - 5
		if start < 0 {
			start = 0
		}
		status.RecentHistory = append([]Detection(nil), s.history[start:]...)
	}
	return status
}

// Current returns the latest accepted gesture and its confidence.
func (s *Service) Current() (string, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.conf
}

func (s *Service) processFrame(frame *gocv.Mat) error {
	s.mu.Lock()
	s.frameNo++
	frameNo := s.frameNo
	deadline := s.deadline
	s.mu.Unlock()

	if !deadline.IsZero() && time.Now().After(deadline) {
		return minigame.ErrStopLoop
	}

	// Classify every other frame to keep up with the camera.
	if frameNo%2 != 0 {
		return nil
	}
	if s.motion != nil {
		if moving, _ := s.motion.Detect(frame); !moving {
			return nil
		}
	}

	result, err := s.recognizer.Detect(frame)
	if err != nil {
		return err
	}
	if result.Label == recognize.LabelUnknown || result.Confidence <= acceptConfidence {
		return nil
	}

	s.mu.Lock()
	s.total++
	s.current = result.Label
	s.conf = result.Confidence

	if result.Label == s.lastGest {
		s.stable++
	} else {
		s.stable = 1
		s.lastGest = result.Label
	}

	s.history = append(s.history, Detection{
		Gesture:     result.Label,
		Confidence:  result.Confidence,
		StableCount: s.stable,
		Timestamp:   time.Now(),
	})
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}

	shouldBroadcast := time.Since(s.lastEvent) >= s.cfg.BroadcastInterval
	if shouldBroadcast {
		s.lastEvent = time.Now()
	}
	total := s.total
	stable := s.stable
	duration := time.Since(s.started).Seconds()
	s.mu.Unlock()

	if shouldBroadcast {
		s.publish("detecting", "gesture detected: "+result.Label, map[string]any{
			"current_gesture":    result.Label,
			"confidence":         result.Confidence,
			"detection_count":    total,
			"detection_duration": duration,
			"stable_count":       stable,
			"is_stable":          stable >= stableThreshold,
		})
	}
	return nil
}

func (s *Service) publishStopped() {
	s.mu.Lock()
	var total float64
	if !s.started.IsZero() {
		total = time.Since(s.started).Seconds()
	}
	detections := s.total
	var recent []Detection
	if n := len(s.history); n > 0 {
		start := n - 10
		if start < 0 {
			start = 0
		}
		recent = append([]Detection(nil), s.history[start:]...)
	}
	s.mu.Unlock()

	log.Printf("gesture: session ended after %.1fs with %d detections", total, detections)
	s.publish("stopped", "gesture detection stopped", map[string]any{
		"total_time":       total,
		"total_detections": detections,
		"gesture_history":  recent,
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
