package emotion

import (
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/minigame"
)

// Channel is the broadcast channel emotion events are published on.
const Channel = "emotion"

const stopJoinTimeout = 2 * time.Second

// Status is a snapshot of the analysis session.
type Status struct {
	Analyzing      bool    `json:"is_analyzing"`
	Duration       float64 `json:"duration"`
	FramesAnalyzed int     `json:"frames_analyzed"`
	Current        Result  `json:"current"`
	Trend          Trend   `json:"trend"`
}

// Config tunes the session loop.
type Config struct {
	// FrameDelay is the pause between captured frames. Default ~100ms.
	FrameDelay time.Duration

	// BroadcastInterval rate-limits "analyzing" events. Default 1s.
	BroadcastInterval time.Duration
}

// Service runs continuous emotion analysis over the shared runner and
// answers one-off frame analysis for the websocket path.
type Service struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	faces       detector.FaceDetector
	runner      *minigame.Runner

	mu        sync.Mutex
	detect    Detector
	current   Result
	analyzed  int
	started   time.Time
	lastEvent time.Time
}

// New creates an idle emotion service.
func New(cfg Config, b *broadcast.Broadcaster, faces detector.FaceDetector, camera capture.Camera) *Service {
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = 100 * time.Millisecond
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = time.Second
	}

	return &Service{
		cfg:         cfg,
		broadcaster: b,
		faces:       faces,
		runner:      minigame.NewRunner("emotion", camera, cfg.FrameDelay),
	}
}

// Start begins a camera analysis session.
func (s *Service) Start() error {
	if s.faces == nil {
		return errors.New("face detector unavailable")
	}

	s.mu.Lock()
	s.detect = Detector{}
	s.current = Result{Emotion: Neutral, Confidence: 0.5}
	s.analyzed = 0
	s.started = time.Now()
	s.lastEvent = time.Time{}
	s.mu.Unlock()

	err := s.runner.Start(minigame.Hooks{
		Process: s.processFrame,
		OnError: func(err error) {
			s.publish("error", err.Error(), nil)
		},
		OnExit: func() {
			s.publish("stopped", "emotion analysis stopped", nil)
		},
	})
	if err != nil {
		return err
	}

	s.publish("started", "emotion analysis started", nil)
	return nil
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
		Analyzing:      s.runner.Running(),
		FramesAnalyzed: s.analyzed,
		Current:        s.current,
		Trend:          s.detect.Trend(),
	}
	if !s.started.IsZero() {
		status.Duration = time.Since(s.started).Seconds()
	}
	return status
}

// AnalyzeFrame classifies a single frame outside any session. Used by the
// websocket per-frame path and the REST image endpoint. found is false
// when the frame contains no face.
func (s *Service) AnalyzeFrame(frame *gocv.Mat) (Result, bool, error) {
	features, err := s.faces.ExtractFeatures(frame)
	if err != nil {
		return Result{}, false, err
	}
	if features == nil {
		return Result{}, false, nil
	}

	s.mu.Lock()
	result := s.detect.Detect(ExtractFeatures(features))
	s.current = result
	s.mu.Unlock()
	return result, true, nil
}

func (s *Service) processFrame(frame *gocv.Mat) error {
	features, err := s.faces.ExtractFeatures(frame)
	if err != nil {
		return err
	}
	if features == nil {
		return nil
	}

	s.mu.Lock()
	result := s.detect.Detect(ExtractFeatures(features))
	s.current = result
	s.analyzed++
	analyzed := s.analyzed
	shouldBroadcast := time.Since(s.lastEvent) >= s.cfg.BroadcastInterval
	if shouldBroadcast {
		s.lastEvent = time.Now()
	}
	trend := s.detect.Trend()
	s.mu.Unlock()

	if shouldBroadcast {
		s.publish("analyzing", "emotion: "+result.Emotion, map[string]any{
			"emotion":         result.Emotion,
			"confidence":      result.Confidence,
			"scores":          result.Scores,
			"frames_analyzed": analyzed,
			"trend":           trend,
		})
	}
	return nil
}

func (s *Service) publish(stage, message string, data map[string]any) {
	s.broadcaster.Publish(broadcast.Event{
		Channel: Channel,
		Stage:   stage,
		Message: message,
		Data:    data,
	})
}
