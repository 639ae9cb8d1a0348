package action

import (
	"errors"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/minigame"
)

// Channel is the broadcast channel action events are published on.
const Channel = "action"

const stopJoinTimeout = 2 * time.Second

// ChallengeRecord is one completed challenge as handed to the recorder.
type ChallengeRecord struct {
	SessionID string
	Action    Type
	Progress  float64
	Score     int
}

// ChallengeRecorder persists completed challenges.
type ChallengeRecorder interface {
	RecordChallenge(rec ChallengeRecord) error
}

// Status is a snapshot of the challenge game.
type Status struct {
	Detecting        bool       `json:"is_detecting"`
	Difficulty       Difficulty `json:"difficulty,omitempty"`
	CurrentIndex     int        `json:"current_challenge_index"`
	TotalChallenges  int        `json:"total_challenges"`
	CompletedCount   int        `json:"completed_challenges"`
	CurrentChallenge *Challenge `json:"current_challenge,omitempty"`
	TotalScore       int        `json:"total_score"`
	Duration         float64    `json:"game_duration"`
}

// Config tunes the session loop.
type Config struct {
	// FrameDelay is the pause between captured frames. Default ~33ms.
	FrameDelay time.Duration

	// AnalyzeEvery processes one frame in N. Default 3.
	AnalyzeEvery int

	// ProgressEvery publishes a progress_update one frame in N analyzed
	// frames. Default 4.
	ProgressEvery int
}

// Service runs the action challenge game over the shared runner.
type Service struct {
	cfg         Config
	broadcaster *broadcast.Broadcaster
	faces       detector.FaceDetector
	runner      *minigame.Runner
	recorder    ChallengeRecorder

	mu         sync.Mutex
	sessionID  string
	detect     Detector
	challenges []Challenge
	index      int
	difficulty Difficulty
	score      int
	started    time.Time
	frameNo    int
	analyzed   int
}

// New creates an idle action service. recorder may be nil.
func New(cfg Config, b *broadcast.Broadcaster, faces detector.FaceDetector, camera capture.Camera, recorder ChallengeRecorder) *Service {
	if cfg.FrameDelay <= 0 {
		cfg.FrameDelay = 33 * time.Millisecond
	}
	if cfg.AnalyzeEvery <= 0 {
		cfg.AnalyzeEvery = 3
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 4
	}

	return &Service{
		cfg:         cfg,
		broadcaster: b,
		faces:       faces,
		runner:      minigame.NewRunner("action", camera, cfg.FrameDelay),
		recorder:    recorder,
	}
}

// Start begins a challenge session at the given difficulty.
func (s *Service) Start(sessionID string, difficulty Difficulty) error {
	if s.faces == nil {
		return errors.New("face detector unavailable")
	}

	s.mu.Lock()
	s.sessionID = sessionID
	s.difficulty = difficulty
	s.challenges = ChallengeSet(difficulty)
	s.index = 0
	s.score = 0
	s.started = time.Now()
	s.frameNo = 0
	s.analyzed = 0
	s.detect = Detector{}
	total := len(s.challenges)
	s.mu.Unlock()

	err := s.runner.Start(minigame.Hooks{
		Process: s.processFrame,
		OnError: func(err error) {
			s.publish("error", err.Error(), nil)
		},
		OnExit: func() {
			s.publish("stopped", "action detection stopped", nil)
		},
	})
	if err != nil {
		return err
	}

	s.publish("started", "action game started: "+string(difficulty), map[string]any{
		"difficulty":        string(difficulty),
		"total_challenges":  total,
		"current_challenge": 0,
	})
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

// Status returns a snapshot of the game.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Detecting:       s.runner.Running(),
		Difficulty:      s.difficulty,
		CurrentIndex:    s.index,
		TotalChallenges: len(s.challenges),
		TotalScore:      s.score,
	}
	if !s.started.IsZero() {
		status.Duration = time.Since(s.started).Seconds()
	}
	for _, c := range s.challenges {
		if c.Completed {
			status.CompletedCount++
		}
	}
	if s.index >= 0 && s.index < len(s.challenges) {
		c := s.challenges[s.index]
		status.CurrentChallenge = &c
	}
	return status
}

func (s *Service) processFrame(frame *gocv.Mat) error {
	s.mu.Lock()
	s.frameNo++
	skip := s.frameNo%s.cfg.AnalyzeEvery != 0
	s.mu.Unlock()
	if skip {
		return nil
	}

	features, err := s.faces.ExtractFeatures(frame)
	if err != nil {
		return err
	}
	if features == nil {
		return nil
	}

	s.mu.Lock()
	if !s.detect.HasBaseline() {
		// The first readable face fixes the resting expression all
		// progress is measured against.
		s.detect.SetBaseline(features)
		s.mu.Unlock()
		s.publish("baseline_set", "baseline captured, challenges begin", nil)
		return nil
	}

	if s.index >= len(s.challenges) {
		s.mu.Unlock()
		s.completeGame()
		return minigame.ErrStopLoop
	}

	s.analyzed++
	challenge := &s.challenges[s.index]
	challenge.Progress = s.detect.Progress(challenge.Action, features)

	var events []broadcast.Event
	done := false

	if challenge.Progress >= challenge.Threshold {
		challenge.Completed = true
		challenge.CompletedAt = time.Now()
		s.score += int(challenge.Progress * 100)
		s.recordChallenge(*challenge)

		events = append(events, s.event("challenge_completed", "challenge complete: "+challenge.Name, map[string]any{
			"score":     s.score,
			"completed": s.index + 1,
			"total":     len(s.challenges),
		}))

		s.index++
		if s.index < len(s.challenges) {
			next := s.challenges[s.index]
			events = append(events, s.event("next_challenge", "next up: "+next.Name, map[string]any{
				"name":        next.Name,
				"description": next.Description,
				"emoji":       next.Emoji,
				"index":       s.index,
				"total":       len(s.challenges),
			}))
		} else {
			done = true
		}
	} else if s.analyzed%s.cfg.ProgressEvery == 0 {
		percent := 100.0
		if challenge.Threshold > 0 {
			percent = challenge.Progress * 100 / challenge.Threshold
			if percent > 100 {
				percent = 100
			}
		}
		events = append(events, s.event("progress_update", "progress", map[string]any{
			"progress_percent": percent,
			"current_challenge": map[string]any{
				"name":        challenge.Name,
				"description": challenge.Description,
				"emoji":       challenge.Emoji,
				"progress":    challenge.Progress,
			},
			"score":      s.score,
			"difficulty": string(s.difficulty),
			"completed":  s.index,
			"total":      len(s.challenges),
		}))
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.broadcaster.Publish(ev)
	}
	if done {
		s.completeGame()
		return minigame.ErrStopLoop
	}
	return nil
}

func (s *Service) completeGame() {
	s.mu.Lock()
	score := s.score
	total := len(s.challenges)
	difficulty := s.difficulty
	var elapsed float64
	if !s.started.IsZero() {
		elapsed = time.Since(s.started).Seconds()
	}
	s.mu.Unlock()

	s.publish("game_completed", "all challenges complete", map[string]any{
		"score":                score,
		"total_time":           elapsed,
		"challenges_completed": total,
		"difficulty":           string(difficulty),
	})
}

func (s *Service) recordChallenge(c Challenge) {
	if s.recorder == nil {
		return
	}
	rec := ChallengeRecord{
		SessionID: s.sessionID,
		Action:    c.Action,
		Progress:  c.Progress,
		Score:     int(c.Progress * 100),
	}
	// Recording runs off the capture goroutine's critical path.
	go func() {
		if err := s.recorder.RecordChallenge(rec); err != nil {
			log.Printf("action: record challenge: %v", err)
		}
	}()
}

func (s *Service) event(stage, message string, data map[string]any) broadcast.Event {
	return broadcast.Event{
		Channel: Channel,
		Stage:   stage,
		Message: message,
		Data:    data,
	}
}

func (s *Service) publish(stage, message string, data map[string]any) {
	s.broadcaster.Publish(s.event(stage, message, data))
}
