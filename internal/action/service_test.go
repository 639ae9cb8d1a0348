package action

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
)

type memRecorder struct {
	mu      sync.Mutex
	records []ChallengeRecord
}

func (r *memRecorder) RecordChallenge(rec ChallengeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// scriptedFaces replays a fixed sequence of face features, repeating the
// last entry once exhausted.
type scriptedFaces struct {
	mu       sync.Mutex
	features []*detector.FaceFeatures
}

func (f *scriptedFaces) ExtractFeatures(*gocv.Mat) (*detector.FaceFeatures, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.features) == 0 {
		return nil, nil
	}
	features := f.features[0]
	if len(f.features) > 1 {
		f.features = f.features[1:]
	}
	return features, nil
}

func (f *scriptedFaces) Close() error { return nil }

func testFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		mat := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return frames
}

func testConfig() Config {
	return Config{
		FrameDelay:    time.Millisecond,
		AnalyzeEvery:  1,
		ProgressEvery: 1,
	}
}

func waitForStage(t *testing.T, sub *broadcast.Subscription, stage string) broadcast.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				t.Fatalf("subscription closed while waiting for %q", stage)
			}
			if ev.Stage == stage {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for stage %q", stage)
		}
	}
}

func TestService_FullEasyRun(t *testing.T) {
	b := broadcast.New(512)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// One baseline frame, then faces that satisfy the easy set in order:
	// smile, turn left, turn right.
	faces := &scriptedFaces{features: []*detector.FaceFeatures{
		detector.NeutralFaceFeatures(),
		detector.SmilingFaceFeatures(),
		detector.TurnedFaceFeatures(-60),
		detector.TurnedFaceFeatures(60),
	}}

	recorder := &memRecorder{}
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(testConfig(), b, faces, cam, recorder)

	if err := s.Start("session-1", Easy); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitForStage(t, sub, "started")
	waitForStage(t, sub, "baseline_set")

	for i := 0; i < 3; i++ {
		waitForStage(t, sub, "challenge_completed")
	}
	completed := waitForStage(t, sub, "game_completed")
	if completed.Data["challenges_completed"] != 3 {
		t.Errorf("game_completed challenges = %v, want 3", completed.Data["challenges_completed"])
	}
	if completed.Data["score"].(int) < 150 {
		t.Errorf("game_completed score = %v, want at least 150", completed.Data["score"])
	}

	// The loop winds itself down after the final challenge.
	deadline := time.Now().Add(time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("session still running after game completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline = time.Now().Add(time.Second)
	for recorder.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("recorded %d challenges, want 3", recorder.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_CompletionIsMonotonic(t *testing.T) {
	b := broadcast.New(512)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// Smile, then back to neutral: the completed smile must stay done.
	faces := &scriptedFaces{features: []*detector.FaceFeatures{
		detector.NeutralFaceFeatures(),
		detector.SmilingFaceFeatures(),
		detector.NeutralFaceFeatures(),
	}}

	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(testConfig(), b, faces, cam, nil)

	if err := s.Start("session-2", Easy); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitForStage(t, sub, "challenge_completed")

	// Give the loop time to process neutral frames.
	time.Sleep(50 * time.Millisecond)

	status := s.Status()
	if status.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want the smile to stay completed", status.CompletedCount)
	}
	if status.CurrentIndex != 1 {
		t.Errorf("CurrentIndex = %d, want 1 (moved past the smile)", status.CurrentIndex)
	}
}

func TestService_ProgressUpdatesPublished(t *testing.T) {
	b := broadcast.New(512)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	// A half-smile never crosses the threshold but generates progress.
	half := detector.NeutralFaceFeatures()
	half.Mouth[0].X -= 5
	half.Mouth[6].X += 5

	faces := &scriptedFaces{features: []*detector.FaceFeatures{
		detector.NeutralFaceFeatures(),
		half,
	}}

	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(testConfig(), b, faces, cam, nil)

	if err := s.Start("session-3", Easy); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	ev := waitForStage(t, sub, "progress_update")
	if _, ok := ev.Data["progress_percent"]; !ok {
		t.Error("progress_update event missing progress_percent")
	}
}

func TestService_NoFaceNoBaseline(t *testing.T) {
	b := broadcast.New(512)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	faces := &scriptedFaces{} // never sees a face
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(testConfig(), b, faces, cam, nil)

	if err := s.Start("session-4", Easy); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	waitForStage(t, sub, "started")
	select {
	case ev := <-sub.C:
		if ev.Stage == "baseline_set" {
			t.Error("baseline_set published without any face")
		}
	case <-time.After(50 * time.Millisecond):
	}
}
