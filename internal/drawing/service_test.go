package drawing

import (
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
)

func testFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		mat := gocv.NewMatWithSize(CanvasHeight, CanvasWidth, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return frames
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

// indexOnly is a finger pose with just the index finger up.
func indexOnly() [5]bool {
	return [5]bool{false, true, false, false, false}
}

func TestService_SessionLifecycle(t *testing.T) {
	b := broadcast.New(256)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	hands := detector.NewMockHandDetector()
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(Config{FrameDelay: time.Millisecond}, b, hands, cam)

	id, err := s.Start(ModeIndexFinger, "blue")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if id == "" {
		t.Error("Start() returned an empty session id")
	}

	started := waitForStage(t, sub, "started")
	if started.Data["session_id"] != id {
		t.Errorf("started event session_id = %v, want %v", started.Data["session_id"], id)
	}
	if started.Data["color"] != "blue" {
		t.Errorf("started event color = %v, want blue", started.Data["color"])
	}

	status := s.Status()
	if !status.Drawing || status.SessionID != id || status.Mode != ModeIndexFinger {
		t.Errorf("Status() = %+v", status)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	waitForStage(t, sub, "stopped")

	// A new session gets a fresh id and a blank canvas.
	id2, err := s.Start(ModeIndexFinger, "black")
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	defer s.Stop()
	if id2 == id {
		t.Error("second session reused the previous session id")
	}
	if got := s.Status().Strokes; got != 0 {
		t.Errorf("new session strokes = %d, want 0", got)
	}
}

func TestService_DrawAtModes(t *testing.T) {
	b := broadcast.New(256)
	hands := detector.NewMockHandDetector()
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(Config{FrameDelay: time.Millisecond}, b, hands, cam)

	// The websocket frame path drives DrawAt without a camera session.
	s.SetMode(ModeIndexFinger)

	s.DrawAt(image.Point{X: 100, Y: 100}, indexOnly())
	s.DrawAt(image.Point{X: 120, Y: 120}, indexOnly())
	if got := s.Status().Strokes; got != 1 {
		t.Errorf("strokes after index drawing = %d, want 1", got)
	}

	// Index and middle up is a pen up in index-finger mode.
	s.DrawAt(image.Point{X: 140, Y: 140}, [5]bool{false, true, true, false, false})
	s.DrawAt(image.Point{X: 200, Y: 200}, indexOnly())
	if got := s.Status().Strokes; got != 2 {
		t.Errorf("strokes after pen up = %d, want 2", got)
	}
}

func TestService_GestureControlClear(t *testing.T) {
	b := broadcast.New(256)
	hands := detector.NewMockHandDetector()
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(Config{FrameDelay: time.Millisecond}, b, hands, cam)

	s.SetMode(ModeGestureControl)

	s.DrawAt(image.Point{X: 100, Y: 100}, indexOnly())
	if got := s.Status().Strokes; got != 1 {
		t.Fatalf("strokes = %d, want 1", got)
	}

	// An open palm clears the canvas.
	s.DrawAt(image.Point{X: 0, Y: 0}, [5]bool{true, true, true, true, true})
	if got := s.Status().Strokes; got != 0 {
		t.Errorf("strokes after open-palm clear = %d, want 0", got)
	}
}

func TestService_RecognizeAndClear(t *testing.T) {
	b := broadcast.New(256)
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	hands := detector.NewMockHandDetector()
	cam := capture.NewMockCamera(testFrames(t, 4), true)
	s := New(Config{FrameDelay: time.Millisecond}, b, hands, cam)

	s.SetMode(ModeIndexFinger)

	if got := s.Recognize(); got.Shape != "empty" {
		t.Errorf("Recognize() on blank canvas = %q, want empty", got.Shape)
	}

	s.DrawAt(image.Point{X: 50, Y: 240}, indexOnly())
	s.DrawAt(image.Point{X: 590, Y: 240}, indexOnly())
	if got := s.Recognize(); got.Shape != "line" {
		t.Errorf("Recognize() = %q, want line", got.Shape)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	waitForStage(t, sub, "canvas_cleared")
	if got := s.Recognize(); got.Shape != "empty" {
		t.Errorf("Recognize() after Clear = %q, want empty", got.Shape)
	}
}
