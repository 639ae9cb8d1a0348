package recognize

import (
	"errors"
	"testing"

	"github.com/ayusman/camplay/internal/detector"
)

func TestClassify_ClearPoses(t *testing.T) {
	tests := []struct {
		name        string
		hand        detector.HandLandmarks
		wantLabel   string
		wantMinimum float64
	}{
		{"fist is rock", detector.RockLandmarks(), LabelRock, 0.8},
		{"open palm is paper", detector.PaperLandmarks(), LabelPaper, 0.8},
		{"victory sign is scissors", detector.ScissorsLandmarks(), LabelScissors, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, confidence := Classify(tt.hand)
			if label != tt.wantLabel {
				t.Errorf("Classify() label = %q, want %q", label, tt.wantLabel)
			}
			if confidence < tt.wantMinimum {
				t.Errorf("Classify() confidence = %.2f, want >= %.2f", confidence, tt.wantMinimum)
			}
		})
	}
}

func TestClassify_AmbiguousPoses(t *testing.T) {
	// One finger up reads as a sloppy rock at reduced confidence.
	oneUp := detector.RockLandmarks()
	raiseFinger(&oneUp, detector.IndexPIP, detector.IndexTip)

	label, confidence := Classify(oneUp)
	if label != LabelRock {
		t.Errorf("one finger: label = %q, want rock", label)
	}
	if confidence >= 0.8 {
		t.Errorf("one finger: confidence = %.2f, want degraded below 0.8", confidence)
	}

	// Four fingers up reads as a sloppy paper.
	fourUp := detector.PaperLandmarks()
	curlThumb(&fourUp)

	label, confidence = Classify(fourUp)
	if label != LabelPaper {
		t.Errorf("four fingers: label = %q, want paper", label)
	}
	if confidence >= 0.8 {
		t.Errorf("four fingers: confidence = %.2f, want degraded below 0.8", confidence)
	}

	// Three fingers up maps to no gesture.
	threeUp := detector.ScissorsLandmarks()
	raiseFinger(&threeUp, detector.RingPIP, detector.RingTip)

	label, confidence = Classify(threeUp)
	if label != LabelUnknown {
		t.Errorf("three fingers: label = %q, want unknown", label)
	}
	if confidence > 0.3 {
		t.Errorf("three fingers: confidence = %.2f, want <= 0.3", confidence)
	}
}

func TestHandRecognizer_NoHands(t *testing.T) {
	mock := detector.NewMockHandDetector()
	r := NewHandRecognizer(mock)

	if !r.IsAvailable() {
		t.Fatal("IsAvailable() = false with a wired detector")
	}

	result, err := r.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if result.Label != LabelUnknown || result.Confidence != 0 {
		t.Errorf("Detect() = %+v, want unknown with zero confidence", result)
	}
}

func TestHandRecognizer_ClassifiesFirstHand(t *testing.T) {
	mock := detector.NewMockHandDetector()
	mock.SetHands([]detector.HandLandmarks{detector.ScissorsLandmarks()})
	r := NewHandRecognizer(mock)

	result, err := r.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if result.Label != LabelScissors {
		t.Errorf("Detect() label = %q, want scissors", result.Label)
	}
}

func TestHandRecognizer_DetectorError(t *testing.T) {
	mock := detector.NewMockHandDetector()
	mock.SetError(errors.New("subprocess died"))
	r := NewHandRecognizer(mock)

	if _, err := r.Detect(nil); err == nil {
		t.Error("Detect() error = nil, want detector error surfaced")
	}
}

func TestHandRecognizer_NilDetector(t *testing.T) {
	r := NewHandRecognizer(nil)

	if r.IsAvailable() {
		t.Error("IsAvailable() = true with nil detector")
	}
	if _, err := r.Detect(nil); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Detect() error = %v, want ErrUnavailable", err)
	}
}

func raiseFinger(lm *detector.HandLandmarks, pip, tip int) {
	lm.Points[pip] = detector.Point3D{X: lm.Points[pip].X, Y: 0.55}
	lm.Points[tip] = detector.Point3D{X: lm.Points[tip].X, Y: 0.38}
}

func curlThumb(lm *detector.HandLandmarks) {
	// Right hand: a curled thumb tip sits left of the IP joint.
	lm.Points[detector.ThumbIP] = detector.Point3D{X: 0.58, Y: 0.66}
	lm.Points[detector.ThumbTip] = detector.Point3D{X: 0.54, Y: 0.68}
}
