package recognize

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/detector"
)

// Rock-paper-scissors gesture labels.
const (
	LabelRock     = "rock"
	LabelPaper    = "paper"
	LabelScissors = "scissors"
)

const baseConfidence = 0.8

// HandRecognizer classifies rock-paper-scissors gestures from hand landmarks.
type HandRecognizer struct {
	hands detector.HandDetector
}

// NewHandRecognizer creates a recognizer over the given hand detector.
// A nil detector yields a recognizer that reports itself unavailable.
func NewHandRecognizer(hands detector.HandDetector) *HandRecognizer {
	return &HandRecognizer{hands: hands}
}

// IsAvailable reports whether a hand detector is wired in.
func (r *HandRecognizer) IsAvailable() bool {
	return r.hands != nil
}

// Detect finds the first hand in the frame and classifies its pose.
func (r *HandRecognizer) Detect(frame *gocv.Mat) (Result, error) {
	if r.hands == nil {
		return Result{Label: LabelUnknown}, ErrUnavailable
	}

	hands, err := r.hands.Detect(frame)
	if err != nil {
		return Result{Label: LabelUnknown}, err
	}
	if len(hands) == 0 {
		return Result{Label: LabelUnknown}, nil
	}

	label, confidence := Classify(hands[0])
	return Result{Label: label, Confidence: confidence}, nil
}

// Close releases the backing detector.
func (r *HandRecognizer) Close() error {
	if r.hands == nil {
		return nil
	}
	return r.hands.Close()
}

// Classify maps a set of hand landmarks to an RPS label by counting
// extended fingers. Clear poses score the base confidence; ambiguous
// finger counts fall back to the nearest gesture at reduced confidence.
func Classify(hand detector.HandLandmarks) (string, float64) {
	fingers := hand.FingersUp()

	count := 0
	for _, up := range fingers {
		if up {
			count++
		}
	}

	switch {
	case count == 0:
		return LabelRock, baseConfidence
	case count == 5:
		return LabelPaper, baseConfidence
	case count == 2 && fingers[1] && fingers[2]:
		return LabelScissors, baseConfidence
	case count <= 1:
		return LabelRock, baseConfidence * 0.6
	case count >= 4:
		return LabelPaper, baseConfidence * 0.6
	case count == 2:
		return LabelScissors, baseConfidence * 0.5
	default:
		return LabelUnknown, baseConfidence * 0.3
	}
}
