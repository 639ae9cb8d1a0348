// Package recognize turns camera frames into labeled gesture results.
// It is the boundary between the game services and the landmark detectors:
// games depend only on the Recognizer interface and treat recognition as a
// black box returning a label and a confidence.
package recognize

import (
	"errors"

	"gocv.io/x/gocv"
)

// LabelUnknown is returned when no hand is visible or the pose does not
// map to any known gesture.
const LabelUnknown = "unknown"

// ErrUnavailable is returned by recognizers whose backing detector could
// not be initialized.
var ErrUnavailable = errors.New("recognizer unavailable")

// Result is one recognition outcome for a single frame.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Recognizer classifies a single frame into a gesture label.
type Recognizer interface {
	// IsAvailable reports whether the recognizer can classify frames.
	IsAvailable() bool

	// Detect classifies the frame. When no hand is visible it returns
	// LabelUnknown with zero confidence and a nil error; errors are
	// reserved for detector failures.
	Detect(frame *gocv.Mat) (Result, error)
}
