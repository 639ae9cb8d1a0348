package detector

import "gocv.io/x/gocv"

// HandDetector defines the interface for hand landmark detection backends.
type HandDetector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// FaceDetector defines the interface for face-mesh feature extraction backends.
type FaceDetector interface {
	// ExtractFeatures analyzes a video frame and returns the facial feature
	// points used by the action and emotion games. Returns nil features
	// (and a nil error) when no face is present in the frame.
	ExtractFeatures(frame *gocv.Mat) (*FaceFeatures, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}
