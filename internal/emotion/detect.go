// Package emotion estimates the player's facial expression from face-mesh
// features using ratio heuristics, no trained model involved.
package emotion

import (
	"math"

	"github.com/ayusman/camplay/internal/detector"
)

// Emotion labels.
const (
	Happy     = "happy"
	Sad       = "sad"
	Angry     = "angry"
	Surprised = "surprised"
	Neutral   = "neutral"
)

// Features are the scalar expression measurements one frame reduces to.
type Features struct {
	// MouthCurvature is positive when the mouth corners sit above the
	// lip center (a smile), negative when they droop. Normalized by
	// face height and scaled by 100.
	MouthCurvature float64 `json:"mouth_curvature"`

	// EyeOpenness is the mean eye aspect ratio of both eyes.
	EyeOpenness float64 `json:"eye_openness"`

	// MouthAspectRatio is mouth opening height over width.
	MouthAspectRatio float64 `json:"mouth_aspect_ratio"`

	// MouthWidth is the corner-to-corner width over face width.
	MouthWidth float64 `json:"mouth_width"`

	// BrowHeight is the eye-to-brow distance normalized by face height
	// and scaled by 100. Lifted brows raise it, a frown lowers it.
	BrowHeight float64 `json:"brow_height"`
}

// ExtractFeatures reduces face regions to expression measurements.
// Returns the zero Features when the regions are incomplete.
func ExtractFeatures(f *detector.FaceFeatures) Features {
	if f == nil || len(f.Mouth) < 10 || len(f.LeftEye) < 6 || len(f.RightEye) < 6 {
		return Features{}
	}

	faceHeight := math.Abs(f.Chin.Y - f.Forehead.Y)
	if faceHeight == 0 {
		faceHeight = f.Height
	}
	faceWidth := f.Width
	if faceWidth == 0 {
		faceWidth = 1
	}

	leftCorner := f.Mouth[0]
	rightCorner := f.Mouth[6]
	topLip := f.Mouth[3]
	bottomLip := f.Mouth[9]

	lipCenterY := (topLip.Y + bottomLip.Y) / 2
	curvature := ((lipCenterY - leftCorner.Y) + (lipCenterY - rightCorner.Y)) / 2
	mouthWidth := math.Abs(rightCorner.X - leftCorner.X)
	mouthHeight := math.Abs(bottomLip.Y - topLip.Y)
	if mouthWidth == 0 {
		mouthWidth = 1
	}

	browY := (averageY(f.LeftBrow) + averageY(f.RightBrow)) / 2
	eyeY := (averageY(f.LeftEye) + averageY(f.RightEye)) / 2

	return Features{
		MouthCurvature:   curvature / faceHeight * 100,
		EyeOpenness:      (aspectRatio(f.LeftEye) + aspectRatio(f.RightEye)) / 2,
		MouthAspectRatio: mouthHeight / mouthWidth,
		MouthWidth:       mouthWidth / faceWidth,
		BrowHeight:       (eyeY - browY) / faceHeight * 100,
	}
}

// aspectRatio is the eye aspect ratio over a six point eye contour:
// mean vertical opening over horizontal span.
func aspectRatio(eye []detector.Point2D) float64 {
	a := dist(eye[1], eye[5])
	b := dist(eye[2], eye[4])
	c := dist(eye[0], eye[3])
	if c == 0 {
		return 0.3
	}
	return (a + b) / (2 * c)
}

func dist(p, q detector.Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func averageY(points []detector.Point2D) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p.Y
	}
	return sum / float64(len(points))
}

// Result is one scored emotion classification.
type Result struct {
	Emotion    string             `json:"emotion"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

// Detector scores expression features against per-emotion rules and keeps
// a short history for trend reporting. Not safe for concurrent use; the
// owning service serializes access.
type Detector struct {
	history []historyEntry
}

type historyEntry struct {
	emotion    string
	confidence float64
}

const historyDepth = 10

// Detect scores the features and returns the winning emotion. Weak scores
// across the board fall back to neutral.
func (d *Detector) Detect(f Features) Result {
	scores := map[string]float64{
		Happy:     0,
		Sad:       0,
		Angry:     0,
		Surprised: 0,
		Neutral:   0.5,
	}

	if f.MouthCurvature > 5 {
		scores[Happy] += 0.6
	}
	if f.MouthWidth > 0.15 {
		scores[Happy] += 0.3
	}
	if f.EyeOpenness > 0.25 && f.EyeOpenness < 0.4 {
		scores[Happy] += 0.1
	}

	if f.EyeOpenness > 0.4 {
		scores[Surprised] += 0.4
	}
	if f.MouthAspectRatio > 0.15 {
		scores[Surprised] += 0.3
	}
	if f.BrowHeight > 8 {
		scores[Surprised] += 0.3
	}

	if f.MouthCurvature < -3 {
		scores[Sad] += 0.4
	}
	if f.EyeOpenness < 0.15 {
		scores[Sad] += 0.3
	}
	if f.MouthAspectRatio < 0.05 {
		scores[Sad] += 0.2
	}

	if f.BrowHeight < 3 {
		scores[Angry] += 0.3
	}
	if f.MouthAspectRatio < 0.03 && f.MouthCurvature < 0 {
		scores[Angry] += 0.2
	}
	if f.EyeOpenness < 0.2 {
		scores[Angry] += 0.2
	}

	best := Neutral
	confidence := scores[Neutral]
	for _, emotion := range []string{Happy, Sad, Angry, Surprised} {
		if scores[emotion] > confidence {
			best = emotion
			confidence = scores[emotion]
		}
	}
	if confidence < 0.3 {
		best = Neutral
		confidence = 0.5
	}
	if confidence > 1 {
		confidence = 1
	}

	d.history = append(d.history, historyEntry{best, confidence})
	if len(d.history) > historyDepth {
		d.history = d.history[len(d.history)-historyDepth:]
	}

	return Result{Emotion: best, Confidence: confidence, Scores: scores}
}

// Trend summarizes the recent emotion history.
type Trend struct {
	Trend           string             `json:"trend"`
	DominantEmotion string             `json:"dominant_emotion"`
	AvgConfidence   float64            `json:"confidence_average"`
	Distribution    map[string]float64 `json:"emotion_distribution"`
}

// Trend reports the dominant recent emotion and how volatile it has been.
func (d *Detector) Trend() Trend {
	if len(d.history) == 0 {
		return Trend{Trend: "stable", DominantEmotion: Neutral, AvgConfidence: 0.5}
	}

	distribution := map[string]float64{}
	total := 0.0
	for _, h := range d.history {
		distribution[h.emotion] += h.confidence
		total += h.confidence
	}

	dominant := Neutral
	best := 0.0
	for emotion, weight := range distribution {
		if weight > best {
			best = weight
			dominant = emotion
		}
	}

	recent := d.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	unique := map[string]struct{}{}
	for _, h := range recent {
		unique[h.emotion] = struct{}{}
	}

	trend := "volatile"
	switch {
	case len(unique) <= 2:
		trend = "stable"
	case len(unique) <= 3:
		trend = "changing"
	}

	return Trend{
		Trend:           trend,
		DominantEmotion: dominant,
		AvgConfidence:   total / float64(len(d.history)),
		Distribution:    distribution,
	}
}
