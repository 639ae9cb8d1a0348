package detector

import (
	"gocv.io/x/gocv"
)

// MockHandDetector is a test implementation of the HandDetector interface.
// It allows tests to control the detection results.
type MockHandDetector struct {
	hands []HandLandmarks
	err   error
}

// NewMockHandDetector creates a new MockHandDetector instance.
func NewMockHandDetector() *MockHandDetector {
	return &MockHandDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockHandDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockHandDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured hands or error.
func (m *MockHandDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockHandDetector) Close() error {
	return nil
}

// MockFaceDetector is a test implementation of the FaceDetector interface.
type MockFaceDetector struct {
	features *FaceFeatures
	err      error
}

// NewMockFaceDetector creates a new MockFaceDetector instance.
func NewMockFaceDetector() *MockFaceDetector {
	return &MockFaceDetector{}
}

// SetFeatures sets the features that will be returned by ExtractFeatures.
func (m *MockFaceDetector) SetFeatures(features *FaceFeatures) {
	m.features = features
}

// SetError sets the error that will be returned by ExtractFeatures.
func (m *MockFaceDetector) SetError(err error) {
	m.err = err
}

// ExtractFeatures returns the pre-configured features or error.
func (m *MockFaceDetector) ExtractFeatures(frame *gocv.Mat) (*FaceFeatures, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.features, nil
}

// Close is a no-op for the mock detector.
func (m *MockFaceDetector) Close() error {
	return nil
}

// RockLandmarks returns a preset right hand with every finger curled (a fist).
func RockLandmarks() HandLandmarks {
	lm := baseHand()

	// Thumb folded across the palm: tip left of the IP joint.
	lm.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.66, Z: 0.0}
	lm.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.68, Z: 0.0}

	// Finger tips curled below their PIP joints.
	curl(&lm, IndexPIP, IndexTip, 0.56)
	curl(&lm, MiddlePIP, MiddleTip, 0.51)
	curl(&lm, RingPIP, RingTip, 0.46)
	curl(&lm, PinkyPIP, PinkyTip, 0.41)

	return lm
}

// PaperLandmarks returns a preset right hand with every finger extended.
func PaperLandmarks() HandLandmarks {
	lm := baseHand()

	// Thumb extended outward: tip right of the IP joint.
	lm.Points[ThumbIP] = Point3D{X: 0.62, Y: 0.64, Z: 0.0}
	lm.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.60, Z: 0.0}

	extend(&lm, IndexPIP, IndexTip, 0.56)
	extend(&lm, MiddlePIP, MiddleTip, 0.51)
	extend(&lm, RingPIP, RingTip, 0.46)
	extend(&lm, PinkyPIP, PinkyTip, 0.41)

	return lm
}

// ScissorsLandmarks returns a preset right hand with only the index and
// middle fingers extended.
func ScissorsLandmarks() HandLandmarks {
	lm := RockLandmarks()
	extend(&lm, IndexPIP, IndexTip, 0.56)
	extend(&lm, MiddlePIP, MiddleTip, 0.51)
	return lm
}

func baseHand() HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}
	lm.Points[MiddleMCP] = Point3D{X: 0.51, Y: 0.66, Z: 0.0}
	return lm
}

func curl(lm *HandLandmarks, pip, tip int, x float64) {
	lm.Points[pip] = Point3D{X: x, Y: 0.64, Z: -0.02}
	lm.Points[tip] = Point3D{X: x - 0.02, Y: 0.70, Z: -0.04}
}

func extend(lm *HandLandmarks, pip, tip int, x float64) {
	lm.Points[pip] = Point3D{X: x, Y: 0.55, Z: 0.0}
	lm.Points[tip] = Point3D{X: x, Y: 0.38, Z: 0.0}
}

// NeutralFaceFeatures returns a preset face looking straight at the camera
// with a resting expression. Tests derive other expressions from it.
func NeutralFaceFeatures() *FaceFeatures {
	eye := func(cx float64) []Point2D {
		return []Point2D{
			{X: cx - 15, Y: 230},
			{X: cx - 8, Y: 226},
			{X: cx, Y: 225},
			{X: cx + 8, Y: 226},
			{X: cx + 5, Y: 234},
			{X: cx - 5, Y: 234},
		}
	}
	brow := func(cx float64) []Point2D {
		return []Point2D{
			{X: cx - 18, Y: 210},
			{X: cx - 6, Y: 208},
			{X: cx + 6, Y: 208},
			{X: cx + 18, Y: 210},
		}
	}

	return &FaceFeatures{
		LeftEye:   eye(285),
		RightEye:  eye(355),
		Mouth: []Point2D{
			{X: 300, Y: 280}, // left corner
			{X: 306, Y: 283},
			{X: 312, Y: 284},
			{X: 320, Y: 275}, // top lip
			{X: 328, Y: 284},
			{X: 334, Y: 283},
			{X: 340, Y: 280}, // right corner
			{X: 330, Y: 286},
			{X: 320, Y: 287},
			{X: 320, Y: 285}, // bottom lip
		},
		LeftBrow:  brow(285),
		RightBrow: brow(355),
		NoseTip:   Point2D{X: 320, Y: 250},
		Chin:      Point2D{X: 320, Y: 340},
		Forehead:  Point2D{X: 320, Y: 150},
		Width:     640,
		Height:    480,
	}
}

// SmilingFaceFeatures returns a face with a widened mouth relative to the
// neutral preset, enough to complete the smile challenge.
func SmilingFaceFeatures() *FaceFeatures {
	f := NeutralFaceFeatures()
	f.Mouth[0] = Point2D{X: 285, Y: 278}
	f.Mouth[6] = Point2D{X: 355, Y: 278}
	f.Mouth[3] = Point2D{X: 320, Y: 277}
	f.Mouth[9] = Point2D{X: 320, Y: 284}
	return f
}

// TurnedFaceFeatures returns a face whose center is shifted horizontally by
// dx pixels relative to the neutral preset. Negative dx turns left.
func TurnedFaceFeatures(dx float64) *FaceFeatures {
	f := NeutralFaceFeatures()
	f.NoseTip.X += dx
	f.Chin.X += dx
	f.Forehead.X += dx
	return f
}
