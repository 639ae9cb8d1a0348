package detector

// Face-mesh landmark index sets following the MediaPipe FaceMesh convention.
// Only the regions the action and emotion games use are carried over.
var (
	leftEyeIndices   = []int{33, 7, 163, 144, 145, 153}
	rightEyeIndices  = []int{362, 382, 381, 380, 374, 373}
	mouthIndices     = []int{78, 95, 88, 178, 87, 14, 317, 402, 318, 324}
	leftBrowIndices  = []int{70, 63, 105, 66}
	rightBrowIndices = []int{296, 334, 293, 300}
)

// Face-mesh anchor point indices.
const (
	noseTipIndex  = 1
	foreheadIndex = 10
	chinIndex     = 175

	// NumFacePoints is the landmark count produced by the face mesh.
	NumFacePoints = 468
)

// FaceFeatures holds the facial regions extracted from one frame,
// in image pixel coordinates.
type FaceFeatures struct {
	LeftEye   []Point2D `json:"left_eye"`
	RightEye  []Point2D `json:"right_eye"`
	Mouth     []Point2D `json:"mouth"`
	LeftBrow  []Point2D `json:"eyebrow_left"`
	RightBrow []Point2D `json:"eyebrow_right"`
	NoseTip   Point2D   `json:"nose_tip"`
	Chin      Point2D   `json:"chin"`
	Forehead  Point2D   `json:"forehead"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
}

// BuildFaceFeatures assembles a FaceFeatures from the full face-mesh
// landmark list scaled to the given frame dimensions. Returns nil if the
// landmark list is too short to cover the indices we need.
func BuildFaceFeatures(landmarks []Point2D, width, height float64) *FaceFeatures {
	if len(landmarks) <= chinIndex {
		return nil
	}

	pick := func(indices []int) []Point2D {
		points := make([]Point2D, len(indices))
		for i, idx := range indices {
			points[i] = landmarks[idx]
		}
		return points
	}

	return &FaceFeatures{
		LeftEye:   pick(leftEyeIndices),
		RightEye:  pick(rightEyeIndices),
		Mouth:     pick(mouthIndices),
		LeftBrow:  pick(leftBrowIndices),
		RightBrow: pick(rightBrowIndices),
		NoseTip:   landmarks[noseTipIndex],
		Chin:      landmarks[chinIndex],
		Forehead:  landmarks[foreheadIndex],
		Width:     width,
		Height:    height,
	}
}
