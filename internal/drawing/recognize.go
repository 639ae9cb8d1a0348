package drawing

import (
	"math"

	"gocv.io/x/gocv"
)

// Recognition is the outcome of analyzing what is on the canvas.
type Recognition struct {
	Shape       string   `json:"recognized"`
	Confidence  float64  `json:"confidence"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// shapeFeatures are the contour measurements shape matching runs on.
type shapeFeatures struct {
	area        float64
	perimeter   float64
	circularity float64
	vertices    int
	aspectRatio float64
	solidity    float64
}

// RecognizeShape classifies the largest drawn contour on the canvas as a
// circle, square, triangle, line or heart. An empty canvas recognizes as
// "empty" with full confidence.
func RecognizeShape(canvas gocv.Mat) Recognition {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(canvas, &gray, gocv.ColorBGRToGray)

	// Strokes are dark on a white canvas; invert so ink is foreground.
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 250, 255, gocv.ThresholdBinaryInv)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return Recognition{
			Shape:       "empty",
			Confidence:  1.0,
			Message:     "the canvas is empty",
			Suggestions: []string{"draw a circle", "draw a square", "draw a line"},
		}
	}

	largest := 0
	largestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > largestArea {
			largestArea = area
			largest = i
		}
	}

	features := analyzeContour(contours.At(largest))
	shape, confidence := matchShape(features)

	return Recognition{
		Shape:       shape,
		Confidence:  confidence,
		Message:     recognitionMessage(shape, confidence),
		Suggestions: suggestions(shape),
	}
}

func analyzeContour(contour gocv.PointVector) shapeFeatures {
	area := gocv.ContourArea(contour)
	perimeter := gocv.ArcLength(contour, true)

	f := shapeFeatures{area: area, perimeter: perimeter}
	if perimeter == 0 {
		return f
	}

	f.circularity = 4 * math.Pi * area / (perimeter * perimeter)

	approx := gocv.ApproxPolyDP(contour, 0.02*perimeter, true)
	f.vertices = approx.Size()
	approx.Close()

	rect := gocv.BoundingRect(contour)
	if rect.Dy() > 0 {
		f.aspectRatio = float64(rect.Dx()) / float64(rect.Dy())
	}

	hull := gocv.NewMat()
	gocv.ConvexHull(contour, &hull, true, true)
	hullPoints := gocv.NewPointVectorFromMat(hull)
	if hullArea := gocv.ContourArea(hullPoints); hullArea > 0 {
		f.solidity = area / hullArea
	}
	hullPoints.Close()
	hull.Close()

	return f
}

func matchShape(f shapeFeatures) (string, float64) {
	if f.circularity > 0.7 && f.vertices > 8 {
		return "circle", math.Min(0.95, f.circularity)
	}
	if f.vertices == 4 && f.aspectRatio > 0.8 && f.aspectRatio < 1.2 && f.solidity > 0.8 {
		return "square", 0.85
	}
	if f.vertices == 3 && f.solidity > 0.7 {
		return "triangle", 0.80
	}
	if f.vertices == 2 || f.aspectRatio > 4 || (f.aspectRatio > 0 && f.aspectRatio < 0.25) {
		return "line", 0.75
	}
	if f.circularity < 0.5 && f.vertices > 10 && f.solidity < 0.8 {
		return "heart", 0.60
	}
	return "unknown", 0.3
}

func recognitionMessage(shape string, confidence float64) string {
	messages := map[string]string{
		"circle":   "I see a circle!",
		"square":   "that's a square!",
		"triangle": "I recognize a triangle!",
		"line":     "that's a straight line!",
		"heart":    "looks like a heart!",
		"unknown":  "I'm not sure what that is...",
	}
	msg := messages[shape]
	if confidence > 0.8 {
		return msg + " (very sure)"
	}
	return msg
}

func suggestions(shape string) []string {
	byShape := map[string][]string{
		"circle":   {"try a square", "draw a straight line", "draw a heart"},
		"square":   {"try a circle", "draw a triangle", "draw a diagonal"},
		"triangle": {"draw a circle", "draw a square", "draw a star"},
		"line":     {"draw a circle", "draw a zigzag", "draw a square"},
		"heart":    {"draw a circle", "draw a smiley", "draw a flower"},
	}
	if s, ok := byShape[shape]; ok {
		return s
	}
	return []string{"draw a circle", "draw a square", "draw a line"}
}
