package drawing

import (
	"image"
	"math"
	"strings"
	"testing"
)

func TestCanvas_StrokesAndPenUp(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	c.Draw(image.Point{X: 100, Y: 100})
	c.Draw(image.Point{X: 120, Y: 110})
	c.Draw(image.Point{X: 140, Y: 120})
	if got := c.Strokes(); got != 1 {
		t.Errorf("Strokes() = %d, want 1 for a joined stroke", got)
	}

	c.PenUp()
	c.Draw(image.Point{X: 300, Y: 300})
	if got := c.Strokes(); got != 2 {
		t.Errorf("Strokes() = %d, want 2 after pen up", got)
	}
}

func TestCanvas_ClearResetsStrokes(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	c.Draw(image.Point{X: 50, Y: 50})
	c.Clear()

	if got := c.Strokes(); got != 0 {
		t.Errorf("Strokes() after Clear = %d, want 0", got)
	}

	snapshot := c.Snapshot()
	defer snapshot.Close()
	if got := RecognizeShape(snapshot); got.Shape != "empty" {
		t.Errorf("cleared canvas recognized as %q, want empty", got.Shape)
	}
}

func TestCanvas_BrushSizeClamped(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	c.SetBrushSize(0)
	if got := c.BrushSize(); got != MinBrushSize {
		t.Errorf("BrushSize() = %d, want clamped to %d", got, MinBrushSize)
	}

	c.SetBrushSize(100)
	if got := c.BrushSize(); got != MaxBrushSize {
		t.Errorf("BrushSize() = %d, want clamped to %d", got, MaxBrushSize)
	}
}

func TestCanvas_ColorFallback(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	if got := c.SetColor("red"); got != "red" {
		t.Errorf("SetColor(red) = %q", got)
	}
	if got := c.SetColor("chartreuse"); got != "black" {
		t.Errorf("SetColor(chartreuse) = %q, want black fallback", got)
	}
}

func TestCanvas_EncodePNG(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	c.Draw(image.Point{X: 10, Y: 10})

	img, err := c.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	if !strings.HasPrefix(img, "data:image/png;base64,") {
		t.Errorf("EncodePNG() = %.40q..., want a PNG data URL", img)
	}
}

func TestRecognizeShape_Circle(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	// Trace a circle with joined stroke segments.
	center := image.Point{X: 320, Y: 240}
	const radius = 100.0
	for i := 0; i <= 72; i++ {
		angle := float64(i) * 5 * math.Pi / 180
		c.Draw(image.Point{
			X: center.X + int(radius*math.Cos(angle)),
			Y: center.Y + int(radius*math.Sin(angle)),
		})
	}

	snapshot := c.Snapshot()
	defer snapshot.Close()

	got := RecognizeShape(snapshot)
	if got.Shape != "circle" {
		t.Errorf("RecognizeShape() = %q (%.2f), want circle", got.Shape, got.Confidence)
	}
	if got.Confidence < 0.7 {
		t.Errorf("circle confidence = %.2f, want >= 0.7", got.Confidence)
	}
	if len(got.Suggestions) == 0 {
		t.Error("recognition returned no suggestions")
	}
}

func TestRecognizeShape_Line(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	c.Draw(image.Point{X: 50, Y: 240})
	c.Draw(image.Point{X: 590, Y: 240})

	snapshot := c.Snapshot()
	defer snapshot.Close()

	if got := RecognizeShape(snapshot); got.Shape != "line" {
		t.Errorf("RecognizeShape() = %q, want line", got.Shape)
	}
}

func TestRecognizeShape_Square(t *testing.T) {
	c := NewCanvas()
	defer c.Close()

	corners := []image.Point{
		{X: 200, Y: 140}, {X: 440, Y: 140},
		{X: 440, Y: 380}, {X: 200, Y: 380}, {X: 200, Y: 140},
	}
	for _, p := range corners {
		c.Draw(p)
	}

	snapshot := c.Snapshot()
	defer snapshot.Close()

	got := RecognizeShape(snapshot)
	if got.Shape != "square" && got.Shape != "circle" {
		// A thick-stroked square can read as near-circular; either label
		// is a closed convex match, but unknown or line would be wrong.
		t.Errorf("RecognizeShape() = %q (%.2f), want a closed shape", got.Shape, got.Confidence)
	}
}
