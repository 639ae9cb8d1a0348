// Package drawing implements the gesture drawing game: a virtual canvas
// driven by fingertip positions, with contour-based shape recognition of
// what the player has drawn.
package drawing

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// Canvas dimensions match the capture resolution.
const (
	CanvasWidth  = 640
	CanvasHeight = 480

	MinBrushSize = 1
	MaxBrushSize = 20
)

// Palette colors, BGR as drawn onto the canvas.
var palette = map[string]color.RGBA{
	"black":  {R: 0, G: 0, B: 0, A: 255},
	"red":    {R: 255, G: 0, B: 0, A: 255},
	"green":  {R: 0, G: 255, B: 0, A: 255},
	"blue":   {R: 0, G: 0, B: 255, A: 255},
	"yellow": {R: 255, G: 255, B: 0, A: 255},
	"purple": {R: 128, G: 0, B: 128, A: 255},
}

// ParseColor maps a request string to a palette color, defaulting to black.
func ParseColor(name string) (string, color.RGBA) {
	if c, ok := palette[name]; ok {
		return name, c
	}
	return "black", palette["black"]
}

// LookupColor reports whether name is a palette color.
func LookupColor(name string) (color.RGBA, bool) {
	c, ok := palette[name]
	return c, ok
}

// Canvas is a drawable surface with stroke joining. A stroke continues
// from the previous pen position until PenUp is called; the next draw
// then starts a fresh stroke.
type Canvas struct {
	mu        sync.Mutex
	mat       gocv.Mat
	colorName string
	color     color.RGBA
	brushSize int
	lastPos   *image.Point
	strokes   int
}

// NewCanvas creates a white canvas with a black 5px brush.
func NewCanvas() *Canvas {
	mat := gocv.NewMatWithSize(CanvasHeight, CanvasWidth, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(255, 255, 255, 0))

	return &Canvas{
		mat:       mat,
		colorName: "black",
		color:     palette["black"],
		brushSize: 5,
	}
}

// SetColor switches the brush color. Unknown names fall back to black.
func (c *Canvas) SetColor(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colorName, c.color = ParseColor(name)
	return c.colorName
}

// Color returns the current brush color name.
func (c *Canvas) Color() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colorName
}

// SetBrushSize sets the brush diameter, clamped to [MinBrushSize,MaxBrushSize].
func (c *Canvas) SetBrushSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size < MinBrushSize {
		size = MinBrushSize
	}
	if size > MaxBrushSize {
		size = MaxBrushSize
	}
	c.brushSize = size
}

// BrushSize returns the current brush diameter.
func (c *Canvas) BrushSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brushSize
}

// Draw extends the current stroke to p, joining from the previous pen
// position with a line. The first point of a stroke is a dot.
func (c *Canvas) Draw(p image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastPos != nil {
		gocv.Line(&c.mat, *c.lastPos, p, c.color, c.brushSize)
	} else {
		gocv.Circle(&c.mat, p, c.brushSize/2+1, c.color, -1)
		c.strokes++
	}
	c.lastPos = &p
}

// Erase paints white around p with a widened brush and lifts the pen.
func (c *Canvas) Erase(p image.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.Circle(&c.mat, p, c.brushSize*2, white, -1)
	c.lastPos = nil
}

// PenUp ends the current stroke; the next Draw starts a new one.
func (c *Canvas) PenUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPos = nil
}

// Clear wipes the canvas back to white and resets the stroke count.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mat.SetTo(gocv.NewScalar(255, 255, 255, 0))
	c.lastPos = nil
	c.strokes = 0
}

// Strokes returns how many strokes have been started since the last Clear.
func (c *Canvas) Strokes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strokes
}

// Snapshot returns a copy of the canvas image. The caller owns the Mat.
func (c *Canvas) Snapshot() gocv.Mat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mat.Clone()
}

// EncodePNG returns the canvas as a base64 PNG data URL.
func (c *Canvas) EncodePNG() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, err := gocv.IMEncode(".png", c.mat)
	if err != nil {
		return "", fmt.Errorf("encode canvas: %w", err)
	}
	defer buf.Close()

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}

// Close releases the canvas image.
func (c *Canvas) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mat.Close()
}
