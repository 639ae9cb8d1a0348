package action

import (
	"math"

	"github.com/ayusman/camplay/internal/detector"
)

// Detector measures action progress against a baseline expression captured
// at the start of a session.
type Detector struct {
	baseline *detector.FaceFeatures
}

// SetBaseline records the player's resting expression. All progress values
// are relative to it.
func (d *Detector) SetBaseline(features *detector.FaceFeatures) {
	d.baseline = features
}

// HasBaseline reports whether a baseline has been captured.
func (d *Detector) HasBaseline() bool {
	return d.baseline != nil
}

// Progress scores how far the current frame is into the given action,
// clamped to [0,1]. Without a baseline all actions score zero.
func (d *Detector) Progress(action Type, features *detector.FaceFeatures) float64 {
	if d.baseline == nil || features == nil {
		return 0
	}

	switch action {
	case Smile:
		return d.smile(features)
	case TurnLeft:
		return d.headTurn(features, -1)
	case TurnRight:
		return d.headTurn(features, 1)
	case Shrug:
		return d.shrug(features)
	case RaiseEyebrows:
		return d.eyebrowRaise(features)
	case Wink:
		return d.wink(features)
	case Nod:
		return d.nod(features)
	}
	return 0
}

// smile compares the mouth width-to-height ratio against the baseline.
// A smile widens the mouth and flattens it vertically.
func (d *Detector) smile(f *detector.FaceFeatures) float64 {
	if len(f.Mouth) < 10 || len(d.baseline.Mouth) < 10 {
		return 0
	}

	ratio := mouthRatio(f.Mouth)
	base := mouthRatio(d.baseline.Mouth)
	if base == 0 {
		return 0
	}

	change := (ratio - base) / base
	return clamp(change * 2)
}

// headTurn tracks the horizontal shift of the face center. direction is
// -1 for left, +1 for right; 50px of shift is full progress.
func (d *Detector) headTurn(f *detector.FaceFeatures, direction float64) float64 {
	center := (f.NoseTip.X + f.Chin.X + f.Forehead.X) / 3
	base := (d.baseline.NoseTip.X + d.baseline.Chin.X + d.baseline.Forehead.X) / 3

	shift := (center - base) * direction
	if shift <= 0 {
		return 0
	}
	return clamp(shift / 50)
}

// shrug measures the nose-to-chin distance shrinking as the shoulders
// rise towards the face.
func (d *Detector) shrug(f *detector.FaceFeatures) float64 {
	base := math.Abs(d.baseline.Chin.Y - d.baseline.NoseTip.Y)
	if base == 0 {
		base = 1
	}
	current := math.Abs(f.Chin.Y - f.NoseTip.Y)
	if current == 0 {
		current = 1
	}

	change := (base - current) / base
	return clamp(change * 3)
}

// eyebrowRaise measures the average upward movement of both brows;
// 15px of lift is full progress.
func (d *Detector) eyebrowRaise(f *detector.FaceFeatures) float64 {
	current := averageY(f.LeftBrow, f.RightBrow)
	base := averageY(d.baseline.LeftBrow, d.baseline.RightBrow)

	return clamp((base - current) / 15)
}

// wink compares the two eye openings; a large asymmetry means one eye
// is closing.
func (d *Detector) wink(f *detector.FaceFeatures) float64 {
	if len(f.LeftEye) < 6 || len(f.RightEye) < 6 {
		return 0
	}

	left := math.Abs(f.LeftEye[1].Y - f.LeftEye[4].Y)
	if left == 0 {
		left = 1
	}
	right := math.Abs(f.RightEye[1].Y - f.RightEye[4].Y)
	if right == 0 {
		right = 1
	}

	ratio := left / right
	if ratio < 1 {
		ratio = 1 / ratio
	}
	return clamp(ratio - 1)
}

// nod tracks the nose tip dipping below its baseline position;
// 20px of dip is full progress.
func (d *Detector) nod(f *detector.FaceFeatures) float64 {
	shift := f.NoseTip.Y - d.baseline.NoseTip.Y
	if shift <= 0 {
		return 0
	}
	return clamp(shift / 20)
}

func mouthRatio(mouth []detector.Point2D) float64 {
	width := math.Abs(mouth[6].X - mouth[0].X)
	height := math.Abs(mouth[9].Y - mouth[3].Y)
	if height == 0 {
		height = 1
	}
	return width / height
}

func averageY(brows ...[]detector.Point2D) float64 {
	sum := 0.0
	count := 0
	for _, brow := range brows {
		for _, p := range brow {
			sum += p.Y
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
