package emotion

import (
	"testing"

	"github.com/ayusman/camplay/internal/detector"
)

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		features Features
		want     string
	}{
		{
			name: "wide curved mouth is happy",
			features: Features{
				MouthCurvature:   8,
				MouthWidth:       0.2,
				EyeOpenness:      0.3,
				MouthAspectRatio: 0.1,
				BrowHeight:       5,
			},
			want: Happy,
		},
		{
			name: "wide eyes and open mouth is surprised",
			features: Features{
				EyeOpenness:      0.5,
				MouthAspectRatio: 0.2,
				BrowHeight:       10,
				MouthWidth:       0.1,
			},
			want: Surprised,
		},
		{
			name: "drooping mouth and low lids is sad",
			features: Features{
				MouthCurvature:   -5,
				EyeOpenness:      0.1,
				MouthAspectRatio: 0.03,
				BrowHeight:       5,
				MouthWidth:       0.1,
			},
			want: Sad,
		},
		{
			name: "pressed brows and tight mouth is angry",
			features: Features{
				BrowHeight:       1,
				MouthAspectRatio: 0.02,
				MouthCurvature:   -1,
				EyeOpenness:      0.18,
				MouthWidth:       0.1,
			},
			want: Angry,
		},
		{
			name: "weak signals fall back to neutral",
			features: Features{
				MouthCurvature:   0,
				EyeOpenness:      0.3,
				MouthAspectRatio: 0.1,
				MouthWidth:       0.1,
				BrowHeight:       5,
			},
			want: Neutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Detector{}
			got := d.Detect(tt.features)
			if got.Emotion != tt.want {
				t.Errorf("Detect() = %q (%.2f), want %q, scores %v",
					got.Emotion, got.Confidence, tt.want, got.Scores)
			}
			if got.Confidence < 0.3 {
				t.Errorf("Detect() confidence = %.2f, want >= 0.3", got.Confidence)
			}
		})
	}
}

func TestDetector_Trend(t *testing.T) {
	d := &Detector{}

	if trend := d.Trend(); trend.DominantEmotion != Neutral || trend.Trend != "stable" {
		t.Errorf("empty history trend = %+v, want stable neutral", trend)
	}

	happy := Features{MouthCurvature: 8, MouthWidth: 0.2, EyeOpenness: 0.3, MouthAspectRatio: 0.1, BrowHeight: 5}
	for i := 0; i < 6; i++ {
		d.Detect(happy)
	}

	trend := d.Trend()
	if trend.DominantEmotion != Happy {
		t.Errorf("dominant emotion = %q, want happy", trend.DominantEmotion)
	}
	if trend.Trend != "stable" {
		t.Errorf("trend = %q, want stable for a constant expression", trend.Trend)
	}
}

func TestExtractFeatures(t *testing.T) {
	if got := ExtractFeatures(nil); got != (Features{}) {
		t.Errorf("ExtractFeatures(nil) = %+v, want zero", got)
	}

	f := ExtractFeatures(detector.NeutralFaceFeatures())
	if f.EyeOpenness <= 0.1 || f.EyeOpenness >= 0.7 {
		t.Errorf("EyeOpenness = %.3f, want a plausible open-eye ratio", f.EyeOpenness)
	}
	if f.MouthWidth <= 0 {
		t.Errorf("MouthWidth = %.3f, want positive", f.MouthWidth)
	}
	if f.BrowHeight <= 0 {
		t.Errorf("BrowHeight = %.3f, brows sit above the eyes", f.BrowHeight)
	}
	if f.MouthAspectRatio <= 0 {
		t.Errorf("MouthAspectRatio = %.3f, want positive", f.MouthAspectRatio)
	}
}
