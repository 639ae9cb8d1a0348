package recognize

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a frame payload decodes to no image data.
var ErrEmptyFrame = errors.New("empty frame data")

// DecodeFrame turns a browser frame payload into an image matrix. The
// payload may be a data URL ("data:image/jpeg;base64,...") or bare base64.
// The caller owns the returned Mat and must Close it.
func DecodeFrame(payload string) (gocv.Mat, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return gocv.Mat{}, ErrEmptyFrame
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode base64: %w", err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode image: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, ErrEmptyFrame
	}
	return img, nil
}
