package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/broadcast"
	"github.com/ayusman/camplay/internal/capture"
	"github.com/ayusman/camplay/internal/detector"
	"github.com/ayusman/camplay/internal/drawing"
)

func newDrawingHandler(t *testing.T) *DrawingHandler {
	t.Helper()

	frames := make([]*gocv.Mat, 2)
	for i := range frames {
		mat := gocv.NewMatWithSize(drawing.CanvasHeight, drawing.CanvasWidth, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})

	b := broadcast.New(256)
	svc := drawing.New(
		drawing.Config{FrameDelay: time.Millisecond},
		b,
		detector.NewMockHandDetector(),
		capture.NewMockCamera(frames, true),
	)
	t.Cleanup(func() { svc.Stop() })
	return NewDrawingHandler(svc)
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestDrawingHandler_SessionLifecycle(t *testing.T) {
	h := newDrawingHandler(t)

	rr := postForm(t, h, "/api/drawing/start", url.Values{"mode": {"gesture_control"}, "color": {"blue"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["status"] != "started" || body["session_id"] == "" {
		t.Errorf("start response = %v", body)
	}
	if body["mode"] != "gesture_control" {
		t.Errorf("mode = %v", body["mode"])
	}

	rr = postForm(t, h, "/api/drawing/start", url.Values{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("second start status = %d, want 400", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/drawing/status", nil))
	status := decodeBody(t, rr)
	if status["is_drawing"] != true || status["current_color"] != "blue" {
		t.Errorf("status response = %v", status)
	}

	rr = postForm(t, h, "/api/drawing/stop", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rr.Code)
	}
	stop := decodeBody(t, rr)
	if stop["status"] != "stopped" || stop["final_recognition"] == nil {
		t.Errorf("stop response = %v", stop)
	}
}

func TestDrawingHandler_CanvasOperations(t *testing.T) {
	h := newDrawingHandler(t)

	rr := postForm(t, h, "/api/drawing/recognize", url.Values{})
	if rr.Code != http.StatusOK {
		t.Fatalf("recognize status = %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["recognized"] != "empty" {
		t.Errorf("blank canvas recognized as %v", body["recognized"])
	}

	rr = postForm(t, h, "/api/drawing/color", url.Values{"color": {"chartreuse"}})
	if body := decodeBody(t, rr); body["color"] != "black" {
		t.Errorf("unknown color applied as %v, want black fallback", body["color"])
	}

	rr = postForm(t, h, "/api/drawing/brush", url.Values{"size": {"50"}})
	if body := decodeBody(t, rr); body["brush_size"] != float64(drawing.MaxBrushSize) {
		t.Errorf("brush_size = %v, want clamped to %d", body["brush_size"], drawing.MaxBrushSize)
	}

	rr = postForm(t, h, "/api/drawing/brush", url.Values{"size": {"big"}})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid brush size status = %d, want 400", rr.Code)
	}

	rr = postForm(t, h, "/api/drawing/clear", url.Values{})
	if rr.Code != http.StatusOK {
		t.Errorf("clear status = %d", rr.Code)
	}
}
