// Package api provides the HTTP API handlers for the camplay game server.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gocv.io/x/gocv"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeUpload reads the "file" part of a multipart upload and decodes it
// into an image matrix. The caller owns the returned Mat.
func decodeUpload(r *http.Request) (gocv.Mat, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return gocv.Mat{}, fmt.Errorf("parse upload: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("missing file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("read file: %w", err)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode image: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, fmt.Errorf("empty image")
	}
	return img, nil
}
