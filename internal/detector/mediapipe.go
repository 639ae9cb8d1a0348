package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// landmarkService manages a Python MediaPipe helper subprocess shared by the
// hand and face detectors. Frames are written as length-prefixed JPEG and
// responses come back as one JSON line per frame. The process is started
// lazily on first use and shut down after an idle period.
type landmarkService struct {
	script    string
	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

const serviceIdleTimeout = 30 * time.Second

func newLandmarkService(scriptName string) (*landmarkService, error) {
	script := findServiceScript(scriptName)
	if script == "" {
		return nil, fmt.Errorf("%s not found", scriptName)
	}
	return &landmarkService{script: script}, nil
}

// roundTrip sends one frame to the helper and returns the raw JSON response.
func (s *landmarkService) roundTrip(frame *gocv.Mat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := s.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := s.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	s.resetIdleTimer()
	return []byte(line), nil
}

func (s *landmarkService) ensureStarted() error {
	if s.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	s.cmd = exec.Command(pythonPath, s.script)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	return nil
}

func (s *landmarkService) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *landmarkService) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	return err
}

func (s *landmarkService) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}

// MediaPipeHands implements HandDetector using a Python MediaPipe subprocess.
type MediaPipeHands struct {
	config  Config
	service *landmarkService
}

// NewMediaPipeHands creates a hand detector backed by the MediaPipe helper.
// The Python process is started lazily on first detection.
func NewMediaPipeHands(config Config) (*MediaPipeHands, error) {
	service, err := newLandmarkService("hands_service.py")
	if err != nil {
		return nil, err
	}
	return &MediaPipeHands{config: config, service: service}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeHands) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	line, err := d.service.roundTrip(frame)
	if err != nil {
		return nil, err
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	result := make([]HandLandmarks, len(response.Hands))
	for i, h := range response.Hands {
		result[i] = h.toHandLandmarks()
	}
	return result, nil
}

// Close shuts down the Python process.
func (d *MediaPipeHands) Close() error {
	return d.service.close()
}

// MediaPipeFaceMesh implements FaceDetector using a Python MediaPipe subprocess.
type MediaPipeFaceMesh struct {
	service *landmarkService
}

// NewMediaPipeFaceMesh creates a face-mesh detector backed by the MediaPipe
// helper. The Python process is started lazily on first extraction.
func NewMediaPipeFaceMesh() (*MediaPipeFaceMesh, error) {
	service, err := newLandmarkService("facemesh_service.py")
	if err != nil {
		return nil, err
	}
	return &MediaPipeFaceMesh{service: service}, nil
}

// ExtractFeatures analyzes a frame and returns the facial feature regions.
// Returns nil when no face is present.
func (d *MediaPipeFaceMesh) ExtractFeatures(frame *gocv.Mat) (*FaceFeatures, error) {
	line, err := d.service.roundTrip(frame)
	if err != nil {
		return nil, err
	}

	var response struct {
		Points []jsonPoint `json:"points"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(response.Points) == 0 {
		return nil, nil
	}

	width := float64(frame.Cols())
	height := float64(frame.Rows())
	landmarks := make([]Point2D, len(response.Points))
	for i, p := range response.Points {
		landmarks[i] = Point2D{X: p.X * width, Y: p.Y * height}
	}

	return BuildFaceFeatures(landmarks, width, height), nil
}

// Close shuts down the Python process.
func (d *MediaPipeFaceMesh) Close() error {
	return d.service.close()
}

func findServiceScript(name string) string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", name),
		filepath.Join("..", "scripts", name),
		filepath.Join(execDir, "scripts", name),
		filepath.Join(os.Getenv("HOME"), ".camplay", "scripts", name),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".camplay/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		lm.Points[i] = Point3D{
			X: h.Points[i].X,
			Y: h.Points[i].Y,
			Z: h.Points[i].Z,
		}
	}
	return lm
}
