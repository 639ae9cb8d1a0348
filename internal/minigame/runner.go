// Package minigame provides the shared lifecycle runner the camera
// mini-game services are built on. Each service owns a Runner and plugs
// its per-frame logic in through Hooks; the Runner handles start/stop
// arbitration, the capture loop and camera teardown.
package minigame

import (
	"errors"
	"log"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/camplay/internal/capture"
)

var (
	// ErrAlreadyRunning is returned by Start when the session is active.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrNotRunning is reported by Stop when no session is active.
	ErrNotRunning = errors.New("no session running")

	// ErrStopLoop is returned from a Process hook to end the session
	// cleanly from inside the capture loop.
	ErrStopLoop = errors.New("stop capture loop")
)

// Hooks are the per-service callbacks driven by the capture loop.
type Hooks struct {
	// Process handles one captured frame. Returning ErrStopLoop ends
	// the session; any other error is passed to OnError and the loop
	// continues with the next frame.
	Process func(frame *gocv.Mat) error

	// OnError is called for per-frame errors. Optional.
	OnError func(err error)

	// OnExit is called exactly once when the loop ends, whether by
	// Stop, ErrStopLoop or a camera failure. Optional.
	OnExit func()
}

// Runner drives a camera capture loop on a background goroutine.
// It is either idle or running; Start and Stop arbitrate transitions.
type Runner struct {
	name   string
	camera capture.Camera
	delay  time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRunner creates an idle runner. name appears in log lines; delay is
// the pause between frames (zero means capture as fast as the camera).
func NewRunner(name string, camera capture.Camera, delay time.Duration) *Runner {
	return &Runner{name: name, camera: camera, delay: delay}
}

// Running reports whether a session is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start opens the camera and begins the capture loop. It fails when a
// session is already active or the camera cannot be opened.
func (r *Runner) Start(hooks Hooks) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	if err := r.camera.Open(); err != nil {
		return err
	}

	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.loop(hooks, r.stopCh, r.doneCh)
	return nil
}

// Stop ends the session, joins the worker within timeout and releases the
// camera. Stopping an idle runner returns ErrNotRunning.
func (r *Runner) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	stopCh := r.stopCh
	doneCh := r.doneCh
	r.mu.Unlock()

	select {
	case <-stopCh:
	default:
		close(stopCh)
	}

	select {
	case <-doneCh:
	case <-time.After(timeout):
		log.Printf("%s: capture loop did not stop within %v", r.name, timeout)
	}
	return nil
}

func (r *Runner) loop(hooks Hooks, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()

		if err := r.camera.Close(); err != nil {
			log.Printf("%s: close camera: %v", r.name, err)
		}
		if hooks.OnExit != nil {
			hooks.OnExit()
		}
	}()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		frame, err := r.camera.ReadFrame()
		if err != nil {
			// A dead camera ends the session; the worker winds itself
			// down rather than joining its own goroutine.
			log.Printf("%s: read frame: %v", r.name, err)
			if hooks.OnError != nil {
				hooks.OnError(err)
			}
			return
		}

		err = hooks.Process(frame)
		frame.Close()

		if errors.Is(err, ErrStopLoop) {
			return
		}
		if err != nil {
			log.Printf("%s: process frame: %v", r.name, err)
			if hooks.OnError != nil {
				hooks.OnError(err)
			}
		}

		if r.delay > 0 {
			select {
			case <-stopCh:
				return
			case <-time.After(r.delay):
			}
		}
	}
}
