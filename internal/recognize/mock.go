package recognize

import (
	"sync"

	"gocv.io/x/gocv"
)

// Mock is a test implementation of the Recognizer interface. It returns a
// scripted sequence of results, repeating the last one once exhausted.
type Mock struct {
	mu        sync.Mutex
	results   []Result
	err       error
	available bool
	calls     int
}

// NewMock creates an available mock recognizer returning unknown results.
func NewMock() *Mock {
	return &Mock{available: true}
}

// SetResults sets the sequence of results returned by successive Detect calls.
func (m *Mock) SetResults(results ...Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
}

// SetError makes Detect fail with the given error.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetAvailable controls IsAvailable.
func (m *Mock) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// Calls returns how many times Detect has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// IsAvailable reports the configured availability.
func (m *Mock) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Detect returns the next scripted result.
func (m *Mock) Detect(frame *gocv.Mat) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return Result{Label: LabelUnknown}, m.err
	}
	if len(m.results) == 0 {
		return Result{Label: LabelUnknown}, nil
	}

	result := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return result, nil
}
