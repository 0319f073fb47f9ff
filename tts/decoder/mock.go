package decoder

import (
	"context"
	"sync"
)

// MockFrameSize is the PCM payload emitted per decoded window by the mock.
const MockFrameSize = 2048

// Mock is a deterministic frame decoder for tests and dry runs. Every call
// yields MockFrameSize bytes of silence and records the submitted window,
// unless a failure is configured.
type Mock struct {
	mu      sync.Mutex
	windows [][]int
	counts  []int

	failAt  int // 1-based call number that fails; 0 disables
	failErr error
}

// NewMock creates a mock frame decoder.
func NewMock() *Mock {
	return &Mock{}
}

// FailAt makes the given decode call (1-based) return err.
func (m *Mock) FailAt(call int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAt = call
	m.failErr = err
}

// Decode records the window and returns deterministic PCM.
func (m *Mock) Decode(_ context.Context, window []int, count int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windows = append(m.windows, append([]int(nil), window...))
	m.counts = append(m.counts, count)
	if m.failAt > 0 && len(m.windows) >= m.failAt {
		return nil, m.failErr
	}
	return make([]byte, MockFrameSize), nil
}

// Calls reports how many decode calls were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Windows returns copies of every submitted window, in call order.
func (m *Mock) Windows() [][]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]int, len(m.windows))
	copy(out, m.windows)
	return out
}

// Counts returns the accepted-count argument of every call, in order.
func (m *Mock) Counts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.counts...)
}
