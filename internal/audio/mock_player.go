package audio

import (
	"errors"
	"sync"
	"time"
)

// MockPlayer simulates playback without producing sound. Each buffer
// "plays" for its real duration scaled by Speedup, or until Finish is
// called when Manual is set.
type MockPlayer struct {
	format Format

	// Speedup divides the simulated duration. Zero means 1.
	Speedup float64
	// Manual disables the timer: playback ends only on Finish or Stop.
	Manual bool
	// PlayErr, when set, is returned by Play.
	PlayErr error

	mu      sync.Mutex
	current *mockPlayback
	closed  bool
	volume  float64
	played  [][]byte
	pauses  int
	resumes int
	stops   int
}

type mockPlayback struct {
	remaining time.Duration
	started   time.Time
	timer     *time.Timer
	paused    bool
	done      chan struct{}
	once      sync.Once
}

func (pb *mockPlayback) finish() {
	pb.once.Do(func() { close(pb.done) })
}

// NewMockPlayer creates a mock player for f.
func NewMockPlayer(f Format) *MockPlayer {
	return &MockPlayer{format: f, volume: 1}
}

// Format returns the PCM format the player expects.
func (m *MockPlayer) Format() Format {
	return m.format
}

// Play records pcm and simulates its playback.
func (m *MockPlayer) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio data is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.PlayErr != nil {
		return nil, m.PlayErr
	}
	m.stopLocked()

	m.played = append(m.played, append([]byte(nil), pcm...))

	d := m.format.Duration(len(pcm))
	if m.Speedup > 0 {
		d = time.Duration(float64(d) / m.Speedup)
	}
	pb := &mockPlayback{remaining: d, done: make(chan struct{})}
	m.current = pb
	if !m.Manual {
		m.arm(pb)
	}
	return pb.done, nil
}

func (m *MockPlayer) arm(pb *mockPlayback) {
	pb.started = time.Now()
	pb.timer = time.AfterFunc(pb.remaining, func() {
		m.mu.Lock()
		if m.current == pb {
			m.current = nil
		}
		m.mu.Unlock()
		pb.finish()
	})
}

// Finish ends the current playback as if it had played to the end.
func (m *MockPlayer) Finish() {
	m.mu.Lock()
	pb := m.current
	m.current = nil
	m.mu.Unlock()

	if pb != nil {
		if pb.timer != nil {
			pb.timer.Stop()
		}
		pb.finish()
	}
}

// Pause freezes the simulated playback.
func (m *MockPlayer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	pb := m.current
	if pb == nil || pb.paused {
		return
	}
	m.pauses++
	pb.paused = true
	if pb.timer != nil && pb.timer.Stop() {
		pb.remaining -= time.Since(pb.started)
	}
}

// Resume continues a paused playback.
func (m *MockPlayer) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	pb := m.current
	if pb == nil || !pb.paused {
		return
	}
	m.resumes++
	pb.paused = false
	if !m.Manual {
		m.arm(pb)
	}
}

// Stop ends the current playback.
func (m *MockPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *MockPlayer) stopLocked() {
	pb := m.current
	if pb == nil {
		return
	}
	m.stops++
	m.current = nil
	if pb.timer != nil {
		pb.timer.Stop()
	}
	pb.finish()
}

// IsPlaying reports whether a buffer is playing and not paused.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && !m.current.paused
}

// SetVolume records the volume.
func (m *MockPlayer) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
	return nil
}

// Close stops playback; later Play calls fail.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.closed = true
	return nil
}

// Played returns copies of every buffer passed to Play.
func (m *MockPlayer) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.played...)
}

// Counts returns how many times Pause, Resume and Stop took effect.
func (m *MockPlayer) Counts() (pauses, resumes, stops int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses, m.resumes, m.stops
}
