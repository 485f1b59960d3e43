package voice

import (
	"sync"
	"time"

	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/tone"
)

var _ rehearsal.VoiceOutput = (*Mock)(nil)

// Call is one recorded Speak.
type Call struct {
	Text    string
	Profile tone.VoiceProfile
}

// Mock is a voice that makes no sound. With a zero Delay a line lasts until
// Finish is called; otherwise it completes on its own after Delay, which
// pauses along with the voice.
type Mock struct {
	Delay time.Duration

	mu        sync.Mutex
	calls     []Call
	pending   func()
	gen       int
	timer     *time.Timer
	remaining time.Duration
	started   time.Time
	paused    bool
	stops     int
}

// NewMock creates a mock voice whose lines last delay.
func NewMock(delay time.Duration) *Mock {
	return &Mock{Delay: delay}
}

// Speak records the call. A line still in progress completes first.
func (m *Mock) Speak(text string, profile tone.VoiceProfile, onComplete func()) {
	m.mu.Lock()
	prev := m.takeLocked()
	m.calls = append(m.calls, Call{Text: text, Profile: profile})
	m.pending = onComplete
	m.gen++
	m.paused = false
	if m.Delay > 0 {
		m.remaining = m.Delay
		m.armLocked()
	}
	m.mu.Unlock()

	fire(prev)
}

func (m *Mock) armLocked() {
	gen := m.gen
	m.started = time.Now()
	m.timer = time.AfterFunc(m.remaining, func() {
		m.mu.Lock()
		if m.pending == nil || m.gen != gen || m.paused {
			m.mu.Unlock()
			return
		}
		done := m.takeLocked()
		m.mu.Unlock()
		fire(done)
	})
}

// takeLocked detaches the pending callback and its timer.
func (m *Mock) takeLocked() func() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	cb := m.pending
	m.pending = nil
	return cb
}

// Finish completes the line in progress, if any.
func (m *Mock) Finish() {
	m.mu.Lock()
	cb := m.takeLocked()
	m.mu.Unlock()
	fire(cb)
}

// Stop cuts the line short; its completion fires.
func (m *Mock) Stop() {
	m.mu.Lock()
	m.stops++
	m.paused = false
	cb := m.takeLocked()
	m.mu.Unlock()
	fire(cb)
}

// Pause freezes a timed line.
func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.pending == nil {
		return
	}
	m.paused = true
	if m.timer != nil && m.timer.Stop() {
		m.remaining -= time.Since(m.started)
		m.timer = nil
	}
}

// Resume continues a paused line.
func (m *Mock) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.paused {
		return
	}
	m.paused = false
	if m.Delay > 0 && m.pending != nil {
		m.armLocked()
	}
}

// IsSpeaking reports whether a line is in progress.
func (m *Mock) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Calls returns every Speak so far.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Stops returns how many times Stop was called.
func (m *Mock) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func fire(cb func()) {
	if cb != nil {
		cb()
	}
}
