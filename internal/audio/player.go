package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrClosed is returned by Play after Close.
var ErrClosed = errors.New("player is closed")

// State represents the current state of a player.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	Format
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration. 22050 Hz
// mono is what piper's medium voices produce.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Format:     Format{SampleRate: 22050, Channels: 1},
		BufferSize: 100 * time.Millisecond,
	}
}

// Player plays one PCM buffer at a time through oto. Starting a new buffer
// stops the previous one.
type Player struct {
	context *oto.Context
	format  Format

	mu      sync.Mutex
	current *playback
	volume  float64
	closed  bool
}

// playback is one Play call. data is referenced until the oto player is
// closed so the buffer cannot be collected mid-stream.
type playback struct {
	player *oto.Player
	data   []byte
	paused bool
	done   chan struct{}
	once   sync.Once
}

func (pb *playback) finish() {
	pb.once.Do(func() { close(pb.done) })
}

// pollInterval is how often a playback is checked for natural completion.
const pollInterval = 10 * time.Millisecond

// NewPlayer opens the audio device. oto allows one context per process.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	return &Player{
		context: ctx,
		format:  config.Format,
		volume:  1,
	}, nil
}

// Format returns the PCM format the player expects.
func (p *Player) Format() Format {
	return p.format
}

// Play starts pcm and returns a channel closed when it ends, either
// naturally or because of Stop, Close or a later Play.
func (p *Player) Play(pcm []byte) (<-chan struct{}, error) {
	if len(pcm) == 0 {
		return nil, errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	p.stopLocked()

	data := make([]byte, len(pcm))
	copy(data, pcm)

	pb := &playback{
		player: p.context.NewPlayer(bytes.NewReader(data)),
		data:   data,
		done:   make(chan struct{}),
	}
	pb.player.SetVolume(p.volume)
	pb.player.Play()
	p.current = pb

	go p.watch(pb)
	return pb.done, nil
}

func (p *Player) watch(pb *playback) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.current != pb {
			p.mu.Unlock()
			return
		}
		if !pb.paused && !pb.player.IsPlaying() {
			p.current = nil
			_ = pb.player.Close()
			pb.data = nil
			p.mu.Unlock()
			pb.finish()
			return
		}
		p.mu.Unlock()
	}
}

// Pause pauses the current playback, if any.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pb := p.current; pb != nil && !pb.paused {
		pb.player.Pause()
		pb.paused = true
	}
}

// Resume resumes paused playback.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pb := p.current; pb != nil && pb.paused {
		pb.player.Play()
		pb.paused = false
	}
}

// Stop ends the current playback.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	pb := p.current
	if pb == nil {
		return
	}
	p.current = nil
	pb.player.Pause()
	_ = pb.player.Close()
	pb.data = nil
	pb.finish()
}

// State reports what the player is doing.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return StateClosed
	case p.current == nil:
		return StateStopped
	case p.current.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// IsPlaying returns whether audio is currently playing.
func (p *Player) IsPlaying() bool {
	return p.State() == StatePlaying
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = volume
	if p.current != nil {
		p.current.player.SetVolume(volume)
	}
	return nil
}

// Close stops playback and suspends the device. oto/v3 contexts cannot be
// destroyed, only suspended.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	return p.context.Suspend()
}
