package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/tone"
)

var _ rehearsal.VoiceOutput = (*SynthVoice)(nil)

// SynthVoice speaks lines by synthesizing them and playing the result.
// Each Speak runs on its own goroutine under its own context; the
// completion callback fires exactly once, after the profile's post-line
// pause, when the line finishes, fails, is superseded or is stopped.
type SynthVoice struct {
	synth  Synthesizer
	player Player

	mu      sync.Mutex
	current *utterance
	paused  bool
	resumed chan struct{} // closed on Resume
}

type utterance struct {
	ctx        context.Context
	cancel     context.CancelFunc
	onComplete func()
	once       sync.Once
}

// NewSynthVoice creates a voice over synth and player.
func NewSynthVoice(synth Synthesizer, player Player) *SynthVoice {
	return &SynthVoice{synth: synth, player: player}
}

// Speak starts text, cutting short anything already speaking.
func (v *SynthVoice) Speak(text string, profile tone.VoiceProfile, onComplete func()) {
	ctx, cancel := context.WithCancel(context.Background())
	u := &utterance{ctx: ctx, cancel: cancel, onComplete: onComplete}

	v.mu.Lock()
	if prev := v.current; prev != nil {
		prev.cancel()
		v.player.Stop()
	}
	v.current = u
	v.mu.Unlock()

	go v.run(u, text, profile)
}

func (v *SynthVoice) run(u *utterance, text string, profile tone.VoiceProfile) {
	defer v.finish(u)

	pcm, err := v.synth.Synthesize(u.ctx, text, profile)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("Voice synthesis failed, skipping line audio", "synth", v.synth.Name(), "error", err)
		}
		return
	}

	if v.waitUnpaused(u.ctx) != nil {
		return
	}

	// Play under the lock so a concurrent Speak or Stop cannot slip between
	// the cancellation check and the start of playback.
	v.mu.Lock()
	if u.ctx.Err() != nil {
		v.mu.Unlock()
		return
	}
	done, err := v.player.Play(pcm)
	v.mu.Unlock()
	if err != nil {
		log.Warn("Playback failed", "error", err)
		return
	}

	select {
	case <-done:
	case <-u.ctx.Done():
		return
	}

	if profile.PostPauseMs > 0 {
		timer := time.NewTimer(time.Duration(profile.PostPauseMs) * time.Millisecond)
		select {
		case <-timer.C:
		case <-u.ctx.Done():
			timer.Stop()
			return
		}
	}

	_ = v.waitUnpaused(u.ctx)
}

func (v *SynthVoice) finish(u *utterance) {
	v.mu.Lock()
	if v.current == u {
		v.current = nil
	}
	v.mu.Unlock()

	u.cancel()
	u.once.Do(func() {
		if u.onComplete != nil {
			u.onComplete()
		}
	})
}

// waitUnpaused blocks while the voice is paused.
func (v *SynthVoice) waitUnpaused(ctx context.Context) error {
	v.mu.Lock()
	if !v.paused {
		v.mu.Unlock()
		return nil
	}
	ch := v.resumed
	v.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cuts the current line short. Its completion still fires.
func (v *SynthVoice) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current != nil {
		v.current.cancel()
		v.current = nil
	}
	v.player.Stop()
	v.unpauseLocked()
}

// Pause holds the current line where it is.
func (v *SynthVoice) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.paused {
		return
	}
	v.paused = true
	v.resumed = make(chan struct{})
	v.player.Pause()
}

// Resume continues a paused line.
func (v *SynthVoice) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.unpauseLocked() {
		v.player.Resume()
	}
}

func (v *SynthVoice) unpauseLocked() bool {
	if !v.paused {
		return false
	}
	v.paused = false
	close(v.resumed)
	return true
}

// IsSpeaking reports whether a line is in progress, paused or not.
func (v *SynthVoice) IsSpeaking() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current != nil
}
