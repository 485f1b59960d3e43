package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/cueline/tone"
)

// FallbackSynth wraps a primary synthesizer with a fallback. A failed
// primary call is retried on the fallback so the line is still heard; after
// maxFailures consecutive failures, or when the primary reports itself
// unavailable, the fallback is used directly until Reset.
type FallbackSynth struct {
	primary       Synthesizer
	fallback      Synthesizer
	maxFailures   int
	failures      int
	usingFallback bool
	mu            sync.Mutex
}

var _ Synthesizer = (*FallbackSynth)(nil)

// NewFallbackSynth creates a synthesizer with automatic fallback.
func NewFallbackSynth(primary, fallback Synthesizer, maxFailures int) *FallbackSynth {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FallbackSynth{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
	}
}

// Name returns the name of the synthesizer currently in use.
func (f *FallbackSynth) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usingFallback {
		return f.fallback.Name()
	}
	return f.primary.Name()
}

// Available reports whether either synthesizer can run.
func (f *FallbackSynth) Available() bool {
	return f.primary.Available() || f.fallback.Available()
}

// Synthesize uses the active synthesizer, falling back on failure.
func (f *FallbackSynth) Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error) {
	f.mu.Lock()
	if !f.usingFallback && !f.primary.Available() {
		log.Warn("Primary voice not available, switching to fallback", "primary", f.primary.Name(), "fallback", f.fallback.Name())
		f.usingFallback = true
	}
	usingFallback := f.usingFallback
	f.mu.Unlock()

	if usingFallback {
		return f.fallback.Synthesize(ctx, text, profile)
	}

	pcm, err := f.primary.Synthesize(ctx, text, profile)
	if err == nil {
		f.mu.Lock()
		if f.failures > 0 {
			log.Info("Primary voice recovered", "failures", f.failures)
			f.failures = 0
		}
		f.mu.Unlock()
		return pcm, nil
	}

	// Cancellation is not the backend's fault.
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyText) {
		return nil, err
	}

	f.mu.Lock()
	f.failures++
	log.Warn("Primary voice failed", "attempt", f.failures, "max", f.maxFailures, "error", err)
	if f.failures >= f.maxFailures && !f.usingFallback {
		log.Warn("Switching to fallback voice", "fallback", f.fallback.Name())
		f.usingFallback = true
	}
	f.mu.Unlock()

	pcm, ferr := f.fallback.Synthesize(ctx, text, profile)
	if ferr != nil {
		return nil, fmt.Errorf("%w: primary=%v, fallback=%v", ErrAllFailed, err, ferr)
	}
	return pcm, nil
}

// Reset returns to the primary synthesizer.
func (f *FallbackSynth) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures = 0
	f.usingFallback = false
}

// Status returns whether the fallback is active and the failure count.
func (f *FallbackSynth) Status() (usingFallback bool, failures int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback, f.failures
}
