package voice

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/cueline/internal/cache"
	"github.com/dgnsrekt/cueline/tone"
)

// CachedSynth serves repeated lines from an audio cache. Rehearsals replay
// the same lines constantly, so most partner lines after the first run are
// cache hits.
type CachedSynth struct {
	synth Synthesizer
	cache *cache.Manager
}

var _ Synthesizer = (*CachedSynth)(nil)

// NewCachedSynth fronts synth with c.
func NewCachedSynth(synth Synthesizer, c *cache.Manager) *CachedSynth {
	return &CachedSynth{synth: synth, cache: c}
}

func (c *CachedSynth) Name() string    { return c.synth.Name() }
func (c *CachedSynth) Available() bool { return c.synth.Available() }

// Cached reports whether audio for text and profile is already stored.
func (c *CachedSynth) Cached(text string, profile tone.VoiceProfile) bool {
	return c.cache.Contains(cache.Key(c.synth.Name(), text, profile))
}

// Synthesize returns cached audio or synthesizes and stores it. Wrap a
// concrete backend rather than a FallbackSynth so audio is always keyed by
// the backend that produced it.
func (c *CachedSynth) Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}

	key := cache.Key(c.synth.Name(), text, profile)
	if pcm, ok := c.cache.Get(key); ok {
		return pcm, nil
	}

	pcm, err := c.synth.Synthesize(ctx, text, profile)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Put(key, pcm); err != nil {
		log.Debug("Could not cache line audio", "error", err)
	}
	return pcm, nil
}
