package voice

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/tone"
)

// PrefetchItem is a line to synthesize ahead of time.
type PrefetchItem struct {
	Text    string
	Profile tone.VoiceProfile
}

// Prefetcher synthesizes upcoming lines in the background so the cache
// already holds their audio when they come up. Each Queue call replaces
// whatever is still waiting. The cache decides what is done: a line that
// failed or was evicted is synthesized again the next time it is queued.
type Prefetcher struct {
	synth *CachedSynth

	mu      sync.Mutex
	pending []PrefetchItem
	wake    chan struct{}
}

// NewPrefetcher creates a prefetcher over one cached backend. It talks to
// that tier directly so background failures never count against the live
// fallback chain.
func NewPrefetcher(synth *CachedSynth) *Prefetcher {
	return &Prefetcher{
		synth: synth,
		wake:  make(chan struct{}, 1),
	}
}

// Queue replaces the pending work with items, skipping lines already cached.
func (p *Prefetcher) Queue(items ...PrefetchItem) {
	p.mu.Lock()
	p.pending = p.pending[:0]
	for _, it := range items {
		if !p.synth.Cached(it.Text, it.Profile) {
			p.pending = append(p.pending, it)
		}
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Pending returns how many items are waiting.
func (p *Prefetcher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run works through the queue until ctx is done.
func (p *Prefetcher) Run(ctx context.Context) {
	for {
		it, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}

		if _, err := p.synth.Synthesize(ctx, it.Text, it.Profile); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug("prefetch failed", "text", truncateText(it.Text), "error", err)
		}
	}
}

func (p *Prefetcher) next() (PrefetchItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) > 0 {
		it := p.pending[0]
		p.pending = p.pending[1:]
		if p.synth.Cached(it.Text, it.Profile) {
			continue
		}
		return it, true
	}
	return PrefetchItem{}, false
}

func truncateText(s string) string {
	const n = 40
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "…"
	}
	return s
}
