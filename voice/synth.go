package voice

import (
	"context"
	"strings"

	"github.com/dgnsrekt/cueline/tone"
)

// Synthesizer turns text into 16-bit little-endian mono PCM.
type Synthesizer interface {
	Name() string
	Available() bool
	Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error)
}

// Player plays PCM. The returned channel is closed when playback ends for
// any reason.
type Player interface {
	Play(pcm []byte) (<-chan struct{}, error)
	Pause()
	Resume()
	Stop()
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) > maxTextSize {
		return ErrTextTooLong
	}
	return nil
}
