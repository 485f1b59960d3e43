package voice

import (
	"context"
	"strings"
	"time"

	"github.com/dgnsrekt/cueline/internal/audio"
	"github.com/dgnsrekt/cueline/tone"
)

// minSilence keeps one-word lines from flashing past.
const minSilence = 400 * time.Millisecond

// PacedSilence is the last-resort synthesizer: it produces silence as long
// as the line would take to say, so turn-taking keeps its rhythm with no
// audio stack at all.
type PacedSilence struct {
	format         audio.Format
	wordsPerMinute int
}

var _ Synthesizer = (*PacedSilence)(nil)

// NewPacedSilence creates a silence synthesizer for format.
func NewPacedSilence(format audio.Format, wordsPerMinute int) *PacedSilence {
	if wordsPerMinute <= 0 {
		wordsPerMinute = 160
	}
	return &PacedSilence{format: format, wordsPerMinute: wordsPerMinute}
}

func (s *PacedSilence) Name() string    { return "silence" }
func (s *PacedSilence) Available() bool { return true }

// Synthesize returns silence sized to the line.
func (s *PacedSilence) Synthesize(ctx context.Context, text string, profile tone.VoiceProfile) ([]byte, error) {
	if err := checkText(text); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.format.Silence(s.Duration(text, profile)), nil
}

// Duration estimates how long text takes to say at profile's rate.
func (s *PacedSilence) Duration(text string, profile tone.VoiceProfile) time.Duration {
	words := len(strings.Fields(text))
	speed := profile.Speed()
	if speed <= 0 {
		speed = 1
	}
	perWord := time.Minute / time.Duration(s.wordsPerMinute)
	d := time.Duration(float64(time.Duration(words)*perWord) / speed)
	if d < minSilence {
		d = minSilence
	}
	return d
}
