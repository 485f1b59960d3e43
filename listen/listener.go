package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
)

// ErrStartFailed is returned when the recognizer cannot start a session.
var ErrStartFailed = errors.New("speech recognition failed to start")

// Partial is a transcript so far. Final marks the recognizer's last word on
// the utterance.
type Partial struct {
	Text  string
	Final bool
}

// Recognizer streams growing transcripts until ctx is cancelled or it has
// nothing more to say, at which point the channel is closed.
type Recognizer interface {
	Available() bool
	Recognize(ctx context.Context) (<-chan Partial, error)
}

// Prompted is a Recognizer that is told the scripted text of the line
// before each session.
type Prompted interface {
	Prompt(text string)
}

// Options are the listening policies.
type Options struct {
	// MaxDuration caps a whole listening session.
	MaxDuration time.Duration
	// SilenceAfterSpeech ends the session once the user has said something
	// and then nothing new arrives for this long.
	SilenceAfterSpeech time.Duration
}

// DefaultOptions returns the default listening policies.
func DefaultOptions() Options {
	return Options{
		MaxDuration:        8 * time.Second,
		SilenceAfterSpeech: 1500 * time.Millisecond,
	}
}

// Listener delivers one transcript per StartListening, at most once.
type Listener struct {
	rec  Recognizer
	opts Options

	mu      sync.Mutex
	current *session
}

type session struct {
	cancel   context.CancelFunc
	onResult func(string)
}

var (
	_ rehearsal.SpeechInput  = (*Listener)(nil)
	_ rehearsal.LineListener = (*Listener)(nil)
)

// NewListener creates a listener over rec.
func NewListener(rec Recognizer, opts Options) *Listener {
	def := DefaultOptions()
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = def.MaxDuration
	}
	if opts.SilenceAfterSpeech <= 0 {
		opts.SilenceAfterSpeech = def.SilenceAfterSpeech
	}
	return &Listener{rec: rec, opts: opts}
}

// ExpectLine passes the line's text to a prompted recognizer.
func (l *Listener) ExpectLine(line script.Line) {
	if p, ok := l.rec.(Prompted); ok {
		p.Prompt(line.Text)
	}
}

// StartListening starts a session, abandoning any session in progress
// without delivering its result.
func (l *Listener) StartListening(onResult func(transcript string)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	partials, err := l.rec.Recognize(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	s := &session{cancel: cancel, onResult: onResult}
	l.current = s
	go l.run(ctx, s, partials)
	return nil
}

func (l *Listener) run(ctx context.Context, s *session, partials <-chan Partial) {
	maxTimer := time.NewTimer(l.opts.MaxDuration)
	defer maxTimer.Stop()

	var silence *time.Timer
	var silenceC <-chan time.Time
	defer func() {
		if silence != nil {
			silence.Stop()
		}
	}()

	best := ""
	for {
		select {
		case <-ctx.Done():
			return

		case p, ok := <-partials:
			if !ok {
				l.deliver(s, best)
				return
			}
			if p.Text != "" && p.Text != best {
				best = p.Text
				if silence == nil {
					silence = time.NewTimer(l.opts.SilenceAfterSpeech)
				} else {
					silence.Reset(l.opts.SilenceAfterSpeech)
				}
				silenceC = silence.C
			}
			if p.Final {
				l.deliver(s, best)
				return
			}

		case <-silenceC:
			log.Debug("Listening ended on silence", "transcript", best)
			l.deliver(s, best)
			return

		case <-maxTimer.C:
			log.Debug("Listening ended on max duration", "transcript", best)
			l.deliver(s, best)
			return
		}
	}
}

func (l *Listener) deliver(s *session, transcript string) {
	l.mu.Lock()
	if l.current != s {
		l.mu.Unlock()
		return
	}
	l.current = nil
	l.mu.Unlock()

	s.cancel()
	if s.onResult != nil {
		s.onResult(transcript)
	}
}

// StopListening ends the session without delivering a result. Calling it
// with nothing in progress is a no-op.
func (l *Listener) StopListening() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Listener) stopLocked() {
	if l.current != nil {
		l.current.cancel()
		l.current = nil
	}
}

// IsPermissionGranted reports whether the recognizer can run.
func (l *Listener) IsPermissionGranted() bool {
	return l.rec.Available()
}

// IsListening reports whether a session is in progress.
func (l *Listener) IsListening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current != nil
}
