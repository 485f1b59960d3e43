package listen

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// ErrInputClosed is returned once the typed input has ended.
var ErrInputClosed = errors.New("typed input closed")

// Typed is a recognizer fed by lines of text, for rehearsing at a keyboard.
// Each line is the final transcript for one session; a line typed between
// sessions is held for the next one.
type Typed struct {
	r     io.Reader
	once  sync.Once
	lines chan string
	eof   atomic.Bool

	mu   sync.Mutex
	held []string // lines taken by a session that was cancelled meanwhile
}

// NewTyped reads lines from r.
func NewTyped(r io.Reader) *Typed {
	return &Typed{r: r, lines: make(chan string)}
}

func (t *Typed) Available() bool { return true }

func (t *Typed) start() {
	go func() {
		defer func() {
			t.eof.Store(true)
			close(t.lines)
		}()

		scanner := bufio.NewScanner(t.r)
		for scanner.Scan() {
			t.lines <- strings.TrimSpace(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			log.Warn("Reading typed input failed", "error", err)
		}
	}()
}

// Recognize waits for the next typed line. It fails once the input has
// ended and nothing is held back.
func (t *Typed) Recognize(ctx context.Context) (<-chan Partial, error) {
	t.once.Do(t.start)

	ch := make(chan Partial, 1)
	if ctx.Err() != nil {
		close(ch)
		return ch, nil
	}
	if line, ok := t.takeHeld(); ok {
		ch <- Partial{Text: line, Final: true}
		close(ch)
		return ch, nil
	}
	if t.eof.Load() {
		return nil, ErrInputClosed
	}

	go func() {
		defer close(ch)

		select {
		case line, ok := <-t.lines:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				t.hold(line)
				return
			}
			ch <- Partial{Text: line, Final: true}
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (t *Typed) hold(line string) {
	t.mu.Lock()
	t.held = append(t.held, line)
	t.mu.Unlock()
}

func (t *Typed) takeHeld() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.held) == 0 {
		return "", false
	}
	line := t.held[0]
	t.held = t.held[1:]
	return line, true
}
