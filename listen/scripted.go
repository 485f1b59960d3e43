package listen

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Scripted is a recognizer that "hears" canned text one word at a time,
// then goes quiet so the silence policy ends the session. An empty
// transcript produces nothing at all.
type Scripted struct {
	next      func() string
	wordDelay time.Duration

	mu     sync.Mutex
	prompt string
}

var _ Prompted = (*Scripted)(nil)

// NewScripted returns a recognizer that hears transcripts in order, then
// silence once they run out.
func NewScripted(wordDelay time.Duration, transcripts ...string) *Scripted {
	queue := make(chan string, len(transcripts))
	for _, t := range transcripts {
		queue <- t
	}
	close(queue)

	return &Scripted{wordDelay: wordDelay, next: func() string {
		return <-queue
	}}
}

// NewEcho returns a recognizer that hears each line exactly as written, as
// given by the latest Prompt.
func NewEcho(wordDelay time.Duration) *Scripted {
	s := &Scripted{wordDelay: wordDelay}
	s.next = func() string {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.prompt
	}
	return s
}

// Prompt records the line the next session is for.
func (s *Scripted) Prompt(text string) {
	s.mu.Lock()
	s.prompt = text
	s.mu.Unlock()
}

func (s *Scripted) Available() bool { return true }

// Recognize streams the next transcript.
func (s *Scripted) Recognize(ctx context.Context) (<-chan Partial, error) {
	words := strings.Fields(s.next())
	ch := make(chan Partial)

	go func() {
		defer close(ch)

		for i := range words {
			select {
			case <-time.After(s.wordDelay):
			case <-ctx.Done():
				return
			}
			select {
			case ch <- Partial{Text: strings.Join(words[:i+1], " ")}:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()

	return ch, nil
}
