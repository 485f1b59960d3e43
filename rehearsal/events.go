package rehearsal

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/script"
)

// EventKind identifies what happened.
type EventKind string

const (
	EventStateChanged  EventKind = "state.changed"
	EventPartnerLine   EventKind = "line.partner"
	EventUserLine      EventKind = "line.user"
	EventLineCompleted EventKind = "line.completed"
	EventTranscript    EventKind = "speech.transcript"
	EventFinished      EventKind = "session.finished"
	EventError         EventKind = "error"
)

// Event is published after each transition, carrying the state it produced.
type Event struct {
	Kind       EventKind
	State      State
	Line       *script.Line // The line concerned, if any
	Transcript string       // EventTranscript only
	Err        error        // EventError only
}

// publisher fans events out to in-process subscribers without ever blocking
// the engine. A subscriber that falls behind loses events, not the engine.
type publisher struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	callbacks   []func(State)
}

func newPublisher() *publisher {
	return &publisher{subscribers: make(map[string]chan Event)}
}

func (p *publisher) emit(ev Event) {
	p.mu.RLock()
	for id, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
			log.Warn("event dropped: subscriber buffer full", "subscriber", id, "event", ev.Kind)
		}
	}
	var callbacks []func(State)
	if ev.Kind == EventStateChanged {
		callbacks = p.callbacks
	}
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn(ev.State.clone())
	}
}

func (p *publisher) subscribe(id string, bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 64
	}
	ch := make(chan Event, bufSize)
	p.mu.Lock()
	if old, ok := p.subscribers[id]; ok {
		close(old)
	}
	p.subscribers[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *publisher) unsubscribe(id string) {
	p.mu.Lock()
	if ch, ok := p.subscribers[id]; ok {
		close(ch)
		delete(p.subscribers, id)
	}
	p.mu.Unlock()
}

func (p *publisher) onStateChange(fn func(State)) {
	p.mu.Lock()
	p.callbacks = append(p.callbacks, fn)
	p.mu.Unlock()
}

func (p *publisher) close() {
	p.mu.Lock()
	for id, ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, id)
	}
	p.mu.Unlock()
}
