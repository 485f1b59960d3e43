package rehearsal

import "sync"

// serialQueue runs functions one at a time in submission order. The first
// caller to find the queue idle drains it on its own goroutine; everyone else
// just enqueues and returns. A port callback that fires synchronously inside
// a transition is therefore deferred until that transition is complete.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// Do schedules fn. It returns once fn has run if the queue was idle, or
// immediately if another goroutine is already draining.
func (q *serialQueue) Do(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		next()
	}
}
