// Package rehearsal drives a solo rehearsal: it walks a script line by line,
// speaks partner lines through a VoiceOutput, waits for the user's own lines
// (optionally listening through a SpeechInput) and keeps one authoritative
// State that observers can read or subscribe to.
//
// Every transition, whether requested by the caller or triggered by a port
// callback, runs on a single serial queue. Callbacks that arrive after the
// engine has moved on are recognised by generation counters and status
// guards and dropped.
package rehearsal

import (
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/tone"
)

// Narrator is the identity used for dialogue lines that lack a speaker.
const Narrator = "NARRATOR"

// Engine is the rehearsal state machine.
type Engine struct {
	// Collaborators
	voice  VoiceOutput
	speech SpeechInput
	mapper *tone.Mapper
	now    func() time.Time

	// Everything below is owned by the queue.
	q             serialQueue
	script        *script.Script
	st            State
	users         map[string]bool
	listenEnabled bool
	closed        bool

	// utterance and listenGen identify the current port request; a callback
	// carrying an older value is stale.
	utterance uint64
	listenGen uint64

	// pendingCompletion records a voice completion that arrived while paused.
	pendingCompletion bool

	outbox []Event

	// Published snapshot, readable from any goroutine.
	mu         sync.RWMutex
	snapshot   State
	snapScript *script.Script

	pub *publisher
}

// Option configures an Engine.
type Option func(*Engine)

// WithSpeechInput sets the port used to listen for user lines. Listening is
// enabled when an input is given.
func WithSpeechInput(si SpeechInput) Option {
	return func(e *Engine) {
		e.speech = si
		e.listenEnabled = si != nil
	}
}

// WithMapper sets the tone mapper used to build voice profiles.
func WithMapper(m *tone.Mapper) Option {
	return func(e *Engine) {
		if m != nil {
			e.mapper = m
		}
	}
}

// WithUserCharacters sets the characters the user plays.
func WithUserCharacters(names ...string) Option {
	return func(e *Engine) {
		e.setUsers(names)
	}
}

// WithImprov turns improv mode on.
func WithImprov(on bool) Option {
	return func(e *Engine) {
		e.st.ImprovMode = on
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an idle engine positioned at line 0.
func New(s *script.Script, voice VoiceOutput, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, ErrNoScript
	}
	if voice == nil {
		return nil, ErrNoVoice
	}

	e := &Engine{
		voice:  voice,
		mapper: tone.NewMapper(),
		now:    time.Now,
		script: s,
		users:  make(map[string]bool),
		st:     State{Status: StatusIdle},
		pub:    newPublisher(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.snapshot = e.st.clone()
	e.snapScript = s
	return e, nil
}

// State returns a snapshot of the current rehearsal state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot.clone()
}

// Script returns the script being rehearsed.
func (e *Engine) Script() *script.Script {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapScript
}

// CurrentLine returns the line at the current index. It returns false when
// the index is past the end of the script.
func (e *Engine) CurrentLine() (script.Line, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapScript.Line(e.snapshot.CurrentLineIndex)
}

// IsUserLine reports whether l belongs to one of the user's characters.
func (e *Engine) IsUserLine(l script.Line) bool {
	return l.IsDialogue() && l.Speaker != "" && e.State().IsUserCharacter(script.NormalizeName(l.Speaker))
}

// Cue is a partner line and the profile it will be spoken with.
type Cue struct {
	Line    script.Line
	Profile tone.VoiceProfile
}

// UpcomingPartnerLines returns up to n partner lines after the current one,
// in script order.
func (e *Engine) UpcomingPartnerLines(n int) []Cue {
	e.mu.RLock()
	s, st := e.snapScript, e.snapshot
	e.mu.RUnlock()

	var cues []Cue
	for i := st.CurrentLineIndex + 1; i < s.LineCount() && len(cues) < n; i++ {
		l := s.Lines[i]
		if !l.IsDialogue() || (l.Speaker != "" && st.IsUserCharacter(script.NormalizeName(l.Speaker))) {
			continue
		}
		_, profile := e.profileFor(l)
		cues = append(cues, Cue{Line: l, Profile: profile})
	}
	return cues
}

// Subscribe registers an event channel under id. Slow subscribers miss
// events rather than stall the engine.
func (e *Engine) Subscribe(id string, bufSize int) <-chan Event {
	return e.pub.subscribe(id, bufSize)
}

// Unsubscribe removes the subscription and closes its channel.
func (e *Engine) Unsubscribe(id string) {
	e.pub.unsubscribe(id)
}

// OnStateChange registers a callback for every published state change. The
// callback runs on the engine's queue and must not call the engine's
// setters.
func (e *Engine) OnStateChange(fn func(State)) {
	e.pub.onStateChange(fn)
}

// Start begins a session at line from. It is a no-op unless the engine is
// idle or finished, or when from is out of range.
func (e *Engine) Start(from int) {
	e.do(func() { e.start(from) })
}

// Advance completes the user's current line. No-op unless waiting for the
// user.
func (e *Engine) Advance() {
	e.do(e.advance)
}

// Pause suspends the current line. No-op unless a line is active.
func (e *Engine) Pause() {
	e.do(e.pause)
}

// Resume continues a paused line. No-op unless paused.
func (e *Engine) Resume() {
	e.do(e.resume)
}

// TogglePause pauses an active line or resumes a paused one.
func (e *Engine) TogglePause() {
	e.do(func() {
		if e.st.Status == StatusPaused {
			e.resume()
		} else {
			e.pause()
		}
	})
}

// Stop ends the session and rewinds to line 0. Completed lines are kept for
// the summary until the next Start.
func (e *Engine) Stop() {
	e.do(e.stop)
}

// Jump moves to line index. Out-of-range indices are ignored. A running
// session continues from the new line; an idle one only moves its cursor.
func (e *Engine) Jump(index int) {
	e.do(func() { e.jump(index) })
}

// Back moves to the nearest dialogue line before the current one, or
// replays the current line if there is none.
func (e *Engine) Back() {
	e.do(e.back)
}

// NextScene jumps to the start of the next scene.
func (e *Engine) NextScene() {
	e.do(func() { e.sceneJump(1) })
}

// PrevScene jumps to the start of the current scene, or the previous one
// when already at a scene start.
func (e *Engine) PrevScene() {
	e.do(func() { e.sceneJump(-1) })
}

// SetUserCharacters replaces the user's characters. Only allowed while idle
// or finished.
func (e *Engine) SetUserCharacters(names ...string) error {
	return e.configure(func() { e.setUsers(names) })
}

// SetImprov turns improv mode on or off. Only allowed while idle or finished.
func (e *Engine) SetImprov(on bool) error {
	return e.configure(func() { e.st.ImprovMode = on })
}

// SetListening enables or disables the speech input. Only allowed while idle
// or finished.
func (e *Engine) SetListening(on bool) error {
	return e.configure(func() { e.listenEnabled = on && e.speech != nil })
}

// Reload swaps in a new revision of the script. Only allowed while idle or
// finished; the session's completed lines are cleared.
func (e *Engine) Reload(s *script.Script) error {
	if s == nil {
		return ErrNoScript
	}
	return e.configure(func() {
		e.script = s
		e.st.Status = StatusIdle
		e.st.CompletedLineIndices = nil
		e.st.Transcripts = nil
		e.st.FinishedAt = time.Time{}
		if e.st.CurrentLineIndex >= s.LineCount() {
			e.st.CurrentLineIndex = 0
		}
		log.Debug("script reloaded", "id", s.ID, "lines", s.LineCount())
	})
}

// Close stops the session and closes every subscription. The engine ignores
// all calls afterwards.
func (e *Engine) Close() {
	e.do(func() {
		e.stop()
		e.closed = true
	})
	e.pub.close()
}

// do runs fn on the queue and publishes whatever it changed.
func (e *Engine) do(fn func()) {
	e.q.Do(func() {
		if e.closed {
			return
		}
		fn()
		e.flush()
	})
}

// configure runs fn on the queue if the engine is at rest and waits for it.
func (e *Engine) configure(fn func()) error {
	result := make(chan error, 1)
	e.q.Do(func() {
		switch {
		case e.closed:
			result <- ErrClosed
		case !e.st.Status.IsAtRest():
			result <- ErrNotAtRest
		default:
			fn()
			e.flush()
			result <- nil
		}
	})
	return <-result
}

func (e *Engine) setUsers(names []string) {
	e.users = make(map[string]bool, len(names))
	users := make([]string, 0, len(names))
	for _, n := range names {
		n = script.NormalizeName(n)
		if n == "" || e.users[n] {
			continue
		}
		e.users[n] = true
		users = append(users, n)
	}
	slices.Sort(users)
	e.st.UserCharacters = users
}

// Transitions. Everything below runs on the queue.

func (e *Engine) start(from int) {
	if !e.st.Status.IsAtRest() {
		log.Debug("start ignored", "status", e.st.Status)
		return
	}
	if from < 0 || (from > 0 && from >= e.script.LineCount()) {
		log.Debug("start ignored: index out of range", "from", from)
		return
	}

	e.invalidate()
	e.st.CompletedLineIndices = nil
	e.st.Transcripts = nil
	e.st.FinishedAt = time.Time{}
	e.st.SessionStartedAt = e.now()
	e.st.CurrentLineIndex = from
	log.Debug("session started", "from", from, "users", e.st.UserCharacters)

	e.evaluate()
}

// evaluate settles the engine on the line at the current index, skipping
// lines nobody speaks.
func (e *Engine) evaluate() {
	for {
		i := e.st.CurrentLineIndex
		l, ok := e.script.Line(i)
		if !ok {
			e.finish()
			return
		}
		if !l.IsDialogue() {
			e.st.CurrentLineIndex++
			continue
		}
		if l.Speaker != "" && e.users[script.NormalizeName(l.Speaker)] {
			e.enterWaiting(l)
		} else {
			e.enterPartner(l)
		}
		return
	}
}

func (e *Engine) enterPartner(l script.Line) {
	e.setStatus(StatusPlayingPartner)

	speaker, profile := e.profileFor(l)

	e.utterance++
	gen, index := e.utterance, l.Index
	e.emit(Event{Kind: EventPartnerLine, Line: &l})
	log.Debug("speaking partner line", "index", index, "speaker", speaker, "profile", profile)

	e.voice.Speak(l.Text, profile, func() {
		e.do(func() { e.onVoiceComplete(gen, index) })
	})
}

func (e *Engine) profileFor(l script.Line) (string, tone.VoiceProfile) {
	speaker := l.Speaker
	if speaker == "" {
		speaker = Narrator
	}
	return speaker, e.mapper.ProfileFor(l.Tones, speaker)
}

func (e *Engine) enterWaiting(l script.Line) {
	e.setStatus(StatusWaitingForUser)
	e.emit(Event{Kind: EventUserLine, Line: &l})
	e.startListening(l)
}

func (e *Engine) startListening(l script.Line) {
	if e.speech == nil || !e.listenEnabled {
		return
	}
	index := l.Index
	if !e.speech.IsPermissionGranted() {
		e.fail(newError(ErrListenUnavailable, "listen", "start listening", index))
		return
	}

	e.listenGen++
	gen := e.listenGen
	if ll, ok := e.speech.(LineListener); ok {
		ll.ExpectLine(l)
	}
	err := e.speech.StartListening(func(transcript string) {
		e.do(func() { e.onSpeechResult(gen, index, transcript) })
	})
	if err != nil {
		// Fall back to manual advance.
		e.fail(newError(err, "listen", "start listening", index))
		return
	}
	e.st.Listening = true
}

func (e *Engine) stopListening() {
	e.listenGen++
	if e.st.Listening {
		e.speech.StopListening()
		e.st.Listening = false
	}
}

func (e *Engine) onVoiceComplete(gen uint64, index int) {
	if gen != e.utterance {
		log.Debug("stale voice completion dropped", "index", index)
		return
	}

	switch {
	case e.st.Status == StatusPlayingPartner && e.st.CurrentLineIndex == index:
		e.completeAndAdvance(index)
	case e.st.Status == StatusPaused && e.st.PausedFrom == StatusPlayingPartner && e.st.CurrentLineIndex == index:
		e.pendingCompletion = true
	default:
		log.Debug("voice completion ignored", "index", index, "status", e.st.Status)
	}
}

func (e *Engine) onSpeechResult(gen uint64, index int, transcript string) {
	if gen != e.listenGen || e.st.Status != StatusWaitingForUser || e.st.CurrentLineIndex != index {
		log.Debug("stale speech result dropped", "index", index)
		return
	}

	// An empty transcript means the listener timed out; the line still
	// counts as delivered.
	e.st.Listening = false
	if e.st.ImprovMode {
		if e.st.Transcripts == nil {
			e.st.Transcripts = make(map[int]string)
		}
		e.st.Transcripts[index] = transcript
		l, _ := e.script.Line(index)
		e.emit(Event{Kind: EventTranscript, Line: &l, Transcript: transcript})
	}
	e.completeAndAdvance(index)
}

func (e *Engine) advance() {
	if e.st.Status != StatusWaitingForUser {
		return
	}
	e.stopListening()
	e.completeAndAdvance(e.st.CurrentLineIndex)
}

func (e *Engine) completeAndAdvance(index int) {
	if l, ok := e.script.Line(index); ok && l.IsDialogue() {
		if i, found := slices.BinarySearch(e.st.CompletedLineIndices, index); !found {
			e.st.CompletedLineIndices = slices.Insert(e.st.CompletedLineIndices, i, index)
		}
		e.emit(Event{Kind: EventLineCompleted, Line: &l})
	}
	e.st.CurrentLineIndex = index + 1
	e.evaluate()
}

func (e *Engine) pause() {
	if !e.st.Status.IsActive() {
		return
	}

	from := e.st.Status
	switch from {
	case StatusPlayingPartner:
		e.voice.Pause()
	case StatusWaitingForUser:
		e.stopListening()
	}
	e.st.PausedFrom = from
	e.setStatus(StatusPaused)
}

func (e *Engine) resume() {
	if e.st.Status != StatusPaused {
		return
	}

	from := e.st.PausedFrom
	e.st.PausedFrom = StatusIdle

	switch from {
	case StatusPlayingPartner:
		e.setStatus(StatusPlayingPartner)
		if e.pendingCompletion {
			e.pendingCompletion = false
			e.completeAndAdvance(e.st.CurrentLineIndex)
			return
		}
		e.voice.Resume()
	case StatusWaitingForUser:
		e.setStatus(StatusWaitingForUser)
		if l, ok := e.script.Line(e.st.CurrentLineIndex); ok {
			e.startListening(l)
		}
	default:
		// Nothing to resume into; re-evaluate from the current line.
		e.setStatus(StatusIdle)
		e.evaluate()
	}
}

func (e *Engine) stop() {
	if e.st.Status == StatusIdle {
		return
	}
	e.halt()
	e.st.CurrentLineIndex = 0
	e.setStatus(StatusIdle)
}

func (e *Engine) jump(index int) {
	if index < 0 || index >= e.script.LineCount() {
		log.Debug("jump ignored: index out of range", "index", index)
		return
	}

	if e.st.Status.IsAtRest() {
		e.st.CurrentLineIndex = index
		e.setStatus(StatusIdle)
		return
	}

	e.halt()
	e.st.CurrentLineIndex = index
	e.setStatus(StatusIdle)
	e.evaluate()
}

func (e *Engine) back() {
	cur := e.st.CurrentLineIndex
	target := -1
	for i := min(cur, e.script.LineCount()) - 1; i >= 0; i-- {
		if e.script.Lines[i].IsDialogue() {
			target = i
			break
		}
	}
	if target < 0 {
		target = cur
	}
	e.jump(target)
}

func (e *Engine) sceneJump(dir int) {
	n := e.script.LineCount()
	if n == 0 {
		return
	}
	from := min(e.st.CurrentLineIndex, n-1)
	if dir < 0 && e.st.CurrentLineIndex >= n {
		// Past the end: "previous" means the start of the last scene.
		dir = 0
	}
	if target, ok := e.script.SceneStart(from, dir); ok {
		e.jump(target)
	}
}

func (e *Engine) finish() {
	e.st.CurrentLineIndex = e.script.LineCount()
	e.st.FinishedAt = e.now()
	e.setStatus(StatusFinished)
	e.emit(Event{Kind: EventFinished})
	log.Debug("session finished", "completed", len(e.st.CompletedLineIndices))
}

// halt tells both ports to stop without waiting and invalidates any callback
// they may still deliver.
func (e *Engine) halt() {
	if e.st.Status == StatusPlayingPartner || (e.st.Status == StatusPaused && e.st.PausedFrom == StatusPlayingPartner) {
		e.voice.Stop()
	}
	e.stopListening()
	e.invalidate()
	e.st.PausedFrom = StatusIdle
}

func (e *Engine) invalidate() {
	e.utterance++
	e.listenGen++
	e.pendingCompletion = false
}

func (e *Engine) setStatus(to Status) {
	from := e.st.Status
	if !canTransition(from, to) {
		log.Debug("unexpected transition", "from", from, "to", to, "index", e.st.CurrentLineIndex)
	}
	if from != to {
		log.Debug("transition", "from", from, "to", to, "index", e.st.CurrentLineIndex)
	}
	e.st.Status = to
}

func (e *Engine) fail(err *Error) {
	log.Warn("rehearsal error", "component", err.Component, "action", err.Action, "line", err.LineIndex, "error", err.Err)
	e.emit(Event{Kind: EventError, Err: err})
}

func (e *Engine) emit(ev Event) {
	e.outbox = append(e.outbox, ev)
}

// flush publishes the state produced by the last queued operation along with
// the events it queued.
func (e *Engine) flush() {
	changed := !reflect.DeepEqual(e.st, e.snapshot) || e.script != e.snapScript
	if !changed && len(e.outbox) == 0 {
		return
	}

	snap := e.st.clone()
	e.mu.Lock()
	e.snapshot = snap
	e.snapScript = e.script
	e.mu.Unlock()

	events := e.outbox
	e.outbox = nil
	for _, ev := range events {
		ev.State = snap.clone()
		e.pub.emit(ev)
	}
	if changed {
		e.pub.emit(Event{Kind: EventStateChanged, State: snap.clone()})
	}
}
