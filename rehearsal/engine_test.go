package rehearsal

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/tone"
)

// mockVoice is a VoiceOutput that completes only when told to.
type mockVoice struct {
	mu       sync.Mutex
	spoken   []string
	profiles []tone.VoiceProfile
	pending  func()
	stops    int
	pauses   int
	resumes  int

	// immediate completes every utterance inside Speak.
	immediate bool
}

func (m *mockVoice) Speak(text string, profile tone.VoiceProfile, onComplete func()) {
	m.mu.Lock()
	prev := m.pending
	m.pending = onComplete
	m.spoken = append(m.spoken, text)
	m.profiles = append(m.profiles, profile)
	immediate := m.immediate
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
	if immediate {
		m.finish()
	}
}

func (m *mockVoice) Stop() {
	m.mu.Lock()
	m.stops++
	cb := m.pending
	m.pending = nil
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (m *mockVoice) Pause() {
	m.mu.Lock()
	m.pauses++
	m.mu.Unlock()
}

func (m *mockVoice) Resume() {
	m.mu.Lock()
	m.resumes++
	m.mu.Unlock()
}

func (m *mockVoice) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// finish completes the current utterance.
func (m *mockVoice) finish() {
	m.mu.Lock()
	cb := m.pending
	m.pending = nil
	m.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (m *mockVoice) spokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spoken)
}

// mockSpeech is a SpeechInput whose results are delivered by the test.
type mockSpeech struct {
	mu       sync.Mutex
	denied   bool
	startErr error
	starts   int
	stops    int
	onResult func(string)
}

func (m *mockSpeech) StartListening(onResult func(string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	if m.startErr != nil {
		return m.startErr
	}
	m.onResult = onResult
	return nil
}

func (m *mockSpeech) StopListening() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.onResult = nil
}

func (m *mockSpeech) IsPermissionGranted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.denied
}

// deliver reports a transcript, keeping a copy of the callback so stale
// deliveries can be simulated.
func (m *mockSpeech) deliver(transcript string) func(string) {
	m.mu.Lock()
	cb := m.onResult
	m.onResult = nil
	m.mu.Unlock()
	if cb != nil {
		cb(transcript)
	}
	return cb
}

func mustParse(t *testing.T, raw string) *script.Script {
	t.Helper()
	s, err := script.Parse("test", raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return s
}

func newTestEngine(t *testing.T, raw string, opts ...Option) (*Engine, *mockVoice) {
	t.Helper()
	voice := &mockVoice{}
	e, err := New(mustParse(t, raw), voice, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, voice
}

func expectState(t *testing.T, e *Engine, status Status, index int) {
	t.Helper()
	st := e.State()
	if st.Status != status || st.CurrentLineIndex != index {
		t.Fatalf("Expected %s at %d, got %s at %d", status, index, st.Status, st.CurrentLineIndex)
	}
}

const sceneScript = "SCENE 1\nALEX: Hi\nJAMIE: Hello"

func TestNew(t *testing.T) {
	if _, err := New(nil, &mockVoice{}); !errors.Is(err, ErrNoScript) {
		t.Errorf("Expected ErrNoScript, got %v", err)
	}
	if _, err := New(mustParse(t, sceneScript), nil); !errors.Is(err, ErrNoVoice) {
		t.Errorf("Expected ErrNoVoice, got %v", err)
	}

	e, _ := newTestEngine(t, sceneScript)
	expectState(t, e, StatusIdle, 0)
}

func TestScenarioUserThenPartner(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("alex"))

	e.Start(0)
	expectState(t, e, StatusWaitingForUser, 1)

	e.Advance()
	expectState(t, e, StatusPlayingPartner, 2)
	if voice.spoken[0] != "Hello" {
		t.Errorf("Expected partner line spoken, got %v", voice.spoken)
	}

	voice.finish()
	expectState(t, e, StatusFinished, 3)

	st := e.State()
	if !reflect.DeepEqual(st.CompletedLineIndices, []int{1, 2}) {
		t.Errorf("Expected completed [1 2], got %v", st.CompletedLineIndices)
	}
	if st.FinishedAt.IsZero() || st.SessionStartedAt.IsZero() {
		t.Error("Expected session timestamps to be set")
	}
}

func TestScenarioPartnerFirst(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("JAMIE"))

	e.Start(0)
	expectState(t, e, StatusPlayingPartner, 1)
	if voice.spokenCount() != 1 || voice.spoken[0] != "Hi" {
		t.Errorf("Expected ALEX's line spoken, got %v", voice.spoken)
	}

	voice.finish()
	expectState(t, e, StatusWaitingForUser, 2)
}

func TestScenarioPauseResume(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("JAMIE"))

	e.Start(0)
	e.Pause()
	expectState(t, e, StatusPaused, 1)
	if voice.pauses != 1 {
		t.Errorf("Expected voice paused once, got %d", voice.pauses)
	}

	e.Resume()
	expectState(t, e, StatusPlayingPartner, 1)
	if voice.resumes != 1 {
		t.Errorf("Expected voice resumed once, got %d", voice.resumes)
	}
	if voice.spokenCount() != 1 {
		t.Errorf("Resume must not re-speak the line, spoken %v", voice.spoken)
	}
}

func TestScenarioJumpOutOfRange(t *testing.T) {
	e, _ := newTestEngine(t, sceneScript, WithUserCharacters("ALEX"))
	e.Start(0)

	before := e.State()
	e.Jump(5)
	e.Jump(-1)
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("Jump out of range changed state:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestScenarioEmptyTranscriptAdvances(t *testing.T) {
	speech := &mockSpeech{}
	e, _ := newTestEngine(t, sceneScript, WithUserCharacters("ALEX"), WithSpeechInput(speech))

	e.Start(0)
	expectState(t, e, StatusWaitingForUser, 1)
	if !e.State().Listening || speech.starts != 1 {
		t.Fatal("Expected the engine to be listening")
	}

	speech.deliver("")
	expectState(t, e, StatusPlayingPartner, 2)
	if e.State().Listening {
		t.Error("Expected listening to end after a result")
	}
	if !e.State().IsCompleted(1) {
		t.Error("Expected the user line to be completed")
	}
}

func TestIdempotentGuards(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("JAMIE"))

	// Nothing to pause or resume while idle.
	before := e.State()
	e.Advance()
	e.Pause()
	e.Resume()
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("Idle guards changed state: %+v", after)
	}

	e.Start(0)
	before = e.State()
	e.Advance() // playing, not waiting
	e.Resume()  // not paused
	e.Start(0)  // already running
	if after := e.State(); !reflect.DeepEqual(before, after) {
		t.Errorf("Active guards changed state:\nbefore %+v\nafter  %+v", before, after)
	}
	if voice.spokenCount() != 1 {
		t.Errorf("Expected a single utterance, got %v", voice.spoken)
	}
}

func TestStaleVoiceCompletionIgnored(t *testing.T) {
	raw := "A: one\nB: two\nA: three\nB: four"
	e, voice := newTestEngine(t, raw, WithUserCharacters("B"))

	e.Start(0)
	expectState(t, e, StatusPlayingPartner, 0)

	// Grab the callback for line 0, then jump away; the mock's Stop fires
	// it, and it must not advance the new line.
	voice.mu.Lock()
	stale := voice.pending
	voice.mu.Unlock()

	e.Jump(2)
	expectState(t, e, StatusPlayingPartner, 2)
	if voice.stops != 1 {
		t.Errorf("Expected voice stopped once, got %d", voice.stops)
	}

	// A second late delivery is also dropped.
	stale()
	expectState(t, e, StatusPlayingPartner, 2)
	if e.State().IsCompleted(0) {
		t.Error("Line 0 must not be completed by a stale callback")
	}

	voice.finish()
	expectState(t, e, StatusWaitingForUser, 3)
}

func TestStaleSpeechResultIgnored(t *testing.T) {
	speech := &mockSpeech{}
	e, _ := newTestEngine(t, "A: one\nB: two", WithUserCharacters("A"), WithSpeechInput(speech))

	e.Start(0)
	speech.mu.Lock()
	cb := speech.onResult
	speech.mu.Unlock()

	e.Pause()
	if speech.stops != 1 {
		t.Errorf("Expected listening stopped on pause, got %d", speech.stops)
	}
	cb("too late")
	expectState(t, e, StatusPaused, 0)

	e.Resume()
	expectState(t, e, StatusWaitingForUser, 0)
	if speech.starts != 2 {
		t.Errorf("Expected listening restarted on resume, got %d starts", speech.starts)
	}

	cb("still too late")
	expectState(t, e, StatusWaitingForUser, 0)

	speech.deliver("one")
	expectState(t, e, StatusPlayingPartner, 1)
}

func TestCompletionWhilePausedAdvancesOnResume(t *testing.T) {
	e, voice := newTestEngine(t, "A: one\nB: two", WithUserCharacters("B"))

	e.Start(0)
	e.Pause()
	voice.finish()
	expectState(t, e, StatusPaused, 0)

	e.Resume()
	expectState(t, e, StatusWaitingForUser, 1)
	if voice.resumes != 0 {
		t.Errorf("A finished line must not be resumed, got %d", voice.resumes)
	}
	if !e.State().IsCompleted(0) {
		t.Error("Expected line 0 completed")
	}
}

func TestRestartLaw(t *testing.T) {
	e, voice := newTestEngine(t, "ALEX: a\nSAM: b", WithUserCharacters("ALEX"))

	e.Start(0)
	e.Advance()
	voice.finish()
	expectState(t, e, StatusFinished, 2)

	e.Start(0)
	st := e.State()
	if st.CurrentLineIndex != 0 || len(st.CompletedLineIndices) != 0 {
		t.Errorf("Expected reset session, got index %d completed %v", st.CurrentLineIndex, st.CompletedLineIndices)
	}
	if !st.FinishedAt.IsZero() {
		t.Error("Expected FinishedAt cleared on restart")
	}
}

func TestStartFromIndex(t *testing.T) {
	e, _ := newTestEngine(t, "A: one\nB: two\nA: three", WithUserCharacters("A"))

	e.Start(3)
	expectState(t, e, StatusIdle, 0)

	e.Start(2)
	expectState(t, e, StatusWaitingForUser, 2)
}

func TestVisitOrderAndCompletedSet(t *testing.T) {
	raw := `SCENE 1
ALEX: one
(beat)
SAM: two
SAM: three
SCENE 2
ALEX: four
SAM (angry): five`

	tests := []struct {
		name  string
		users []string
	}{
		{"user plays alex", []string{"ALEX"}},
		{"user plays sam", []string{"SAM"}},
		{"user plays everyone", []string{"ALEX", "SAM"}},
		{"user plays nobody", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, voice := newTestEngine(t, raw, WithUserCharacters(tt.users...))
			e.Start(0)

			var visited []int
			for steps := 0; steps < 100; steps++ {
				st := e.State()
				if st.Status == StatusFinished {
					break
				}
				visited = append(visited, st.CurrentLineIndex)
				switch st.Status {
				case StatusWaitingForUser:
					e.Advance()
				case StatusPlayingPartner:
					voice.finish()
				default:
					t.Fatalf("Unexpected status %s", st.Status)
				}
			}

			want := e.Script().DialogueIndices()
			if !reflect.DeepEqual(visited, want) {
				t.Errorf("Expected visit order %v, got %v", want, visited)
			}
			if got := e.State().CompletedLineIndices; !reflect.DeepEqual(got, want) {
				t.Errorf("Expected completed %v, got %v", want, got)
			}
		})
	}
}

func TestSynchronousCompletion(t *testing.T) {
	voice := &mockVoice{immediate: true}
	e, err := New(mustParse(t, "A: one\nB: two\nA: three\nC: four"), voice, WithUserCharacters("C"))
	if err != nil {
		t.Fatal(err)
	}

	e.Start(0)
	expectState(t, e, StatusWaitingForUser, 3)
	if voice.spokenCount() != 3 {
		t.Errorf("Expected 3 partner lines spoken, got %v", voice.spoken)
	}

	e.Advance()
	expectState(t, e, StatusFinished, 4)
}

func TestStop(t *testing.T) {
	speech := &mockSpeech{}
	e, voice := newTestEngine(t, "A: one\nB: two\nA: three", WithUserCharacters("B"), WithSpeechInput(speech))

	e.Start(0)
	voice.finish()
	expectState(t, e, StatusWaitingForUser, 1)

	e.Stop()
	expectState(t, e, StatusIdle, 0)
	st := e.State()
	if st.Listening || speech.stops != 1 {
		t.Errorf("Expected listening stopped, listening=%v stops=%d", st.Listening, speech.stops)
	}
	if !reflect.DeepEqual(st.CompletedLineIndices, []int{0}) {
		t.Errorf("Stop keeps completed lines for the summary, got %v", st.CompletedLineIndices)
	}

	// Stop while idle is a no-op.
	before := e.State()
	e.Stop()
	if !reflect.DeepEqual(before, e.State()) {
		t.Error("Stop while idle changed state")
	}
}

func TestBack(t *testing.T) {
	raw := "SCENE 1\nA: one\n(beat)\nB: two\nA: three"
	e, voice := newTestEngine(t, raw, WithUserCharacters("A"))

	e.Start(0)
	e.Advance()
	voice.finish()
	expectState(t, e, StatusWaitingForUser, 4)

	e.Back()
	expectState(t, e, StatusPlayingPartner, 3)

	voice.finish()
	e.Jump(1)
	expectState(t, e, StatusWaitingForUser, 1)

	// Nothing before line 1: the current line is replayed.
	e.Back()
	expectState(t, e, StatusWaitingForUser, 1)
}

func TestJumpWhileIdleMovesCursorOnly(t *testing.T) {
	e, voice := newTestEngine(t, "A: one\nB: two", WithUserCharacters("B"))

	e.Jump(1)
	expectState(t, e, StatusIdle, 1)
	if voice.spokenCount() != 0 {
		t.Error("Jump while idle must not speak")
	}
	if line, ok := e.CurrentLine(); !ok || line.Text != "two" {
		t.Errorf("Unexpected current line %+v", line)
	}
}

func TestSceneJumps(t *testing.T) {
	raw := "SCENE 1\nA: one\nA: two\nSCENE 2\nA: three\nA: four"
	e, _ := newTestEngine(t, raw, WithUserCharacters("A"))

	e.Start(0)
	expectState(t, e, StatusWaitingForUser, 1)

	e.NextScene()
	expectState(t, e, StatusWaitingForUser, 4)

	e.Advance()
	expectState(t, e, StatusWaitingForUser, 5)

	// Back to the start of the current scene, then the previous one.
	e.PrevScene()
	expectState(t, e, StatusWaitingForUser, 4)
	e.PrevScene()
	expectState(t, e, StatusWaitingForUser, 1)
}

func TestListenFailuresFallBackToManual(t *testing.T) {
	tests := []struct {
		name   string
		speech *mockSpeech
	}{
		{"start error", &mockSpeech{startErr: errors.New("no microphone")}},
		{"permission denied", &mockSpeech{denied: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, sceneScript, WithUserCharacters("ALEX"), WithSpeechInput(tt.speech))
			events := e.Subscribe("test", 16)

			e.Start(0)
			expectState(t, e, StatusWaitingForUser, 1)
			if e.State().Listening {
				t.Error("Expected not listening after failure")
			}

			var gotErr error
			for len(events) > 0 {
				ev := <-events
				if ev.Kind == EventError {
					gotErr = ev.Err
				}
			}
			var re *Error
			if !errors.As(gotErr, &re) || re.Component != "listen" || re.LineIndex != 1 {
				t.Errorf("Expected a listen error event, got %v", gotErr)
			}

			e.Advance()
			expectState(t, e, StatusPlayingPartner, 2)
		})
	}
}

func TestSettersOnlyAtRest(t *testing.T) {
	speech := &mockSpeech{}
	e, _ := newTestEngine(t, sceneScript, WithSpeechInput(speech))

	if err := e.SetUserCharacters("alex", "ALEX (V.O.)", "jamie"); err != nil {
		t.Fatalf("SetUserCharacters failed: %v", err)
	}
	if got := e.State().UserCharacters; !reflect.DeepEqual(got, []string{"ALEX", "JAMIE"}) {
		t.Errorf("Expected normalized sorted users, got %v", got)
	}
	if err := e.SetListening(false); err != nil {
		t.Fatalf("SetListening failed: %v", err)
	}

	e.Start(0)
	if speech.starts != 0 {
		t.Error("Listening was disabled")
	}

	for name, err := range map[string]error{
		"users":  e.SetUserCharacters("JAMIE"),
		"improv": e.SetImprov(true),
		"listen": e.SetListening(true),
		"reload": e.Reload(mustParse(t, "A: x")),
	} {
		if !errors.Is(err, ErrNotAtRest) {
			t.Errorf("%s: expected ErrNotAtRest, got %v", name, err)
		}
	}

	e.Advance()
	e.Advance()
	expectState(t, e, StatusFinished, 3)

	if err := e.SetImprov(true); err != nil {
		t.Errorf("SetImprov after finish failed: %v", err)
	}
	if !e.State().ImprovMode {
		t.Error("Expected improv mode on")
	}
}

func TestReload(t *testing.T) {
	e, _ := newTestEngine(t, sceneScript, WithUserCharacters("ALEX"))
	e.Jump(2)

	next := mustParse(t, "ALEX: new")
	if err := e.Reload(next); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if e.Script() != next {
		t.Error("Expected the new script")
	}
	expectState(t, e, StatusIdle, 0)

	if err := e.Reload(nil); !errors.Is(err, ErrNoScript) {
		t.Errorf("Expected ErrNoScript, got %v", err)
	}
}

func TestImprovTranscripts(t *testing.T) {
	speech := &mockSpeech{}
	e, voice := newTestEngine(t, sceneScript,
		WithUserCharacters("ALEX"), WithSpeechInput(speech), WithImprov(true))

	e.Start(0)
	speech.deliver("hey there")
	voice.finish()
	expectState(t, e, StatusFinished, 3)

	st := e.State()
	if st.Transcripts[1] != "hey there" {
		t.Errorf("Expected transcript for line 1, got %v", st.Transcripts)
	}

	sum := e.Summary()
	if len(sum.Transcripts) != 1 || sum.Transcripts[0].Scripted != "Hi" || sum.Transcripts[0].Speaker != "ALEX" {
		t.Errorf("Unexpected summary transcripts: %+v", sum.Transcripts)
	}
}

func TestPartnerProfileAndNarrator(t *testing.T) {
	s := &script.Script{
		Lines: []script.Line{
			{Index: 0, Speaker: "SAM", Text: "Out.", Kind: script.KindDialogue, Tones: []string{"angry"}},
			{Index: 1, Text: "Meanwhile.", Kind: script.KindDialogue},
		},
	}
	voice := &mockVoice{}
	e, err := New(s, voice, WithUserCharacters("SAM"))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetUserCharacters(); err != nil {
		t.Fatal(err)
	}

	e.Start(0)
	if want := tone.ProfileFor([]string{"angry"}, "SAM", nil); voice.profiles[0] != want {
		t.Errorf("Expected %+v, got %+v", want, voice.profiles[0])
	}

	voice.finish()
	expectState(t, e, StatusPlayingPartner, 1)
	if voice.spoken[1] != "Meanwhile." {
		t.Errorf("Expected narrator line spoken, got %v", voice.spoken)
	}
}

func TestEventsAndCallbacks(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("JAMIE"))

	var (
		mu       sync.Mutex
		statuses []Status
	)
	e.OnStateChange(func(st State) {
		mu.Lock()
		statuses = append(statuses, st.Status)
		mu.Unlock()
	})
	events := e.Subscribe("ui", 32)

	e.Start(0)
	voice.finish()
	e.Advance()

	mu.Lock()
	got := append([]Status(nil), statuses...)
	mu.Unlock()
	want := []Status{StatusPlayingPartner, StatusWaitingForUser, StatusFinished}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	var kinds []EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	wantKinds := []EventKind{
		EventPartnerLine, EventStateChanged,
		EventLineCompleted, EventUserLine, EventStateChanged,
		EventLineCompleted, EventFinished, EventStateChanged,
	}
	if !reflect.DeepEqual(kinds, wantKinds) {
		t.Errorf("Expected events %v, got %v", wantKinds, kinds)
	}

	e.Unsubscribe("ui")
	if _, ok := <-events; ok {
		t.Error("Expected channel closed after Unsubscribe")
	}
}

func TestCloseIgnoresLaterCalls(t *testing.T) {
	e, voice := newTestEngine(t, sceneScript, WithUserCharacters("JAMIE"))
	events := e.Subscribe("ui", 32)

	e.Start(0)
	e.Close()
	if voice.stops != 1 {
		t.Errorf("Expected voice stopped on close, got %d", voice.stops)
	}

	e.Start(0)
	expectState(t, e, StatusIdle, 0)
	if err := e.SetImprov(true); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}

	for range events {
		// Drain until closed.
	}
}

func TestConcurrentCallbacks(t *testing.T) {
	e, voice := newTestEngine(t, "A: 1\nA: 2\nA: 3\nA: 4\nA: 5\nA: 6")

	e.Start(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 6; i++ {
			for !voice.IsSpeaking() {
				time.Sleep(time.Millisecond)
			}
			voice.finish()
		}
	}()

	// Hammer the read side while callbacks arrive on another goroutine.
	for {
		select {
		case <-done:
			deadline := time.Now().Add(2 * time.Second)
			for e.State().Status != StatusFinished && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			expectState(t, e, StatusFinished, 6)
			return
		default:
			_ = e.State()
			e.Advance()
		}
	}
}

func TestUpcomingPartnerLines(t *testing.T) {
	e, _ := newTestEngine(t, "A: one\nB (angry): two\n(beat)\nA: three\nC: four\nB: five", WithUserCharacters("A"))

	cues := e.UpcomingPartnerLines(5)
	var got []int
	for _, c := range cues {
		got = append(got, c.Line.Index)
	}
	if !reflect.DeepEqual(got, []int{1, 4, 5}) {
		t.Fatalf("Expected partner lines [1 4 5], got %v", got)
	}
	if cues[0].Profile == tone.Baseline {
		t.Error("Expected the angry tone in the first cue's profile")
	}

	if n := len(e.UpcomingPartnerLines(1)); n != 1 {
		t.Errorf("Expected the limit to hold, got %d", n)
	}

	e.Jump(4)
	if cues := e.UpcomingPartnerLines(5); len(cues) != 1 || cues[0].Line.Index != 5 {
		t.Errorf("Expected only line 5 after the cursor, got %+v", cues)
	}
}

// linedSpeech also records the lines it is told to expect.
type linedSpeech struct {
	mockSpeech
	expected []string
}

func (l *linedSpeech) ExpectLine(line script.Line) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expected = append(l.expected, line.Text)
}

func TestListenerToldWhichLine(t *testing.T) {
	speech := &linedSpeech{}
	e, voice := newTestEngine(t, "A: one\nB: two\nA: three", WithUserCharacters("A"), WithSpeechInput(speech))

	e.Start(0)
	speech.deliver("one")
	expectState(t, e, StatusPlayingPartner, 1)
	voice.finish()
	expectState(t, e, StatusWaitingForUser, 2)

	e.Pause()
	e.Resume()

	want := []string{"one", "three", "three"}
	speech.mu.Lock()
	defer speech.mu.Unlock()
	if !reflect.DeepEqual(speech.expected, want) {
		t.Errorf("Expected lines %v, got %v", want, speech.expected)
	}
	if speech.starts != len(want) {
		t.Errorf("Expected %d listening sessions, got %d", len(want), speech.starts)
	}
}
