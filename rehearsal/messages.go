package rehearsal

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the engine and the UI.

// StateChangedMsg carries the state after a transition.
type StateChangedMsg struct {
	State State
}

// LineMsg indicates a line started or finished.
type LineMsg struct {
	Kind  EventKind // EventPartnerLine, EventUserLine or EventLineCompleted
	Index int
	State State
}

// TranscriptMsg carries what the user said in improv mode.
type TranscriptMsg struct {
	Index int
	Text  string
}

// FinishedMsg indicates the end of the script was reached.
type FinishedMsg struct {
	Summary Summary
}

// ErrorMsg indicates a recoverable problem during the rehearsal.
type ErrorMsg struct {
	Err       error
	Component string
	Action    string
}

// EventsClosedMsg indicates the subscription was closed.
type EventsClosedMsg struct{}

// WatchCmd waits for the next engine event and turns it into a message.
// Re-issue it after every message to keep listening.
func (e *Engine) WatchCmd(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return e.toMsg(ev)
	}
}

func (e *Engine) toMsg(ev Event) tea.Msg {
	switch ev.Kind {
	case EventPartnerLine, EventUserLine, EventLineCompleted:
		idx := ev.State.CurrentLineIndex
		if ev.Line != nil {
			idx = ev.Line.Index
		}
		return LineMsg{Kind: ev.Kind, Index: idx, State: ev.State}
	case EventTranscript:
		idx := ev.State.CurrentLineIndex
		if ev.Line != nil {
			idx = ev.Line.Index
		}
		return TranscriptMsg{Index: idx, Text: ev.Transcript}
	case EventFinished:
		return FinishedMsg{Summary: NewSummary(e.Script(), ev.State)}
	case EventError:
		msg := ErrorMsg{Err: ev.Err}
		var re *Error
		if errors.As(ev.Err, &re) {
			msg.Component = re.Component
			msg.Action = re.Action
		}
		return msg
	default:
		return StateChangedMsg{State: ev.State}
	}
}
