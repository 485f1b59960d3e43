package rehearsal

import (
	"slices"
	"time"
)

// Status represents where the engine is in the rehearsal loop.
type Status int

const (
	// StatusIdle indicates no rehearsal is running.
	StatusIdle Status = iota
	// StatusPlayingPartner indicates a partner line is being spoken.
	StatusPlayingPartner
	// StatusWaitingForUser indicates the engine waits for the user's line.
	StatusWaitingForUser
	// StatusPaused indicates the rehearsal is paused mid-line.
	StatusPaused
	// StatusFinished indicates the end of the script was reached.
	StatusFinished
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlayingPartner:
		return "playing partner"
	case StatusWaitingForUser:
		return "waiting for user"
	case StatusPaused:
		return "paused"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// IsActive returns true while a line is being played or awaited.
func (s Status) IsActive() bool {
	return s == StatusPlayingPartner || s == StatusWaitingForUser
}

// IsAtRest returns true when the engine can be (re)configured or started.
func (s Status) IsAtRest() bool {
	return s == StatusIdle || s == StatusFinished
}

// State is a snapshot of the engine's rehearsal state. The engine owns the
// live copy; every snapshot handed out is independent of it.
type State struct {
	Status           Status
	CurrentLineIndex int
	UserCharacters   []string // Normalized, sorted
	ImprovMode       bool
	SessionStartedAt time.Time // Zero until the first start
	FinishedAt       time.Time // Zero unless finished

	// CompletedLineIndices holds the dialogue lines finished this session,
	// ascending.
	CompletedLineIndices []int

	// Listening is true while the speech input is capturing the user's line.
	Listening bool
	// PausedFrom is the status a paused engine returns to on resume.
	PausedFrom Status
	// Transcripts maps line index to the recognised speech in improv mode.
	Transcripts map[int]string
}

// IsCompleted reports whether the line at index was completed this session.
func (s State) IsCompleted(index int) bool {
	_, ok := slices.BinarySearch(s.CompletedLineIndices, index)
	return ok
}

// IsUserCharacter reports whether name (already normalized) is played by
// the user.
func (s State) IsUserCharacter(name string) bool {
	_, ok := slices.BinarySearch(s.UserCharacters, name)
	return ok
}

// clone returns a deep copy of s.
func (s State) clone() State {
	s.UserCharacters = slices.Clone(s.UserCharacters)
	s.CompletedLineIndices = slices.Clone(s.CompletedLineIndices)
	if s.Transcripts != nil {
		t := make(map[int]string, len(s.Transcripts))
		for k, v := range s.Transcripts {
			t[k] = v
		}
		s.Transcripts = t
	}
	return s
}

// transitions lists, per status, the statuses the engine may move to. The
// engine consults it before every change so an impossible move shows up in
// the debug log instead of silently corrupting state.
var transitions = map[Status][]Status{
	StatusIdle:           {StatusIdle, StatusPlayingPartner, StatusWaitingForUser, StatusFinished},
	StatusPlayingPartner: {StatusPlayingPartner, StatusWaitingForUser, StatusPaused, StatusFinished, StatusIdle},
	StatusWaitingForUser: {StatusPlayingPartner, StatusWaitingForUser, StatusPaused, StatusFinished, StatusIdle},
	StatusPaused:         {StatusPlayingPartner, StatusWaitingForUser, StatusFinished, StatusIdle},
	StatusFinished:       {StatusIdle, StatusPlayingPartner, StatusWaitingForUser, StatusFinished},
}

// canTransition reports whether moving from one status to another is valid.
func canTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}
