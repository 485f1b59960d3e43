package rehearsal

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for the rehearsal engine.
var (
	// Construction errors
	ErrNoScript = errors.New("no script loaded")
	ErrNoVoice  = errors.New("no voice output configured")

	// Configuration errors
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownBackend  = errors.New("unknown voice backend")
	ErrBackendDisabled = errors.New("voice backend disabled by local_only")

	// Runtime conditions reported as events, never returned from transitions
	ErrListenUnavailable = errors.New("speech input unavailable")
	ErrNotAtRest         = errors.New("rehearsal is running")
	ErrClosed            = errors.New("engine is closed")
)

// Error describes a recoverable problem the engine ran into mid-rehearsal.
// The engine never fails a transition; it publishes an Error in an event
// and carries on in the nearest sensible state.
type Error struct {
	Err       error     // The underlying error
	Component string    // "voice", "listen" or "engine"
	Action    string    // What the engine was doing
	LineIndex int       // Line being handled, -1 if none
	Timestamp time.Time // When it happened
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Component, e.Action)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, component, action string, line int) *Error {
	return &Error{
		Err:       err,
		Component: component,
		Action:    action,
		LineIndex: line,
		Timestamp: time.Now(),
	}
}
