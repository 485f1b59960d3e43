package rehearsal

import (
	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/tone"
)

// VoiceOutput speaks partner lines.
//
// Implementations must invoke onComplete exactly once for every Speak call:
// when the line finishes, or when it is cut short by a later Speak or by
// Stop. onComplete may run on any goroutine, including synchronously inside
// Speak. An implementation backed by a network voice must fall back to a
// local one on failure so that onComplete still fires.
type VoiceOutput interface {
	Speak(text string, profile tone.VoiceProfile, onComplete func())
	Stop()
	Pause()
	Resume()
	IsSpeaking() bool
}

// SpeechInput listens for the user's line.
//
// onResult is invoked at most once per StartListening call with the best
// transcript available, which may be empty after a timeout. StopListening
// is idempotent and suppresses any pending result.
type SpeechInput interface {
	StartListening(onResult func(transcript string)) error
	StopListening()
	IsPermissionGranted() bool
}

// LineListener is implemented by speech inputs that want to know which line
// the next StartListening is for. ExpectLine is called right before it.
type LineListener interface {
	ExpectLine(l script.Line)
}
