package voice

import "errors"

var (
	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrTextTooLong is returned for text beyond a backend's limit.
	ErrTextTooLong = errors.New("text too long")

	// ErrUnavailable is returned by a synthesizer that cannot run here.
	ErrUnavailable = errors.New("synthesizer unavailable")

	// ErrNoAudio is returned when a backend produced no samples.
	ErrNoAudio = errors.New("no audio produced")

	// ErrSynthesisFailed wraps backend failures.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrAllFailed is returned when both sides of a fallback failed.
	ErrAllFailed = errors.New("primary and fallback synthesizers failed")
)

// maxTextSize bounds a single line sent to any backend.
const maxTextSize = 5000
