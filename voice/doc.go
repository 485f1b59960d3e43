// Package voice implements the partner voice: something that speaks a
// script line with a tone-derived profile and reports when it is done.
//
// SynthVoice drives any Synthesizer (piper, a neural HTTP backend or paced
// silence) through an audio Player. Mock is a scriptable voice for tests
// and dry runs.
package voice
