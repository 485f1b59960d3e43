// Package listen implements the user's side of the rehearsal: a Listener
// that runs a speech recognizer for one line at a time and decides when the
// user has finished speaking.
package listen
