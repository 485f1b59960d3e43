// Package audio plays 16-bit little-endian mono PCM through oto/v3 and
// provides the small amount of sample arithmetic the voices need.
package audio
