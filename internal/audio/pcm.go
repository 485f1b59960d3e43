package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Format describes signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerFrame returns the size of one sample across all channels.
func (f Format) BytesPerFrame() int {
	return 2 * f.Channels
}

// Duration returns how long n bytes of PCM play for.
func (f Format) Duration(n int) time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	frames := n / f.BytesPerFrame()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Silence returns zeroed PCM lasting d.
func (f Format) Silence(d time.Duration) []byte {
	if d <= 0 || f.SampleRate <= 0 {
		return nil
	}
	frames := int(d * time.Duration(f.SampleRate) / time.Second)
	return make([]byte, frames*f.BytesPerFrame())
}

// Validate checks that f is something oto can open.
func (f Format) Validate() error {
	if f.SampleRate < 8000 || f.SampleRate > 48000 {
		return fmt.Errorf("sample rate must be between 8000 and 48000 Hz, got %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", f.Channels)
	}
	return nil
}

// ScalePCM16 returns a copy of pcm with every sample multiplied by gain,
// saturating at the int16 limits. A trailing odd byte is copied unchanged.
func ScalePCM16(pcm []byte, gain float64) []byte {
	out := make([]byte, len(pcm))
	copy(out, pcm)
	if gain == 1 {
		return out
	}

	for i := 0; i+1 < len(out); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(out[i:])))
		v := math.Round(s * gain)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(v)))
	}
	return out
}
