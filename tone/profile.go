// Package tone maps the tone labels attached to script lines onto the voice
// parameters a speech synthesizer understands.
package tone

import "fmt"

// VoiceProfile is a set of synthesis parameters. Values are always clamped to
// their valid ranges before they leave this package.
type VoiceProfile struct {
	VoiceID     string  `yaml:"voice_id,omitempty" json:"voice_id,omitempty"`
	Rate        float64 `yaml:"rate,omitempty" json:"rate"`                   // 0..1, 0.5 is normal speed
	Pitch       float64 `yaml:"pitch,omitempty" json:"pitch"`                 // 0.5..2.0
	Volume      float64 `yaml:"volume,omitempty" json:"volume"`               // 0..1
	PostPauseMs int     `yaml:"post_pause_ms,omitempty" json:"post_pause_ms"` // Silence after the line
	Stability   float64 `yaml:"stability,omitempty" json:"stability"`         // 0..1, expressive backends only
	Style       float64 `yaml:"style,omitempty" json:"style"`                 // 0..1, expressive backends only
}

// Baseline is the profile used when no tone is recognised.
var Baseline = VoiceProfile{
	Rate:        0.5,
	Pitch:       1.0,
	Volume:      0.9,
	PostPauseMs: 350,
	Stability:   0.5,
	Style:       0.3,
}

// Speed converts Rate into a speed multiplier where 1.0 is normal.
func (p VoiceProfile) Speed() float64 {
	return 0.5 + p.Rate
}

// String returns a compact description for logs and the tones command.
func (p VoiceProfile) String() string {
	s := fmt.Sprintf("rate=%.2f pitch=%.2f volume=%.2f pause=%dms", p.Rate, p.Pitch, p.Volume, p.PostPauseMs)
	if p.VoiceID != "" {
		s = "voice=" + p.VoiceID + " " + s
	}
	return s
}

// Clamp returns p with every numeric field forced into its valid range.
func (p VoiceProfile) Clamp() VoiceProfile {
	p.Rate = clamp(p.Rate, 0, 1)
	p.Pitch = clamp(p.Pitch, 0.5, 2)
	p.Volume = clamp(p.Volume, 0, 1)
	if p.PostPauseMs < 0 {
		p.PostPauseMs = 0
	}
	p.Stability = clamp(p.Stability, 0, 1)
	p.Style = clamp(p.Style, 0, 1)
	return p
}

// Overlay applies the non-zero fields of o on top of p.
func (p VoiceProfile) Overlay(o VoiceProfile) VoiceProfile {
	if o.VoiceID != "" {
		p.VoiceID = o.VoiceID
	}
	if o.Rate != 0 {
		p.Rate = o.Rate
	}
	if o.Pitch != 0 {
		p.Pitch = o.Pitch
	}
	if o.Volume != 0 {
		p.Volume = o.Volume
	}
	if o.PostPauseMs != 0 {
		p.PostPauseMs = o.PostPauseMs
	}
	if o.Stability != 0 {
		p.Stability = o.Stability
	}
	if o.Style != 0 {
		p.Style = o.Style
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
