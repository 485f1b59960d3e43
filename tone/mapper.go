package tone

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/dgnsrekt/cueline/script"
	"gopkg.in/yaml.v3"
)

// Overrides holds per-character profile fields keyed by normalized character
// name. Only non-zero fields take effect.
type Overrides map[string]VoiceProfile

// Mapper turns tone labels into voice profiles. It is safe for concurrent use
// once constructed; nothing mutates it afterwards.
type Mapper struct {
	table     Table
	baseline  VoiceProfile
	overrides Overrides
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithTable layers t over the built-in table.
func WithTable(t Table) Option {
	return func(m *Mapper) {
		m.table = m.table.Merge(t)
	}
}

// WithOverrides sets the per-character overrides. Keys are normalized.
func WithOverrides(o Overrides) Option {
	return func(m *Mapper) {
		m.overrides = make(Overrides, len(o))
		for name, p := range o {
			m.overrides[script.NormalizeName(name)] = p
		}
	}
}

// WithBaseline replaces the profile used when no tone matches.
func WithBaseline(p VoiceProfile) Option {
	return func(m *Mapper) {
		m.baseline = p.Clamp()
	}
}

// NewMapper creates a mapper over the built-in table.
func NewMapper(opts ...Option) *Mapper {
	m := &Mapper{
		table:    DefaultTable(),
		baseline: Baseline,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Table returns a copy of the mapper's effective table.
func (m *Mapper) Table() Table {
	return Table{}.Merge(m.table)
}

// Canonical resolves a raw tone word to the label the mapper would use.
func (m *Mapper) Canonical(word string) (string, bool) {
	return canonical(m.table, word)
}

// ProfileFor computes the profile for a line with the given tones spoken by
// character. Recognised tones are averaged field by field; unrecognised ones
// are ignored. The character's override, if any, is applied last.
func (m *Mapper) ProfileFor(tones []string, character string) VoiceProfile {
	p := m.average(tones)
	if o, ok := m.overrides[script.NormalizeName(character)]; ok && character != "" {
		p = p.Overlay(o)
	}
	return p.Clamp()
}

func (m *Mapper) average(tones []string) VoiceProfile {
	seen := make(map[string]bool, len(tones))
	var (
		n                                   int
		rate, pitch, vol, pause, stab, styl float64
		voice                               string
	)
	for _, raw := range tones {
		label, ok := canonical(m.table, raw)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true

		e := m.table[label]
		n++
		rate += e.Rate
		pitch += e.Pitch
		vol += e.Volume
		pause += float64(e.PostPauseMs)
		stab += e.Stability
		styl += e.Style
		if voice == "" {
			voice = e.VoiceID
		}
	}

	if n == 0 {
		return m.baseline
	}

	f := float64(n)
	return VoiceProfile{
		VoiceID:     voice,
		Rate:        rate / f,
		Pitch:       pitch / f,
		Volume:      vol / f,
		PostPauseMs: int(math.Round(pause / f)),
		Stability:   stab / f,
		Style:       styl / f,
	}
}

var defaultMapper = NewMapper()

// ProfileFor maps tones using the built-in table and the given overrides.
func ProfileFor(tones []string, character string, overrides Overrides) VoiceProfile {
	if len(overrides) == 0 {
		return defaultMapper.ProfileFor(tones, character)
	}
	return NewMapper(WithOverrides(overrides)).ProfileFor(tones, character)
}

// LoadTable reads a YAML map of tone label to profile fields.
//
//	angry:
//	  rate: 0.7
//	  volume: 1.0
func LoadTable(path string) (Table, error) {
	var t Table
	if err := readYAML(path, &t); err != nil {
		return nil, err
	}
	out := make(Table, len(t))
	for k, v := range t {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out, nil
}

// LoadOverrides reads a YAML map of character name to profile fields.
//
//	ALEX:
//	  voice_id: en_US-ryan-high
//	  pitch: 0.9
func LoadOverrides(path string) (Overrides, error) {
	var o Overrides
	if err := readYAML(path, &o); err != nil {
		return nil, err
	}
	out := make(Overrides, len(o))
	for k, v := range o {
		out[script.NormalizeName(k)] = v
	}
	return out, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
