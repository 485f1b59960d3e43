// Package script models a multi-character script as an ordered sequence of
// typed lines grouped into scenes, and parses free-form script text into
// that model.
package script

import (
	"regexp"
	"strings"
	"time"
)

// Kind classifies a script line.
type Kind int

const (
	// KindDialogue is a line spoken by a character.
	KindDialogue Kind = iota
	// KindStageDirection is an action or direction that nobody speaks.
	KindStageDirection
	// KindSceneHeading starts a new scene.
	KindSceneHeading
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindDialogue:
		return "dialogue"
	case KindStageDirection:
		return "direction"
	case KindSceneHeading:
		return "heading"
	default:
		return "unknown"
	}
}

// NoScene marks a line that belongs to no scene.
const NoScene = -1

// Line is a single entry of a script. Lines are immutable after parsing.
type Line struct {
	Index      int      // Dense 0..N-1, script order
	Speaker    string   // Normalized speaker name; set iff Kind == KindDialogue
	Text       string   // Spoken or displayed text, tone tags removed
	Kind       Kind     // Line classification
	SceneIndex int      // Owning scene or NoScene
	Tones      []string // Lower-cased tone labels in order of appearance
}

// IsDialogue reports whether the line is spoken by a character.
func (l Line) IsDialogue() bool {
	return l.Kind == KindDialogue
}

// Scene groups consecutive lines under a heading.
type Scene struct {
	Index       int
	Heading     string
	LineIndices []int // Ascending
}

// Character is a speaker derived from the dialogue lines.
type Character struct {
	Name      string // Normalized, upper case
	LineCount int
}

// Script is the parsed, read-only aggregate consumed by the rehearsal engine.
// Callers own it; nothing in this module mutates a Script after Parse.
type Script struct {
	ID         string
	Title      string
	RawText    string
	Lines      []Line
	Scenes     []Scene
	Characters []Character
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineCount returns the number of lines.
func (s *Script) LineCount() int {
	if s == nil {
		return 0
	}
	return len(s.Lines)
}

// Line returns the line at index i.
func (s *Script) Line(i int) (Line, bool) {
	if s == nil || i < 0 || i >= len(s.Lines) {
		return Line{}, false
	}
	return s.Lines[i], true
}

// Scene returns the scene at index i.
func (s *Script) Scene(i int) (Scene, bool) {
	if s == nil || i < 0 || i >= len(s.Scenes) {
		return Scene{}, false
	}
	return s.Scenes[i], true
}

// Character looks up a character by name. The name is normalized first.
func (s *Script) Character(name string) (Character, bool) {
	if s == nil {
		return Character{}, false
	}
	name = NormalizeName(name)
	for _, c := range s.Characters {
		if c.Name == name {
			return c, true
		}
	}
	return Character{}, false
}

// CharacterNames returns the roster names in roster order.
func (s *Script) CharacterNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Characters))
	for _, c := range s.Characters {
		names = append(names, c.Name)
	}
	return names
}

// DialogueIndices returns the indices of every dialogue line in order.
func (s *Script) DialogueIndices() []int {
	if s == nil {
		return nil
	}
	var out []int
	for _, l := range s.Lines {
		if l.IsDialogue() {
			out = append(out, l.Index)
		}
	}
	return out
}

// SceneStart returns the first line index of the scene that starts after (dir
// > 0) or before (dir < 0) the scene containing line i. It returns false when
// there is no such scene.
func (s *Script) SceneStart(i, dir int) (int, bool) {
	l, ok := s.Line(i)
	if !ok {
		return 0, false
	}
	target := l.SceneIndex + dir
	if dir < 0 && l.SceneIndex >= 0 && l.SceneIndex < len(s.Scenes) {
		// Moving back from past a scene's first dialogue line lands on the
		// scene's own start first.
		if first, ok := s.firstDialogue(s.Scenes[l.SceneIndex]); ok && first < i {
			target = l.SceneIndex
		}
	}
	sc, ok := s.Scene(target)
	if !ok || len(sc.LineIndices) == 0 {
		return 0, false
	}
	return sc.LineIndices[0], true
}

// firstDialogue returns the first dialogue line of sc, or its first line when
// it has no dialogue.
func (s *Script) firstDialogue(sc Scene) (int, bool) {
	if len(sc.LineIndices) == 0 {
		return 0, false
	}
	for _, li := range sc.LineIndices {
		if li >= 0 && li < len(s.Lines) && s.Lines[li].IsDialogue() {
			return li, true
		}
	}
	return sc.LineIndices[0], true
}

var (
	extensionRegex = regexp.MustCompile(`(?i)\s*\((?:v\.?\s?o\.?|o\.?\s?s\.?|o\.?\s?c\.?|cont'?d|cont’d)\)\s*`)
	spaceRegex     = regexp.MustCompile(`\s+`)
)

// NormalizeName returns the canonical form of a character name: screenplay
// extensions such as (V.O.) and (CONT'D) removed, whitespace collapsed and
// upper-cased.
func NormalizeName(name string) string {
	name = extensionRegex.ReplaceAllString(name, " ")
	name = spaceRegex.ReplaceAllString(strings.TrimSpace(name), " ")
	return strings.ToUpper(name)
}
