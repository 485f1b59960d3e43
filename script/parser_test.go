package script

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseInlineDialogue(t *testing.T) {
	s, err := Parse("Test", "ALEX: Hi.\nSam: Hello.\nalex: Bye.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.LineCount() != 3 {
		t.Fatalf("Expected 3 lines, got %d", s.LineCount())
	}

	expected := []struct {
		speaker string
		text    string
	}{
		{"ALEX", "Hi."},
		{"SAM", "Hello."},
		{"ALEX", "Bye."},
	}
	for i, want := range expected {
		l := s.Lines[i]
		if l.Index != i {
			t.Errorf("Line %d: expected index %d, got %d", i, i, l.Index)
		}
		if l.Kind != KindDialogue {
			t.Errorf("Line %d: expected dialogue, got %s", i, l.Kind)
		}
		if l.Speaker != want.speaker || l.Text != want.text {
			t.Errorf("Line %d: expected %s/%q, got %s/%q", i, want.speaker, want.text, l.Speaker, l.Text)
		}
	}

	if len(s.Scenes) != 1 || s.Scenes[0].Heading != "Full Script" {
		t.Errorf("Expected a single Full Script scene, got %+v", s.Scenes)
	}
	if s.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if s.CreatedAt.IsZero() || !s.CreatedAt.Equal(s.UpdatedAt) {
		t.Error("Expected CreatedAt == UpdatedAt on a fresh parse")
	}
}

func TestParseTones(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		tones []string
	}{
		{
			name:  "parenthetical before colon",
			input: "ALEX (angry): Get out.",
			text:  "Get out.",
			tones: []string{"angry"},
		},
		{
			name:  "bracket before colon",
			input: "ALEX [Softly]: Stay.",
			text:  "Stay.",
			tones: []string{"softly"},
		},
		{
			name:  "leading tag in text",
			input: "SAM: [whispering, sad] Fine.",
			text:  "Fine.",
			tones: []string{"whispering", "sad"},
		},
		{
			name:  "both positions deduplicated",
			input: "SAM (sad): (sad / tired) Fine.",
			text:  "Fine.",
			tones: []string{"sad", "tired"},
		},
		{
			name:  "no tags",
			input: "SAM: Fine.",
			text:  "Fine.",
			tones: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("", tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			l := s.Lines[0]
			if l.Text != tt.text {
				t.Errorf("Expected text %q, got %q", tt.text, l.Text)
			}
			if !reflect.DeepEqual(l.Tones, tt.tones) {
				t.Errorf("Expected tones %v, got %v", tt.tones, l.Tones)
			}
		})
	}
}

func TestParseScreenplay(t *testing.T) {
	input := `INT. KITCHEN - NIGHT

ALEX
(quietly)
I know what you did.

SAM (V.O.)
Prove it.`

	s, err := Parse("", input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.LineCount() != 3 {
		t.Fatalf("Expected 3 lines, got %d: %+v", s.LineCount(), s.Lines)
	}

	if s.Lines[0].Kind != KindSceneHeading || s.Lines[0].Text != "INT. KITCHEN - NIGHT" {
		t.Errorf("Expected heading, got %+v", s.Lines[0])
	}

	alex := s.Lines[1]
	if alex.Speaker != "ALEX" || alex.Text != "I know what you did." {
		t.Errorf("Unexpected line: %+v", alex)
	}
	if !reflect.DeepEqual(alex.Tones, []string{"quietly"}) {
		t.Errorf("Expected quietly tone, got %v", alex.Tones)
	}

	sam := s.Lines[2]
	if sam.Speaker != "SAM" || sam.Text != "Prove it." || len(sam.Tones) != 0 {
		t.Errorf("Unexpected line: %+v", sam)
	}

	if len(s.Scenes) != 1 || s.Scenes[0].Heading != "INT. KITCHEN - NIGHT" {
		t.Errorf("Unexpected scenes: %+v", s.Scenes)
	}
}

func TestParseDirections(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
	}{
		{"parenthesised", "(She leaves.)", "She leaves."},
		{"bracketed", "[Lights fade]", "Lights fade"},
		{"prose", "The door creaks open.", "The door creaks open."},
		{"tag only dialogue", "ALEX: (laughs)", "ALEX: (laughs)"},
		{"lonely cue", "THE END", "THE END"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse("", tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			l := s.Lines[0]
			if l.Kind != KindStageDirection {
				t.Errorf("Expected direction, got %s", l.Kind)
			}
			if l.Speaker != "" {
				t.Errorf("Expected no speaker, got %q", l.Speaker)
			}
			if l.Text != tt.text {
				t.Errorf("Expected %q, got %q", tt.text, l.Text)
			}
		})
	}
}

func TestParseInlineContinuation(t *testing.T) {
	s, err := Parse("", "ALEX:\nHello there.\nHow are you?\n\nSAM: Good.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.LineCount() != 2 {
		t.Fatalf("Expected 2 lines, got %d", s.LineCount())
	}
	if s.Lines[0].Text != "Hello there. How are you?" {
		t.Errorf("Unexpected text: %q", s.Lines[0].Text)
	}
}

func TestParseScenes(t *testing.T) {
	input := `Title: Two Scenes
ALEX: One.
(beat)

SCENE 2
SAM: Two.
## The End
ALEX: Three.`

	s, err := Parse("ignored", input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Title != "Two Scenes" {
		t.Errorf("Expected title from text, got %q", s.Title)
	}

	headings := []string{"Opening", "SCENE 2", "The End"}
	if len(s.Scenes) != len(headings) {
		t.Fatalf("Expected %d scenes, got %d", len(headings), len(s.Scenes))
	}
	for i, h := range headings {
		if s.Scenes[i].Heading != h {
			t.Errorf("Scene %d: expected %q, got %q", i, h, s.Scenes[i].Heading)
		}
	}

	wantScenes := []int{0, 0, 1, 1, 2, 2}
	for i, l := range s.Lines {
		if l.SceneIndex != wantScenes[i] {
			t.Errorf("Line %d: expected scene %d, got %d", i, wantScenes[i], l.SceneIndex)
		}
	}

	if !reflect.DeepEqual(s.Scenes[1].LineIndices, []int{2, 3}) {
		t.Errorf("Unexpected scene 1 lines: %v", s.Scenes[1].LineIndices)
	}
}

func TestParseRoster(t *testing.T) {
	s, err := Parse("", "BOB: a\nALEX: b\nBOB: c\nCARA: d\nALEX: e\nBOB: f")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Character{{"BOB", 3}, {"ALEX", 2}, {"CARA", 1}}
	if !reflect.DeepEqual(s.Characters, want) {
		t.Errorf("Expected %v, got %v", want, s.Characters)
	}
	if c, ok := s.Character("alex"); !ok || c.LineCount != 2 {
		t.Errorf("Character lookup failed: %+v %v", c, ok)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n"} {
		if _, err := Parse("", input); !errors.Is(err, ErrEmptyScript) {
			t.Errorf("Expected ErrEmptyScript for %q, got %v", input, err)
		}
	}
}

func TestReparseKeepsIdentity(t *testing.T) {
	p := NewParser()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return created }
	p.newID = func() string { return "fixed-id" }

	first, err := p.Parse("Play", "ALEX: Hi.")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	later := created.Add(time.Hour)
	p.now = func() time.Time { return later }

	second, err := p.Reparse(first, "ALEX: Hi.\nSAM: Hey.")
	if err != nil {
		t.Fatalf("Reparse failed: %v", err)
	}
	if second.ID != "fixed-id" || !second.CreatedAt.Equal(created) {
		t.Errorf("Identity not kept: %s %v", second.ID, second.CreatedAt)
	}
	if !second.UpdatedAt.Equal(later) {
		t.Errorf("Expected UpdatedAt %v, got %v", later, second.UpdatedAt)
	}
	if second.LineCount() != 2 || first.LineCount() != 1 {
		t.Error("Reparse should produce a new script without touching the old one")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"alex":           "ALEX",
		"  mary   jane ": "MARY JANE",
		"Bob (V.O.)":     "BOB",
		"alex (cont'd)":  "ALEX",
		"SAM (O.S.)":     "SAM",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSceneStart(t *testing.T) {
	s, err := Parse("", "SCENE 1\nA: one\nA: two\nSCENE 2\nB: three\nB: four")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		name string
		from int
		dir  int
		want int
		ok   bool
	}{
		{"forward from first scene", 1, 1, 3, true},
		{"forward from last scene", 4, 1, 0, false},
		{"back from mid scene", 5, -1, 3, true},
		{"back from scene start", 3, -1, 0, true},
		{"back from first dialogue", 4, -1, 0, true},
		{"back from first scene start", 0, -1, 0, false},
		{"out of range", 99, 1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.SceneStart(tt.from, tt.dir)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("SceneStart(%d, %d) = %d, %v; want %d, %v", tt.from, tt.dir, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDialogueIndices(t *testing.T) {
	s, err := Parse("", "A: one\n(beat)\nB: two")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := s.DialogueIndices(); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Expected [0 2], got %v", got)
	}
}
