package tone

import (
	"sort"
	"strings"
)

// Table maps a canonical tone label to its delivery profile.
type Table map[string]VoiceProfile

// DefaultTable returns a fresh copy of the built-in tone table.
func DefaultTable() Table {
	t := make(Table, len(builtin))
	for k, v := range builtin {
		t[k] = v
	}
	return t
}

// Names returns the table's tone labels in alphabetical order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for k := range t {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge returns a copy of t with other layered on top. Fields left zero in
// other keep the existing value; new tones start from Baseline.
func (t Table) Merge(other Table) Table {
	out := make(Table, len(t)+len(other))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range other {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		base, ok := out[k]
		if !ok {
			base = Baseline
		}
		out[k] = base.Overlay(v).Clamp()
	}
	return out
}

var builtin = Table{
	"neutral":   {Rate: 0.50, Pitch: 1.00, Volume: 0.90, PostPauseMs: 350, Stability: 0.50, Style: 0.30},
	"angry":     {Rate: 0.60, Pitch: 0.90, Volume: 1.00, PostPauseMs: 200, Stability: 0.30, Style: 0.80},
	"sad":       {Rate: 0.40, Pitch: 0.85, Volume: 0.70, PostPauseMs: 600, Stability: 0.60, Style: 0.50},
	"happy":     {Rate: 0.55, Pitch: 1.15, Volume: 0.95, PostPauseMs: 300, Stability: 0.45, Style: 0.60},
	"excited":   {Rate: 0.65, Pitch: 1.25, Volume: 1.00, PostPauseMs: 150, Stability: 0.35, Style: 0.90},
	"fearful":   {Rate: 0.60, Pitch: 1.20, Volume: 0.70, PostPauseMs: 250, Stability: 0.30, Style: 0.70},
	"intimate":  {Rate: 0.42, Pitch: 0.95, Volume: 0.60, PostPauseMs: 500, Stability: 0.70, Style: 0.40},
	"whisper":   {Rate: 0.40, Pitch: 1.00, Volume: 0.35, PostPauseMs: 450, Stability: 0.75, Style: 0.20},
	"sarcastic": {Rate: 0.48, Pitch: 1.05, Volume: 0.90, PostPauseMs: 400, Stability: 0.50, Style: 0.70},
	"tender":    {Rate: 0.43, Pitch: 1.00, Volume: 0.70, PostPauseMs: 500, Stability: 0.70, Style: 0.45},
	"urgent":    {Rate: 0.70, Pitch: 1.10, Volume: 1.00, PostPauseMs: 100, Stability: 0.35, Style: 0.75},
	"calm":      {Rate: 0.45, Pitch: 0.95, Volume: 0.80, PostPauseMs: 500, Stability: 0.80, Style: 0.20},
	"soft":      {Rate: 0.45, Pitch: 1.00, Volume: 0.55, PostPauseMs: 400, Stability: 0.65, Style: 0.30},
	"loud":      {Rate: 0.55, Pitch: 1.00, Volume: 1.00, PostPauseMs: 250, Stability: 0.45, Style: 0.60},
	"tired":     {Rate: 0.38, Pitch: 0.90, Volume: 0.65, PostPauseMs: 650, Stability: 0.70, Style: 0.25},
	"nervous":   {Rate: 0.60, Pitch: 1.15, Volume: 0.75, PostPauseMs: 300, Stability: 0.30, Style: 0.65},
	"confident": {Rate: 0.52, Pitch: 0.95, Volume: 1.00, PostPauseMs: 300, Stability: 0.60, Style: 0.50},
	"cold":      {Rate: 0.47, Pitch: 0.90, Volume: 0.85, PostPauseMs: 450, Stability: 0.80, Style: 0.15},
}

// aliases maps common synonyms onto table labels.
var aliases = map[string]string{
	"furious":   "angry",
	"mad":       "angry",
	"annoyed":   "angry",
	"upset":     "sad",
	"crying":    "sad",
	"tearful":   "sad",
	"joyful":    "happy",
	"cheerful":  "happy",
	"laughing":  "happy",
	"thrilled":  "excited",
	"scared":    "fearful",
	"afraid":    "fearful",
	"terrified": "fearful",
	"flirty":    "intimate",
	"seductive": "intimate",
	"whispered": "whisper",
	"hushed":    "whisper",
	"sarcasm":   "sarcastic",
	"wry":       "sarcastic",
	"gentle":    "tender",
	"gently":    "tender",
	"warm":      "tender",
	"hurried":   "urgent",
	"frantic":   "urgent",
	"relaxed":   "calm",
	"quiet":     "soft",
	"shouting":  "loud",
	"yelling":   "loud",
	"shout":     "loud",
	"exhausted": "tired",
	"bored":     "tired",
	"anxious":   "nervous",
	"hesitant":  "nervous",
	"proud":     "confident",
	"icy":       "cold",
	"flat":      "neutral",
}

// canonical resolves a raw tone word to a label present in t. Adverb and
// gerund forms are reduced to their stem ("angrily" -> "angry",
// "whispering" -> "whisper") before the alias lookup.
func canonical(t Table, word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", false
	}

	candidates := []string{word}
	switch {
	case strings.HasSuffix(word, "ily"):
		candidates = append(candidates, strings.TrimSuffix(word, "ily")+"y")
	case strings.HasSuffix(word, "ally"):
		candidates = append(candidates, strings.TrimSuffix(word, "ally"))
	case strings.HasSuffix(word, "ly"):
		candidates = append(candidates, strings.TrimSuffix(word, "ly"))
	case strings.HasSuffix(word, "ing"):
		candidates = append(candidates, strings.TrimSuffix(word, "ing"))
	}

	for _, c := range candidates {
		if _, ok := t[c]; ok {
			return c, true
		}
		if a, ok := aliases[c]; ok {
			if _, ok := t[a]; ok {
				return a, true
			}
		}
	}
	return "", false
}
