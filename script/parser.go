package script

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Parser converts free-form script text into a Script.
//
// It understands two dialogue layouts: the inline "NAME: text" form used by
// most plain-text scripts, and the screenplay form where an upper-case cue
// line is followed by the speech. Scene headings (INT./EXT., SCENE, ACT and
// markdown headings) split the script into scenes; everything else is kept as
// a stage direction.
type Parser struct {
	// Structure patterns
	titleRegex           *regexp.Regexp
	headingRegex         *regexp.Regexp
	markdownHeadingRegex *regexp.Regexp

	// Dialogue patterns
	inlineRegex      *regexp.Regexp
	cueRegex         *regexp.Regexp
	wrappedRegex     *regexp.Regexp
	leadingToneRegex *regexp.Regexp
	toneSplitRegex   *regexp.Regexp

	// Options
	maxNameWords int

	now   func() time.Time
	newID func() string
}

// NewParser creates a parser with the default heuristics.
func NewParser() *Parser {
	return &Parser{
		titleRegex: regexp.MustCompile(`(?i)^title\s*:\s*(.+)$`),
		headingRegex: regexp.MustCompile(
			`(?i)^(?:(?:int\.?/ext\.?|i/e\.?|int\.|ext\.)\s*\S.*|(?:scene|act)\s+\S.*)$`,
		),
		markdownHeadingRegex: regexp.MustCompile(`^#{1,3}\s+(.+)$`),

		inlineRegex: regexp.MustCompile(
			`^(\pL[\pL\pN .'’\-]{0,39}?)\s*(?:\(([^)]*)\)|\[([^\]]*)\])?\s*:\s*(.*)$`,
		),
		cueRegex:         regexp.MustCompile(`^(\p{Lu}[\p{Lu}\pN .'’\-]{0,39}?)\s*(\([^)]*\))?\s*$`),
		wrappedRegex:     regexp.MustCompile(`^(?:\((.*)\)|\[(.*)\])$`),
		leadingToneRegex: regexp.MustCompile(`^(?:\(([^)]*)\)|\[([^\]]*)\])\s*(.*)$`),
		toneSplitRegex:   regexp.MustCompile(`\s*(?:[,;/]|\band\b)\s*`),

		maxNameWords: 4,

		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Parse parses raw text into a new Script with a fresh ID. The title is used
// unless the text starts with a "Title:" line.
func Parse(title, raw string) (*Script, error) {
	return NewParser().Parse(title, raw)
}

// Parse parses raw text into a new Script with a fresh ID.
func (p *Parser) Parse(title, raw string) (*Script, error) {
	now := p.now()
	return p.build(p.newID(), title, raw, now, now)
}

// Reparse parses raw text as a new revision of prev, keeping its ID and
// creation time. Derived fields are always recomputed from scratch.
func (p *Parser) Reparse(prev *Script, raw string) (*Script, error) {
	if prev == nil {
		return p.Parse("", raw)
	}
	return p.build(prev.ID, prev.Title, raw, prev.CreatedAt, p.now())
}

func (p *Parser) build(id, title, raw string, created, updated time.Time) (*Script, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyScript
	}

	parsedTitle, lines := p.parseLines(raw)
	if parsedTitle != "" {
		title = parsedTitle
	}
	if len(lines) == 0 {
		return nil, ErrEmptyScript
	}

	scenes := assignScenes(lines)

	return &Script{
		ID:         id,
		Title:      title,
		RawText:    raw,
		Lines:      lines,
		Scenes:     scenes,
		Characters: roster(lines),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// parseLines walks the raw text and returns the title, if any, and the lines
// in script order with dense indices. Scene indices are assigned later.
func (p *Parser) parseLines(raw string) (string, []Line) {
	rows := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var (
		title string
		lines []Line
		first = true
	)

	add := func(kind Kind, speaker, text string, tones []string) {
		lines = append(lines, Line{
			Index:      len(lines),
			Speaker:    speaker,
			Text:       text,
			Kind:       kind,
			SceneIndex: NoScene,
			Tones:      tones,
		})
	}

	for i := 0; i < len(rows); i++ {
		row := strings.TrimSpace(rows[i])
		if row == "" {
			continue
		}

		if first {
			first = false
			if m := p.titleRegex.FindStringSubmatch(row); m != nil {
				title = strings.TrimSpace(m[1])
				continue
			}
		}

		if heading, ok := p.heading(row); ok {
			add(KindSceneHeading, "", heading, nil)
			continue
		}

		if m := p.wrappedRegex.FindStringSubmatch(row); m != nil {
			add(KindStageDirection, "", strings.TrimSpace(m[1]+m[2]), nil)
			continue
		}

		if speaker, tones, text, ok := p.inline(row); ok {
			if text == "" {
				var more []string
				more, text, i = p.block(rows, i+1)
				tones = appendTones(tones, more...)
			}
			lead, rest := p.leadingTones(text)
			tones = appendTones(tones, lead...)
			if !p.speakable(rest) {
				add(KindStageDirection, "", row, nil)
				continue
			}
			add(KindDialogue, speaker, rest, tones)
			continue
		}

		if speaker, tones, ok := p.cue(row); ok && i+1 < len(rows) && strings.TrimSpace(rows[i+1]) != "" {
			more, text, next := p.block(rows, i+1)
			tones = appendTones(tones, more...)
			lead, rest := p.leadingTones(text)
			tones = appendTones(tones, lead...)
			if p.speakable(rest) {
				add(KindDialogue, speaker, rest, tones)
				i = next
				continue
			}
		}

		add(KindStageDirection, "", row, nil)
	}

	return title, lines
}

// speakable reports whether text has something to say once tags are gone.
// "ALEX: (laughs)" is a direction, not a line.
func (p *Parser) speakable(text string) bool {
	return text != "" && !p.wrappedRegex.MatchString(text)
}

// heading reports whether row is a scene heading and returns its text.
func (p *Parser) heading(row string) (string, bool) {
	if m := p.markdownHeadingRegex.FindStringSubmatch(row); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if p.headingRegex.MatchString(row) {
		return row, true
	}
	return "", false
}

// inline matches the "NAME: text" and "NAME (tone): text" forms.
func (p *Parser) inline(row string) (speaker string, tones []string, text string, ok bool) {
	m := p.inlineRegex.FindStringSubmatch(row)
	if m == nil {
		return "", nil, "", false
	}
	name := strings.TrimSpace(m[1])
	if len(strings.Fields(name)) > p.maxNameWords {
		return "", nil, "", false
	}
	text = strings.TrimSpace(m[4])
	if strings.HasPrefix(text, "//") {
		// A URL, not a speaker.
		return "", nil, "", false
	}
	return NormalizeName(name), p.splitTones(m[2] + m[3]), text, true
}

// cue matches an upper-case screenplay character cue, optionally followed by
// an extension or a tone parenthetical.
func (p *Parser) cue(row string) (speaker string, tones []string, ok bool) {
	m := p.cueRegex.FindStringSubmatch(row)
	if m == nil {
		return "", nil, false
	}
	name := strings.TrimSpace(m[1])
	if name == "" || len(strings.Fields(name)) > p.maxNameWords {
		return "", nil, false
	}
	if paren := m[2]; paren != "" && !extensionRegex.MatchString(paren) {
		tones = p.splitTones(strings.Trim(paren, "()"))
	}
	return NormalizeName(name), tones, true
}

// block consumes the non-blank rows starting at start, collecting whole-line
// parentheticals as tones and joining the rest into one speech. It returns
// the index of the last consumed row.
func (p *Parser) block(rows []string, start int) (tones []string, text string, last int) {
	var parts []string
	last = start - 1
	for j := start; j < len(rows); j++ {
		row := strings.TrimSpace(rows[j])
		if row == "" {
			break
		}
		if _, ok := p.heading(row); ok {
			break
		}
		last = j
		if strings.HasPrefix(row, "(") && strings.HasSuffix(row, ")") {
			tones = appendTones(tones, p.splitTones(strings.Trim(row, "()"))...)
			continue
		}
		parts = append(parts, row)
	}
	return tones, strings.Join(parts, " "), last
}

// leadingTones strips "[tone]" or "(tone)" tags from the start of text.
func (p *Parser) leadingTones(text string) ([]string, string) {
	var tones []string
	for {
		m := p.leadingToneRegex.FindStringSubmatch(text)
		if m == nil || strings.TrimSpace(m[3]) == "" {
			return tones, strings.TrimSpace(text)
		}
		tones = appendTones(tones, p.splitTones(m[1]+m[2])...)
		text = m[3]
	}
}

func (p *Parser) splitTones(tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	var tones []string
	for _, t := range p.toneSplitRegex.Split(tag, -1) {
		t = strings.ToLower(strings.Trim(strings.TrimSpace(t), ".!?:"))
		t = spaceRegex.ReplaceAllString(t, " ")
		if t != "" {
			tones = appendTones(tones, t)
		}
	}
	return tones
}

// appendTones appends tones that are not already present.
func appendTones(dst []string, tones ...string) []string {
	for _, t := range tones {
		dup := false
		for _, d := range dst {
			if d == t {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, t)
		}
	}
	return dst
}

// assignScenes groups lines into scenes and sets each line's SceneIndex. A
// non-empty script always ends up with at least one scene.
func assignScenes(lines []Line) []Scene {
	hasHeading := false
	for _, l := range lines {
		if l.Kind == KindSceneHeading {
			hasHeading = true
			break
		}
	}

	if !hasHeading {
		scene := Scene{Index: 0, Heading: "Full Script"}
		for i := range lines {
			lines[i].SceneIndex = 0
			scene.LineIndices = append(scene.LineIndices, i)
		}
		return []Scene{scene}
	}

	var scenes []Scene
	for i := range lines {
		if lines[i].Kind == KindSceneHeading {
			scenes = append(scenes, Scene{Index: len(scenes), Heading: lines[i].Text})
		} else if len(scenes) == 0 {
			scenes = append(scenes, Scene{Index: 0, Heading: "Opening"})
		}
		cur := len(scenes) - 1
		lines[i].SceneIndex = cur
		scenes[cur].LineIndices = append(scenes[cur].LineIndices, i)
	}
	return scenes
}

// roster counts dialogue lines per speaker, most lines first.
func roster(lines []Line) []Character {
	counts := make(map[string]int)
	for _, l := range lines {
		if l.IsDialogue() {
			counts[l.Speaker]++
		}
	}

	chars := make([]Character, 0, len(counts))
	for name, n := range counts {
		chars = append(chars, Character{Name: name, LineCount: n})
	}
	sort.Slice(chars, func(i, j int) bool {
		if chars[i].LineCount != chars[j].LineCount {
			return chars[i].LineCount > chars[j].LineCount
		}
		return chars[i].Name < chars[j].Name
	})
	return chars
}
