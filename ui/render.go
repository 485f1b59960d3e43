package ui

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	gutterWidth  = 2 // cursor marker
	cueWords     = 3
	maxNameWidth = 16
)

// renderInput is everything needed to draw the script body.
type renderInput struct {
	script      *script.Script
	state       rehearsal.State
	cursor      int
	width       int
	lineNumbers bool
}

// renderScript draws the script and returns, per line, the row it starts on.
func renderScript(in renderInput) (string, []int) {
	s := in.script
	if s.LineCount() == 0 {
		return "", nil
	}

	nameWidth := speakerColumnWidth(s)
	numWidth := 0
	if in.lineNumbers {
		numWidth = len(fmt.Sprint(s.LineCount())) + 1
	}
	textWidth := in.width - gutterWidth - numWidth - nameWidth - 2
	if textWidth < 10 {
		textWidth = 10
	}

	var (
		b       strings.Builder
		offsets = make([]int, s.LineCount())
		row     int
	)
	for _, l := range s.Lines {
		if l.Kind == script.KindSceneHeading && l.Index > 0 {
			b.WriteByte('\n')
			row++
		}
		offsets[l.Index] = row

		var block string
		switch l.Kind {
		case script.KindSceneHeading:
			block = headingStyle.Render(l.Text)
		case script.KindStageDirection:
			block = directionStyle.Render(wordwrap.String("("+l.Text+")", nameWidth+2+textWidth))
		default:
			block = renderDialogue(in, l, nameWidth, textWidth)
		}

		if l.Index == in.state.CurrentLineIndex && in.state.Status != rehearsal.StatusIdle {
			block = highlight(block)
		}

		prefix := "  "
		if l.Index == in.cursor {
			prefix = cursorStyle.Render("> ")
		}
		if in.lineNumbers {
			prefix += lineNumberStyle.Render(fmt.Sprintf("%*d ", numWidth-1, l.Index+1))
		}
		block = prefixBlock(block, prefix, gutterWidth+numWidth)

		b.WriteString(block)
		b.WriteByte('\n')
		row += strings.Count(block, "\n") + 1
	}
	return strings.TrimSuffix(b.String(), "\n"), offsets
}

func renderDialogue(in renderInput, l script.Line, nameWidth, textWidth int) string {
	user := in.state.IsUserCharacter(l.Speaker)
	done := in.state.IsCompleted(l.Index)

	text := l.Text
	if user && in.state.ImprovMode && !done {
		text = cue(text)
	}
	if len(l.Tones) > 0 {
		text = toneStyle.Render("("+strings.Join(l.Tones, ", ")+")") + " " + text
	}
	body := wordwrap.String(text, textWidth)
	if said, ok := in.state.Transcripts[l.Index]; ok && done {
		if said == "" {
			said = "(silence)"
		}
		body += "\n" + toneStyle.Render("↳ "+wordwrap.String(said, textWidth-2))
	}
	body = indent.String(body, uint(nameWidth+2))
	body = strings.TrimLeft(body, " ")

	name := padRight(runewidth.Truncate(l.Speaker, nameWidth, "…"), nameWidth)
	switch {
	case done:
		return doneStyle.Render(name) + "  " + doneStyle.Render(body)
	case user:
		return userStyle.Render(name) + "  " + body
	default:
		return partnerStyle.Render(name) + "  " + body
	}
}

// cue keeps the first few words of a line so the user still has a prompt.
func cue(text string) string {
	words := strings.Fields(text)
	if len(words) <= cueWords {
		return text
	}
	return strings.Join(words[:cueWords], " ") + " …"
}

func speakerColumnWidth(s *script.Script) int {
	w := 0
	for _, c := range s.Characters {
		w = max(w, runewidth.StringWidth(c.Name))
	}
	return min(w, maxNameWidth)
}

func padRight(s string, width int) string {
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// prefixBlock puts prefix before the first row and indents the rest.
func prefixBlock(block, prefix string, width int) string {
	rows := strings.Split(block, "\n")
	pad := strings.Repeat(" ", width)
	for i := range rows {
		if i == 0 {
			rows[i] = prefix + rows[i]
			continue
		}
		rows[i] = pad + rows[i]
	}
	return strings.Join(rows, "\n")
}

func highlight(block string) string {
	rows := strings.Split(block, "\n")
	for i, r := range rows {
		rows[i] = currentStyle.Render(r)
	}
	return strings.Join(rows, "\n")
}
