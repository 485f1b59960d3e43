package rehearsal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgnsrekt/cueline/script"
	"github.com/dustin/go-humanize"
)

// Transcript pairs a user line with what was actually said.
type Transcript struct {
	LineIndex int
	Speaker   string
	Scripted  string
	Spoken    string
}

// Summary reports how far a session got.
type Summary struct {
	Title      string
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool

	DialogueLines int
	UserLines     int
	PartnerLines  int

	Completed        int
	CompletedUser    int
	CompletedPartner int

	Transcripts []Transcript
}

// NewSummary derives a summary from a script and a state snapshot.
func NewSummary(s *script.Script, st State) Summary {
	sum := Summary{
		StartedAt:  st.SessionStartedAt,
		FinishedAt: st.FinishedAt,
		Finished:   st.Status == StatusFinished,
	}
	if s == nil {
		return sum
	}
	sum.Title = s.Title

	isUser := func(l script.Line) bool {
		return l.Speaker != "" && st.IsUserCharacter(script.NormalizeName(l.Speaker))
	}

	for _, l := range s.Lines {
		if !l.IsDialogue() {
			continue
		}
		sum.DialogueLines++
		user := isUser(l)
		if user {
			sum.UserLines++
		} else {
			sum.PartnerLines++
		}
		if !st.IsCompleted(l.Index) {
			continue
		}
		sum.Completed++
		if user {
			sum.CompletedUser++
		} else {
			sum.CompletedPartner++
		}
	}

	for idx, spoken := range st.Transcripts {
		t := Transcript{LineIndex: idx, Spoken: spoken}
		if l, ok := s.Line(idx); ok {
			t.Speaker = l.Speaker
			t.Scripted = l.Text
		}
		sum.Transcripts = append(sum.Transcripts, t)
	}
	sort.Slice(sum.Transcripts, func(i, j int) bool {
		return sum.Transcripts[i].LineIndex < sum.Transcripts[j].LineIndex
	})

	return sum
}

// Summary summarises the current session.
func (e *Engine) Summary() Summary {
	e.mu.RLock()
	s, st := e.snapScript, e.snapshot.clone()
	e.mu.RUnlock()
	return NewSummary(s, st)
}

// Progress returns the completed share of dialogue lines in [0,1].
func (s Summary) Progress() float64 {
	if s.DialogueLines == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.DialogueLines)
}

// Duration returns how long the session ran, or zero if it has not finished.
func (s Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Markdown renders the summary for display.
func (s Summary) Markdown() string {
	var b strings.Builder

	title := s.Title
	if title == "" {
		title = "Rehearsal"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	switch {
	case s.StartedAt.IsZero():
		b.WriteString("Not started yet.\n\n")
	case s.Finished:
		took := strings.TrimSpace(humanize.RelTime(s.StartedAt, s.FinishedAt, "", ""))
		fmt.Fprintf(&b, "Finished %s, took %s.\n\n", humanize.Time(s.FinishedAt), took)
	default:
		fmt.Fprintf(&b, "Started %s.\n\n", humanize.Time(s.StartedAt))
	}

	fmt.Fprintf(&b, "| | Completed | Total |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Your lines | %s | %s |\n", humanize.Comma(int64(s.CompletedUser)), humanize.Comma(int64(s.UserLines)))
	fmt.Fprintf(&b, "| Partner lines | %s | %s |\n", humanize.Comma(int64(s.CompletedPartner)), humanize.Comma(int64(s.PartnerLines)))
	fmt.Fprintf(&b, "| All dialogue | %s | %s |\n\n", humanize.Comma(int64(s.Completed)), humanize.Comma(int64(s.DialogueLines)))
	fmt.Fprintf(&b, "**%.0f%%** of the script rehearsed.\n", s.Progress()*100)

	if len(s.Transcripts) > 0 {
		b.WriteString("\n## Improvised\n\n")
		for _, t := range s.Transcripts {
			spoken := t.Spoken
			if spoken == "" {
				spoken = "_(silence)_"
			}
			fmt.Fprintf(&b, "- **%s** (line %d)\n  - scripted: %s\n  - said: %s\n", t.Speaker, t.LineIndex+1, t.Scripted, spoken)
		}
	}

	return b.String()
}
