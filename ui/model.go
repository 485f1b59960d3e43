package ui

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/script"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const (
	subscriberID         = "tui"
	eventBuffer          = 64
	statusBarHeight      = 1
	statusMessageTimeout = 3 * time.Second
)

type (
	scriptChangedMsg        struct{}
	statusMessageTimeoutMsg struct{ id int }
)

type model struct {
	cfg    Config
	engine *rehearsal.Engine
	events <-chan rehearsal.Event
	parser *script.Parser

	state    rehearsal.State
	keys     keyMap
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	ready         bool
	width, height int
	cursor        int
	offsets       []int

	summary     string
	showSummary bool

	statusMessage string
	statusIsError bool
	statusID      int
}

func newModel(cfg Config, engine *rehearsal.Engine) model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(mintGreen)

	st := engine.State()
	return model{
		cfg:     cfg,
		engine:  engine,
		events:  engine.Subscribe(subscriberID, eventBuffer),
		parser:  script.NewParser(),
		state:   st,
		keys:    defaultKeyMap(),
		spinner: sp,
		help:    help.New(),
		cursor:  st.CurrentLineIndex,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.engine.WatchCmd(m.events), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, 0)
			m.viewport.MouseWheelEnabled = m.cfg.EnableMouse
			m.ready = true
		}
		m.resize()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case rehearsal.StateChangedMsg:
		m.setState(msg.State)
		return m, m.engine.WatchCmd(m.events)

	case rehearsal.LineMsg:
		m.setState(msg.State)
		if msg.Kind != rehearsal.EventLineCompleted {
			m.cursor = msg.Index
			m.scrollTo(msg.Index)
		}
		return m, m.engine.WatchCmd(m.events)

	case rehearsal.TranscriptMsg:
		text := msg.Text
		if text == "" {
			text = "(silence)"
		}
		cmd := m.showStatus("Heard: "+text, false)
		return m, tea.Batch(cmd, m.engine.WatchCmd(m.events))

	case rehearsal.FinishedMsg:
		m.setState(m.engine.State())
		out, err := RenderMarkdown(msg.Summary.Markdown(), m.cfg.GlamourStyle, m.bodyWidth())
		if err != nil {
			log.Error("error rendering summary", "error", err)
			out = msg.Summary.Markdown()
		}
		m.summary = out
		m.showSummary = true
		m.refresh()
		m.viewport.GotoTop()
		return m, m.engine.WatchCmd(m.events)

	case rehearsal.ErrorMsg:
		log.Debug("rehearsal error", "component", msg.Component, "action", msg.Action, "error", msg.Err)
		cmd := m.showStatus(describeError(msg), true)
		return m, tea.Batch(cmd, m.engine.WatchCmd(m.events))

	case rehearsal.EventsClosedMsg:
		return m, nil

	case scriptChangedMsg:
		cmd := m.reload()
		return m, cmd

	case statusMessageTimeoutMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showSummary && !key.Matches(msg, m.keys.Quit) {
		switch {
		case key.Matches(msg, m.keys.Advance), msg.String() == "esc":
			m.showSummary = false
			m.refresh()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.engine.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Advance):
		// The cached state lags behind the engine until its event arrives.
		switch st := m.engine.State(); st.Status {
		case rehearsal.StatusIdle:
			m.start(st.CurrentLineIndex)
		case rehearsal.StatusFinished:
			m.start(0)
		default:
			m.engine.Advance()
		}

	case key.Matches(msg, m.keys.Start):
		m.start(m.cursor)

	case key.Matches(msg, m.keys.Pause):
		m.engine.TogglePause()

	case key.Matches(msg, m.keys.Stop):
		m.engine.Stop()

	case key.Matches(msg, m.keys.Back):
		m.engine.Back()

	case key.Matches(msg, m.keys.NextScene):
		m.engine.NextScene()

	case key.Matches(msg, m.keys.PrevScene):
		m.engine.PrevScene()

	case key.Matches(msg, m.keys.Jump):
		m.engine.Jump(m.cursor)

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Improv):
		cmd := m.toggleImprov()
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		m.refresh()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) toggleImprov() tea.Cmd {
	on := !m.engine.State().ImprovMode
	if err := m.engine.SetImprov(on); err != nil {
		if errors.Is(err, rehearsal.ErrNotAtRest) {
			return m.showStatus("Stop the rehearsal to change improv mode", true)
		}
		return m.showStatus(err.Error(), true)
	}
	m.setState(m.engine.State())
	if on {
		return m.showStatus("Improv on", false)
	}
	return m.showStatus("Improv off", false)
}

func (m *model) start(from int) {
	m.showSummary = false
	m.engine.Start(from)
}

func (m *model) setState(st rehearsal.State) {
	m.state = st
	m.refresh()
}

func (m *model) moveCursor(delta int) {
	n := m.engine.Script().LineCount()
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.refresh()
	m.scrollTo(m.cursor)
}

// scrollTo keeps line i within the viewport.
func (m *model) scrollTo(i int) {
	if !m.ready || m.showSummary || i < 0 || i >= len(m.offsets) {
		return
	}
	row := m.offsets[i]
	switch {
	case row < m.viewport.YOffset:
		m.viewport.SetYOffset(row)
	case row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(row - m.viewport.Height/2)
	}
}

// refresh re-renders the viewport content from the current state.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	if m.showSummary {
		m.viewport.SetContent(m.summary)
		return
	}
	content, offsets := renderScript(renderInput{
		script:      m.engine.Script(),
		state:       m.state,
		cursor:      m.cursor,
		width:       m.bodyWidth(),
		lineNumbers: m.cfg.ShowLineNumbers,
	})
	m.offsets = offsets
	m.viewport.SetContent(content)
}

func (m *model) resize() {
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-statusBarHeight-m.helpHeight(), 0)
	m.help.Width = m.width
}

func (m model) bodyWidth() int {
	w := m.width
	if m.cfg.GlamourMaxWidth > 0 && w > int(m.cfg.GlamourMaxWidth) {
		w = int(m.cfg.GlamourMaxWidth)
	}
	return w
}

func (m model) helpHeight() int {
	if !m.help.ShowAll {
		return 0
	}
	return lipgloss.Height(m.helpView())
}

// reload re-reads the script file and hands the new revision to the engine.
func (m *model) reload() tea.Cmd {
	if m.cfg.Path == "" {
		return nil
	}
	raw, err := os.ReadFile(m.cfg.Path)
	if err != nil {
		return m.showStatus("Couldn't read script: "+err.Error(), true)
	}
	next, err := m.parser.Reparse(m.engine.Script(), string(raw))
	if err != nil {
		return m.showStatus("Couldn't parse script: "+err.Error(), true)
	}
	if err := m.engine.Reload(next); err != nil {
		if errors.Is(err, rehearsal.ErrNotAtRest) {
			return m.showStatus("Script changed; stop to reload", true)
		}
		return m.showStatus(err.Error(), true)
	}
	log.Debug("script reloaded", "path", m.cfg.Path, "lines", next.LineCount())
	m.cursor = min(m.cursor, max(next.LineCount()-1, 0))
	m.setState(m.engine.State())
	return m.showStatus("Script reloaded", false)
}

func (m *model) showStatus(text string, isError bool) tea.Cmd {
	m.statusID++
	m.statusMessage = text
	m.statusIsError = isError
	id := m.statusID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}

func describeError(msg rehearsal.ErrorMsg) string {
	var parts []string
	if msg.Component != "" {
		parts = append(parts, msg.Component)
	}
	if msg.Action != "" {
		parts = append(parts, msg.Action)
	}
	if len(parts) == 0 {
		return msg.Err.Error()
	}
	return strings.Join(parts, " ") + " failed"
}

func (m model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.statusBarView())
	if m.help.ShowAll {
		b.WriteByte('\n')
		b.WriteString(m.helpView())
	}
	return b.String()
}

func (m model) statusBarView() string {
	logo := statusBarStatusStyle.Render("cueline")
	indicator := m.indicator()

	percent := math.Max(0, math.Min(1, m.viewport.ScrollPercent()))
	scroll := statusBarPosStyle.Render(fmt.Sprintf("%3.f%%", percent*100))
	helpNote := statusBarPosStyle.Render("? Help")

	var note string
	if m.statusMessage != "" {
		note = m.statusMessage
	} else {
		note = m.noteText()
	}
	avail := max(m.width-lipgloss.Width(logo)-lipgloss.Width(indicator)-lipgloss.Width(scroll)-lipgloss.Width(helpNote), 0)
	note = truncate.StringWithTail(" "+note, uint(avail), "…")
	note = padRight(note, avail)

	switch {
	case m.statusMessage != "" && m.statusIsError:
		note = statusBarErrorStyle.Render(note)
	case m.statusMessage != "":
		note = statusBarMessageStyle.Render(note)
	default:
		note = statusBarNoteStyle.Render(note)
	}
	return logo + indicator + note + scroll + helpNote
}

func (m model) indicator() string {
	switch {
	case m.state.Status == rehearsal.StatusPlayingPartner:
		return statusBarNoteStyle.Render(" " + m.spinner.View())
	case m.state.Listening:
		return statusBarNoteStyle.Render(" ●")
	default:
		return ""
	}
}

func (m model) noteText() string {
	s := m.engine.Script()
	parts := []string{s.Title, m.state.Status.String()}

	if l, ok := s.Line(m.state.CurrentLineIndex); ok && !m.state.Status.IsAtRest() {
		parts = append(parts, fmt.Sprintf("line %d/%d", l.Index+1, s.LineCount()))
		if sc, ok := s.Scene(l.SceneIndex); ok {
			parts = append(parts, sc.Heading)
		}
		switch {
		case m.state.Listening:
			parts = append(parts, "listening for "+l.Speaker)
		case m.state.Status == rehearsal.StatusWaitingForUser:
			parts = append(parts, "your line ("+l.Speaker+")")
		case l.Speaker != "":
			parts = append(parts, l.Speaker)
		}
	}
	if m.state.ImprovMode {
		parts = append(parts, "improv")
	}
	if !m.state.SessionStartedAt.IsZero() && m.state.Status.IsActive() {
		parts = append(parts, "started "+humanize.Time(m.state.SessionStartedAt))
	}
	return strings.Join(parts, " · ")
}

func (m model) helpView() string {
	return lipgloss.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
		Width(m.width).
		Render(m.help.View(m.keys))
}
