package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	amber     = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFB454"}
	red       = lipgloss.AdaptiveColor{Light: "#C4314B", Dark: "#FF5F87"}
	faint     = lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#5A5A5A"}

	lineNumberFg    = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	statusBarStatusStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Padding(0, 1)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg)

	statusBarPosStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Padding(0, 1)

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B6FFE4")).
				Background(darkGreen)

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(red)

	lineNumberStyle = lipgloss.NewStyle().Foreground(lineNumberFg)
	headingStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	directionStyle  = lipgloss.NewStyle().Italic(true).Foreground(faint)
	partnerStyle    = lipgloss.NewStyle().Foreground(mintGreen).Bold(true)
	userStyle       = lipgloss.NewStyle().Foreground(amber).Bold(true)
	doneStyle       = lipgloss.NewStyle().Foreground(faint)
	currentStyle    = lipgloss.NewStyle().Background(lipgloss.AdaptiveColor{Light: "#F4F0D0", Dark: "#3A3520"})
	toneStyle       = lipgloss.NewStyle().Foreground(faint).Italic(true)
	cursorStyle     = lipgloss.NewStyle().Foreground(amber)
)

// glamourStyle resolves "auto" against the terminal background.
func glamourStyle(style string) glamour.TermRendererOption {
	switch style {
	case "", styles.AutoStyle:
		if lipgloss.HasDarkBackground() {
			return glamour.WithStandardStyle(styles.DarkStyle)
		}
		return glamour.WithStandardStyle(styles.LightStyle)
	case styles.DarkStyle, styles.LightStyle, styles.NoTTYStyle, styles.AsciiStyle,
		styles.DraculaStyle, styles.PinkStyle, styles.TokyoNightStyle:
		return glamour.WithStandardStyle(style)
	default:
		return glamour.WithStylePath(style)
	}
}

// RenderMarkdown renders md for the terminal.
func RenderMarkdown(md, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamourStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
