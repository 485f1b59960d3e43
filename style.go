package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	headingStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	partnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89F0CB")).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFB454"}).Bold(true)
	directionStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#5A5A5A"})
	faintStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"})
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C4314B", Dark: "#FF5F87"})
)
