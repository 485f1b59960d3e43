package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dgnsrekt/cueline/rehearsal"
	"github.com/dgnsrekt/cueline/tone"
	"github.com/spf13/cobra"
)

var (
	tonesCharacter string

	tonesCmd = &cobra.Command{
		Use:   "tones",
		Short: "List the tone table",
		Long: paragraph(fmt.Sprintf("\nList every %s a line can be tagged with and the voice it produces. "+
			"Tables and character overrides from the config file are included.", keyword("tone"))),
		Example: paragraph("cueline tones\ncueline tones --character alex"),
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := rehearsal.LoadConfigFromViper()
			if err != nil {
				return err
			}
			mapper, err := buildMapper(cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, tonesTable(mapper, tonesCharacter))
			return err //nolint:wrapcheck
		},
	}
)

func init() {
	tonesCmd.Flags().StringVar(&tonesCharacter, "character", "", "apply this character's overrides")
}

func tonesTable(m *tone.Mapper, character string) string {
	rows := [][]string{profileRow("(none)", m.ProfileFor(nil, character))}
	for _, name := range m.Table().Names() {
		rows = append(rows, profileRow(name, m.ProfileFor([]string{name}, character)))
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faintStyle).
		Headers("TONE", "VOICE", "RATE", "PITCH", "VOLUME", "PAUSE", "STABILITY", "STYLE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}

func profileRow(name string, p tone.VoiceProfile) []string {
	voice := p.VoiceID
	if voice == "" {
		voice = "-"
	}
	return []string{
		name,
		voice,
		fmt.Sprintf("%.2f", p.Rate),
		fmt.Sprintf("%.2f", p.Pitch),
		fmt.Sprintf("%.2f", p.Volume),
		fmt.Sprintf("%dms", p.PostPauseMs),
		fmt.Sprintf("%.2f", p.Stability),
		fmt.Sprintf("%.2f", p.Style),
	}
}
