package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dgnsrekt/cueline/script"
	"github.com/dgnsrekt/cueline/ui"
	"github.com/spf13/cobra"
)

var (
	parseMarkdown bool
	parseSave     bool

	parseCmd = &cobra.Command{
		Use:   "parse SCRIPT",
		Short: "Show how a script is read",
		Long: paragraph(fmt.Sprintf("\n%s a script and print its scenes, characters and lines, "+
			"the way a rehearsal will see them.", keyword("Parse"))),
		Example: paragraph("cueline parse play.txt\ncueline parse play.txt --markdown\ncueline parse play.txt --save"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			s, _, err := loadScript(args[0], store)
			if err != nil {
				return err
			}

			if parseSave {
				if err := store.Save(s); err != nil {
					return fmt.Errorf("unable to save script: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s as %s\n", s.Title, keyword(s.ID))
			}

			if parseMarkdown {
				out, err := ui.RenderMarkdown(scriptMarkdown(s), style, int(width)) //nolint:gosec
				if err != nil {
					return fmt.Errorf("unable to render markdown: %w", err)
				}
				_, err = fmt.Fprint(os.Stdout, out)
				return err //nolint:wrapcheck
			}
			_, err = fmt.Fprint(os.Stdout, scriptOutline(s))
			return err //nolint:wrapcheck
		},
	}
)

func init() {
	parseCmd.Flags().BoolVar(&parseMarkdown, "markdown", false, "render the outline as markdown")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "keep the script so it can be rehearsed by ID")
}

// scriptOutline is the plain listing: one row per line.
func scriptOutline(s *script.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headingStyle.Render(s.Title))
	fmt.Fprintf(&b, "%s\n\n", faintStyle.Render(fmt.Sprintf("%d lines · %d scenes · %d characters",
		s.LineCount(), len(s.Scenes), len(s.Characters))))

	numWidth := len(fmt.Sprint(s.LineCount()))
	for _, l := range s.Lines {
		num := faintStyle.Render(fmt.Sprintf("%*d", numWidth, l.Index+1))
		switch l.Kind {
		case script.KindSceneHeading:
			fmt.Fprintf(&b, "%s %s\n", num, headingStyle.Render(l.Text))
		case script.KindStageDirection:
			fmt.Fprintf(&b, "%s %s\n", num, directionStyle.Render("("+l.Text+")"))
		default:
			text := l.Text
			if len(l.Tones) > 0 {
				text = directionStyle.Render("("+strings.Join(l.Tones, ", ")+")") + " " + text
			}
			fmt.Fprintf(&b, "%s %s %s\n", num, partnerStyle.Render(l.Speaker+":"), text)
		}
	}

	b.WriteString("\n")
	rows := make([]string, 0, len(s.Characters))
	for _, c := range s.Characters {
		rows = append(rows, fmt.Sprintf("%s %s", userStyle.Render(c.Name), faintStyle.Render(fmt.Sprintf("(%d)", c.LineCount))))
	}
	b.WriteString(strings.Join(rows, "  "))
	b.WriteString("\n")
	return b.String()
}

// scriptMarkdown renders the script as a markdown document.
func scriptMarkdown(s *script.Script) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Title)
	fmt.Fprintf(&b, "%d lines, %d scenes, %d characters.\n\n", s.LineCount(), len(s.Scenes), len(s.Characters))

	b.WriteString("| Character | Lines |\n|---|---:|\n")
	for _, c := range s.Characters {
		fmt.Fprintf(&b, "| %s | %d |\n", c.Name, c.LineCount)
	}

	for _, sc := range s.Scenes {
		fmt.Fprintf(&b, "\n## %s\n\n", sc.Heading)
		for _, i := range sc.LineIndices {
			l := s.Lines[i]
			switch l.Kind {
			case script.KindSceneHeading:
				continue
			case script.KindStageDirection:
				fmt.Fprintf(&b, "*%s*\n\n", l.Text)
			default:
				tones := ""
				if len(l.Tones) > 0 {
					tones = " _(" + strings.Join(l.Tones, ", ") + ")_"
				}
				fmt.Fprintf(&b, "**%s**%s: %s\n\n", l.Speaker, tones, l.Text)
			}
		}
	}
	return b.String()
}
