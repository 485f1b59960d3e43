package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	scriptsDelete string

	scriptsCmd = &cobra.Command{
		Use:     "scripts",
		Short:   "List saved scripts",
		Long:    paragraph(fmt.Sprintf("\nList the scripts kept with %s, newest first.", keyword("parse --save"))),
		Example: paragraph("cueline scripts\ncueline scripts --delete ID"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			if scriptsDelete != "" {
				if err := store.Delete(scriptsDelete); err != nil {
					return fmt.Errorf("unable to delete script: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Deleted", scriptsDelete)
				return nil
			}

			scripts, err := store.List()
			if err != nil {
				return fmt.Errorf("unable to list scripts: %w", err)
			}
			if len(scripts) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No saved scripts in", store.Dir())
				return nil
			}
			for _, s := range scripts {
				fmt.Fprintf(os.Stdout, "%s  %s %s\n",
					keyword(s.ID),
					headingStyle.Render(s.Title),
					faintStyle.Render(fmt.Sprintf("· %d lines · updated %s", s.LineCount(), humanize.Time(s.UpdatedAt))),
				)
			}
			return nil
		},
	}
)

func init() {
	scriptsCmd.Flags().StringVar(&scriptsDelete, "delete", "", "delete the saved script with this ID")
}
