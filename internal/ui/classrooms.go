package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) classroomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "classrooms",
		Aliases: []string{"rooms"},
		Short:   "List configured classrooms and their stored weeks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.ensureEngine(ctx); err != nil {
				return err
			}

			rooms := a.engine.Classrooms()
			if len(rooms) == 0 {
				fmt.Fprintln(a.out, "No classrooms configured. Add [[classrooms]] entries with 'campus config'.")
				return nil
			}

			for _, r := range rooms {
				weeks, err := a.engine.ListWeeks(ctx, r.ID)
				if err != nil {
					return fmt.Errorf("listing weeks of %s: %w", r.ID, err)
				}

				line := fmt.Sprintf("  %-8s %s", r.ID, formatHeader(r.Title))
				if r.Subject != "" {
					line += "  " + formatMuted(r.Subject)
				}
				fmt.Fprintln(a.out, line)

				switch len(weeks) {
				case 0:
					fmt.Fprintf(a.out, "           %s\n", formatMuted("no stored weeks"))
				default:
					fmt.Fprintf(a.out, "           %s\n", formatMuted(fmt.Sprintf("%d weeks, %s to %s",
						len(weeks), weeks[0].Date(), weeks[len(weeks)-1].Date())))
				}
			}
			return nil
		},
	}
}
