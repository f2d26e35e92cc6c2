package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/summary"
)

func (a *App) showCmd() *cobra.Command {
	var week string
	var list bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a classroom's week",
		Long: `Display the weekly schedule of the selected classroom as a grid.

The week can be "this", "next", "last", an offset such as "+2" or any
date inside the week (YYYY-MM-DD).

Example:
  campus show --classroom 7a --week next`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}

			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}
			return a.printWeek(ctx, key, list)
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to show")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List entries per day instead of a grid")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	return cmd
}

// printWeek loads and prints one classroom week.
func (a *App) printWeek(ctx context.Context, key schedule.WeekKey, list bool) error {
	snap, err := a.engine.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading week: %w", err)
	}

	c := a.engine.Catalog()
	room := a.engine.Classroom(key.ClassroomID)
	sum := summary.SummarizeWeek(snap)
	fmt.Fprintf(a.out, "\n  %s  %s\n\n",
		formatHeader(room.Label()),
		formatMuted(fmt.Sprintf("%s - %s", sum.Start.Format("Mon Jan 2"), sum.End.Format("Mon Jan 2, 2006"))),
	)

	if snap.Week.IsEmpty() {
		fmt.Fprintln(a.out, "  Nothing scheduled for this week.")
		return nil
	}

	width := termWidth()
	if list || width < 80 || !isTerminal() {
		PrintWeekList(a.out, c, snap.Week)
	} else {
		fmt.Fprintln(a.out, RenderWeekGrid(c, snap.Week, width))
	}
	fmt.Fprintln(a.out)
	PrintStats(a.out, c, sum.Stats)
	return nil
}
