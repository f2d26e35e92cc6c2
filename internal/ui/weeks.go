package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) copyCmd() *cobra.Command {
	var from string
	var to string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy a week onto another week",
		Long: `Overwrite the target week of the selected classroom with a copy of
the source week. The target's previous entries are discarded.

Example:
  campus copy --from this --to next
  campus copy --from 2025-03-10 --to +3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			src, err := a.weekKey(ctx, from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			dst, err := a.engine.ResolveKey(src.ClassroomID, to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			snap, err := a.engine.CopyWeek(ctx, src.ClassroomID, src.WeekStart, dst.WeekStart)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s week of %s to week of %s (%d entries)\n",
				formatOK("Copied"), src.Date(), dst.Date(), snap.Week.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "this", "Source week")
	cmd.Flags().StringVar(&to, "to", "next", "Target week")
	return cmd
}

func (a *App) copyDayCmd() *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "copy-day FROM_DAY TO_DAY",
		Short: "Copy one day's entries onto another day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}

			c := a.engine.Catalog()
			fromDay, toDay := parseDay(c, args[0]), parseDay(c, args[1])
			snap, err := a.engine.CopyDay(ctx, key, fromDay, toDay)
			if err != nil {
				return a.reportEditError(err)
			}
			fmt.Fprintf(a.out, "%s %s to %s (%d entries)\n", formatOK("Copied"), fromDay, toDay, len(snap.Week[toDay]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to edit")
	return cmd
}

func (a *App) clearCmd() *cobra.Command {
	var week string
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry of a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}

			if !yes && isTerminal() && !promptYesNo(fmt.Sprintf("Clear the week of %s for %s?", key.Date(), key.ClassroomID)) {
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			if _, err := a.engine.Clear(ctx, key); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s week of %s\n", formatError("Cleared"), key.Date())
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to clear")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
