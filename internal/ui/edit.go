package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/schedule"
)

func (a *App) setCmd() *cobra.Command {
	var week string
	var entryType string
	var subject string
	var room string
	var notes string

	cmd := &cobra.Command{
		Use:   "set DAY SLOT",
		Short: "Place an entry in a slot",
		Long: `Place a class, break or lunch in a slot, replacing whatever was there.

DAY accepts a full or abbreviated weekday. SLOT accepts an hour ("9"),
a start time ("09:00") or the full slot ("09:00-10:00").

Example:
  campus set mon 9 --subject Mathematics --room A101
  campus set friday 12:00 --type lunch`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}

			c := a.engine.Catalog()
			entry := schedule.Entry{
				Day:      parseDay(c, args[0]),
				TimeSlot: parseSlot(c, args[1]),
				Type:     catalog.NormalizeType(entryType),
				Subject:  subject,
				Room:     room,
				Notes:    notes,
			}

			if _, err := a.engine.AddOrUpdate(ctx, key, entry); err != nil {
				return a.reportEditError(err)
			}
			fmt.Fprintf(a.out, "%s %s %s: %s\n", formatOK("Set"), entry.Day, entry.TimeSlot, formatEntry(entry))
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to edit")
	cmd.Flags().StringVarP(&entryType, "type", "t", schedule.TypeClass, "Entry type (class, break, lunch)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject (required for classes)")
	cmd.Flags().StringVarP(&room, "room", "r", "", "Room")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")
	return cmd
}

func (a *App) removeCmd() *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:     "remove DAY SLOT",
		Aliases: []string{"rm"},
		Short:   "Empty a slot",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}

			c := a.engine.Catalog()
			day, slot := parseDay(c, args[0]), parseSlot(c, args[1])
			before, err := a.engine.Get(ctx, key)
			if err != nil {
				return err
			}
			if _, err := a.engine.Remove(ctx, key, day, slot); err != nil {
				return a.reportEditError(err)
			}

			if _, ok := before.Week.Find(day, slot); !ok {
				fmt.Fprintf(a.out, "%s %s was already empty\n", day, slot)
				return nil
			}
			fmt.Fprintf(a.out, "%s %s %s\n", formatError("Removed"), day, slot)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to edit")
	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "move FROM_DAY FROM_SLOT TO_DAY TO_SLOT",
		Short: "Move an entry to another slot",
		Long: `Move an entry within the week. An entry already in the target slot
is replaced.

Example:
  campus move mon 9 wed 11`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}

			c := a.engine.Catalog()
			fromDay, fromSlot := parseDay(c, args[0]), parseSlot(c, args[1])
			toDay, toSlot := parseDay(c, args[2]), parseSlot(c, args[3])
			if _, err := a.engine.Move(ctx, key, fromDay, fromSlot, toDay, toSlot); err != nil {
				return a.reportEditError(err)
			}
			fmt.Fprintf(a.out, "%s %s %s -> %s %s\n", formatOK("Moved"), fromDay, fromSlot, toDay, toSlot)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to edit")
	return cmd
}

// reportEditError prints validation violations before returning err.
func (a *App) reportEditError(err error) error {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(a.out, formatError("Schedule not changed:"))
		PrintViolations(a.out, verr.Violations)
	}
	return err
}

// parseDay canonicalizes a weekday, leaving unknown input for the validator to report.
func parseDay(c *catalog.Catalog, s string) string {
	if day, ok := c.ParseDay(s); ok {
		return day
	}
	return s
}

// parseSlot canonicalizes a slot, leaving unknown input for the validator to report.
func parseSlot(c *catalog.Catalog, s string) string {
	if slot, ok := c.ParseSlot(s); ok {
		return slot
	}
	return s
}
