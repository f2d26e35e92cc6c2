package ui

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/schedule"
)

func (a *App) askCmd() *cobra.Command {
	var (
		week   string
		dryRun bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [instruction]",
		Short: "Change a week from a plain-language instruction",
		Long: `Ask the configured model to rewrite the week from an instruction.

The generated week is checked before anything is stored: entries outside
the slot catalog are ignored and a week that breaks the rules (two entries
in one slot, a class without subject) is rejected as a whole.

Examples:
  campus ask "Add Mathematics on Monday 9-10 in A101"
  campus ask "Move Friday's lunch to 13:00" --week next
  campus ask "Cancel all classes on Wednesday" --dry-run

Interactive mode:
  After the proposal is shown, you can:
  - [a]ccept: Store the proposed week
  - [m]odify: Add to the instruction and ask again
  - [c]ancel: Exit without saving`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}
			instruction := strings.Join(args, " ")

			reader := bufio.NewReader(a.in)
			for {
				fmt.Fprintln(a.out, formatMuted("Generating schedule..."))
				p, err := a.engine.Propose(ctx, key, instruction, key.ClassroomID, a.teacherID)
				if p == nil {
					return err
				}
				PrintProposal(a.out, p)
				if err != nil {
					return err
				}

				if dryRun {
					fmt.Fprintln(a.out, "\n(Dry run - schedule not saved)")
					return nil
				}
				if len(p.Diff) == 0 {
					return nil
				}
				if yes || !isTerminal() {
					return a.commitProposal(cmd, p)
				}

				fmt.Fprint(a.out, "\n[a]ccept / [m]odify / [c]ancel: ")
				choice, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading input: %w", err)
				}

				switch strings.TrimSpace(strings.ToLower(choice)) {
				case "a", "accept":
					return a.commitProposal(cmd, p)

				case "m", "modify":
					fmt.Fprint(a.out, "What would you like to change? ")
					modification, err := reader.ReadString('\n')
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
					if modification = strings.TrimSpace(modification); modification != "" {
						instruction = instruction + ". Also: " + modification
					}

				case "c", "cancel":
					fmt.Fprintln(a.out, "Cancelled.")
					return nil

				default:
					fmt.Fprintln(a.out, "Invalid choice. Please enter 'a', 'm', or 'c'.")
				}
			}
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to change")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the proposal without saving")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Save an accepted proposal without asking")
	return cmd
}

// commitProposal stores p, reporting a week edited while generating.
func (a *App) commitProposal(cmd *cobra.Command, p *aimerge.Proposal) error {
	snap, err := a.engine.Commit(cmd.Context(), p)
	if errors.Is(err, schedule.ErrStaleRevision) {
		return fmt.Errorf("the week changed while generating, ask again: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\n%s week of %s (%d entries)\n", formatOK("Saved"), snap.Key.Date(), snap.Week.Len())
	return nil
}
