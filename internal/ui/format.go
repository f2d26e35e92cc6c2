package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/catalog"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/summary"
)

// PrintStats writes a one-line summary of s.
func PrintStats(w io.Writer, c *catalog.Catalog, s summary.Stats) {
	fmt.Fprintf(w, "  %d classes, %d breaks, %d lunches", s.Classes, s.Breaks, s.Lunches)
	if day, n := s.BusiestDay(c); n > 0 {
		fmt.Fprintf(w, " · busiest: %s (%d)", day, n)
	}
	fmt.Fprintln(w)

	top := s.TopSubjects()
	if len(top) > 4 {
		top = top[:4]
	}
	if len(top) > 0 {
		parts := make([]string, len(top))
		for i, name := range top {
			parts[i] = fmt.Sprintf("%s %dh", name, s.Subjects[name])
		}
		fmt.Fprintf(w, "  %s\n", formatMuted(strings.Join(parts, ", ")))
	}
}

// PrintWeekList writes the week day by day, skipping empty days.
func PrintWeekList(w io.Writer, c *catalog.Catalog, week schedule.Week) {
	first := true
	for _, day := range c.AllDays() {
		entries := week.Sorted(c, day)
		if len(entries) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		fmt.Fprintf(w, "  %s\n", formatHeader(day))
		for _, e := range entries {
			line := fmt.Sprintf("    %s  %s", e.TimeSlot, formatEntry(e))
			if e.Notes != "" {
				line += "  " + formatMuted(e.Notes)
			}
			fmt.Fprintln(w, line)
		}
	}
}

// RenderWeekGrid renders the week as a slot-by-day table fitting width.
func RenderWeekGrid(c *catalog.Catalog, week schedule.Week, width int) string {
	days := c.AllDays()
	slots := c.AllSlots()

	// slot column plus one column per day, with borders
	cellW := (width - 13 - len(days) - 1) / len(days)
	if cellW < 3 {
		cellW = 3
	}

	headers := make([]string, 0, len(days)+1)
	headers = append(headers, "")
	for _, d := range days {
		headers = append(headers, d[:3])
	}

	rows := make([][]string, 0, len(slots))
	for _, slot := range slots {
		row := make([]string, 0, len(days)+1)
		row = append(row, slot)
		for _, d := range days {
			e, ok := week.Find(d, slot)
			if !ok {
				row = append(row, "")
				continue
			}
			e.Subject = truncate(e.Subject, cellW)
			if len(e.Label()) > cellW {
				e.Room = ""
			}
			row = append(row, formatEntry(e))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderRow(false).
		BorderColumn(true).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle()
			if row == table.HeaderRow {
				return s.Bold(true).Align(lipgloss.Center)
			}
			if col > 0 {
				return s.Width(cellW)
			}
			return s
		})
	return t.Render()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// PrintViolations writes validation violations, one per line.
func PrintViolations(w io.Writer, violations []schedule.Violation) {
	for _, v := range violations {
		fmt.Fprintf(w, "  %s %s\n", formatError("✗"), v)
	}
}

// PrintProposal writes what a generated schedule would change and why it
// was or was not accepted.
func PrintProposal(w io.Writer, p *aimerge.Proposal) {
	switch p.Outcome {
	case aimerge.OutcomeAccepted:
		if len(p.Diff) == 0 {
			fmt.Fprintln(w, "No changes.")
		}
		for _, ch := range p.Diff {
			fmt.Fprintf(w, "  %s\n", formatChange(ch))
		}
	case aimerge.OutcomeRejected:
		fmt.Fprintln(w, formatError("Generated schedule was rejected; nothing was stored."))
		PrintViolations(w, p.Violations)
	case aimerge.OutcomeGenerationFailed:
		fmt.Fprintln(w, formatError("Schedule generation failed; nothing was stored."))
	}

	if len(p.Dropped) > 0 {
		fmt.Fprintf(w, "\n  %s\n", formatHeader(fmt.Sprintf("Ignored %d generated entries:", len(p.Dropped))))
		for _, d := range p.Dropped {
			fmt.Fprintf(w, "    %s\n", formatMuted(d.String()))
		}
	}
	if len(p.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warn := range p.Warnings {
			fmt.Fprintf(w, "  %s %s\n", colorLunch.Sprint("!"), warn)
		}
	}
}

func formatChange(ch aimerge.Change) string {
	switch ch.Kind {
	case aimerge.ChangeAdded:
		return formatOK(ch.String())
	case aimerge.ChangeRemoved:
		return formatError(ch.String())
	default:
		return colorLunch.Sprint(ch.String())
	}
}
