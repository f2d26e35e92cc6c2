package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/campus/internal/aimerge"
	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/summary"
	"github.com/javiermolinar/campus/internal/tui/input"
	"github.com/javiermolinar/campus/internal/tui/view"
)

const (
	titleHeight = 1
	minColWidth = 6
)

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	innerW := m.width - 2
	slots := len(m.catalog.AllSlots())
	gridH := view.GridHeight(slots)

	var bottom string
	switch {
	case m.mode == ModeProposal && m.proposal != nil:
		bottom = m.renderProposalPanel(innerW)
	case m.mode == ModeConfirm:
		bottom = view.RenderPanel(view.PanelViewState{
			Width:       innerW,
			Title:       "Confirm",
			Lines:       []string{m.confirm},
			Hint:        "y confirm · any other key cancels",
			TitleStyle:  m.styles.PanelTitleStyle,
			TextStyle:   m.styles.PanelTextStyle,
			HintStyle:   m.styles.PanelHintStyle,
			BorderColor: m.styles.PanelWarnBorder,
			Bg:          m.styles.colorBg,
		})
	default:
		full := m.height >= titleHeight+gridH+view.FooterHeight(true)
		bottom = view.RenderFooter(m.footerViewState(innerW, full))
	}

	if m.height < titleHeight+gridH+lipgloss.Height(bottom) || m.colWidth(innerW) < minColWidth {
		return "Terminal too small"
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(innerW),
		view.RenderTable(m.tableViewState(innerW, gridH)),
		bottom,
	)
	app := m.styles.AppStyle.Render(content)
	return view.PadLinesWithBackground(app, m.width, m.height, m.styles.colorBg)
}

func (m Model) renderTitle(width int) string {
	room := m.engine.Classroom(m.classroomID)
	end := m.key.WeekStart.AddDate(0, 0, 6)
	title := m.styles.TitleStyle.Render("campus")
	sub := fmt.Sprintf("  %s · %s to %s", room.Label(), m.key.Date(), end.Format("2006-01-02"))
	if room.Subject != "" {
		sub += " · " + room.Subject
	}
	switch {
	case m.busy:
		sub += "  " + m.spinner.View() + " generating"
	case m.loading:
		sub += "  loading…"
	}
	line := title + m.styles.SubtitleStyle.Render(sub)
	return view.PlaceBox(width, titleHeight, lipgloss.Top, line, m.styles.colorBg)
}

// colWidth returns the width of one day column.
func (m Model) colWidth(innerW int) int {
	days := len(m.catalog.AllDays())
	if days == 0 {
		return 0
	}
	// Table borders: one per column plus the outer edge.
	return (innerW - 2 - timeColWidth - (days + 1)) / days
}

// shownWeek is the week drawn in the grid: the proposal candidate while one
// is under review, the stored week otherwise.
func (m Model) shownWeek() schedule.Week {
	if m.mode == ModeProposal && m.proposal != nil {
		return m.proposal.Candidate
	}
	return m.snap.Week
}

func (m Model) tableViewState(innerW, gridH int) view.TableViewState {
	days, slots := m.catalog.AllDays(), m.catalog.AllSlots()
	week := m.shownWeek()
	colW := m.colWidth(innerW)

	headers, todayCols := view.HeaderLabels(m.key.WeekStart, m.now(), days)
	headerStyles := make([]lipgloss.Style, len(headers))
	headerStyles[0] = m.styles.TimeColumnStyle
	for i := 1; i < len(headers); i++ {
		if todayCols[i] {
			headerStyles[i] = m.styles.DayHeaderTodayStyle
		} else {
			headerStyles[i] = m.styles.DayHeaderStyle
		}
	}

	rows := make([][]string, len(slots))
	cellStyles := make([][]lipgloss.Style, len(slots))
	for s, slot := range slots {
		row := make([]string, 0, len(days)+1)
		styles := make([]lipgloss.Style, 0, len(days)+1)
		row = append(row, slot)
		styles = append(styles, m.styles.TimeColumnStyle)

		for d, day := range days {
			pos := Position{Day: d, Slot: s}
			entry, ok := week.Find(day, slot)
			text := ""
			if ok {
				text = view.Truncate(entry.Label(), colW)
			}
			row = append(row, text)
			styles = append(styles, m.cellStyle(pos, entry, ok))
		}
		rows[s] = row
		cellStyles[s] = styles
	}

	return view.TableViewState{
		InnerW:       innerW,
		GridH:        gridH,
		Headers:      headers,
		HeaderStyles: headerStyles,
		Content:      view.TableContent{Rows: rows, CellStyles: cellStyles},
		BorderStyle:  m.styles.BorderStyle,
		VAlign:       lipgloss.Top,
		Bg:           m.styles.colorBg,
		Render:       true,
	}
}

func (m Model) cellStyle(pos Position, entry schedule.Entry, ok bool) lipgloss.Style {
	cursor := pos == m.cursor && m.mode != ModeProposal

	switch {
	case m.moving != nil && pos == *m.moving:
		return m.styles.MoveSourceStyle
	case m.moving != nil && cursor:
		return m.styles.MoveTargetStyle
	case m.mode == ModeProposal && m.changed[pos]:
		return m.styles.ChangedCellStyle
	case !ok && cursor:
		return m.styles.CursorStyle
	case !ok:
		return m.styles.EmptyCellStyle
	case m.mode == ModeProposal:
		return m.styles.EntryMuted[entry.Type]
	case cursor:
		return m.styles.EntryCursor[entry.Type]
	default:
		return m.styles.Entry[entry.Type]
	}
}

func (m Model) footerViewState(innerW int, full bool) view.FooterViewState {
	return view.FooterViewState{
		InnerW:     innerW,
		FooterH:    view.FooterHeight(full),
		FullFooter: full,
		StatsLine:  m.renderStats(),
		LegendLine: m.renderLegend(),
		PromptLine: m.renderPrompt(innerW),
		StatusLine: m.renderStatus(),
		HelpLine:   m.renderHelp(innerW),
		VAlign:     lipgloss.Bottom,
		Bg:         m.styles.colorBg,
	}
}

func (m Model) renderStats() string {
	st := summary.WeekStats(m.snap.Week)
	text := fmt.Sprintf("%d classes · %d breaks · %d lunches", st.Classes, st.Breaks, st.Lunches)
	if day, n := st.BusiestDay(m.catalog); n > 0 {
		text += fmt.Sprintf(" · busiest %s (%d)", day, n)
	}
	if m.snap.Exists && !m.snap.UpdatedAt.IsZero() {
		text += " · saved " + m.snap.UpdatedAt.In(time.Local).Format("Jan 2 15:04")
	}
	return m.styles.StatsBarStyle.Render(text)
}

func (m Model) renderLegend() string {
	return m.styles.legendSwatch(schedule.TypeClass, "class") +
		m.styles.legendSwatch(schedule.TypeBreak, "break") +
		m.styles.legendSwatch(schedule.TypeLunch, "lunch")
}

func (m Model) renderPrompt(width int) string {
	if m.mode != ModePrompt {
		return m.styles.HelpStyle.Render(view.Truncate("a ask · / commands", width))
	}
	line := m.prompt.View()
	if matches := input.PromptMatchingCommands(m.prompt.Value(), input.Commands); len(matches) > 0 {
		names := make([]string, len(matches))
		for i, c := range matches {
			names[i] = c.Name
		}
		line += m.styles.HelpStyle.Render("  " + strings.Join(names, " "))
	}
	return line
}

func (m Model) renderStatus() string {
	if m.statusMsg == "" {
		return ""
	}
	if m.statusErr {
		return m.styles.ErrorStyle.Render(m.statusMsg)
	}
	return m.styles.StatusStyle.Render(m.statusMsg)
}

func (m Model) renderHelp(width int) string {
	var help string
	switch {
	case m.mode == ModePrompt:
		help = "enter submit · tab complete · esc cancel"
	case m.moving != nil:
		help = "hjkl pick slot · m drop · esc cancel"
	default:
		help = "hjkl move · H/L week · t today · a ask · e class · b break · u lunch · x remove · m move · y yank · C copy · X clear · tab room · q quit"
	}
	return m.styles.HelpStyle.Render(view.Truncate(help, width))
}

func (m Model) renderProposalPanel(width int) string {
	p := m.proposal
	var title, hint string
	var lines []string
	border := m.styles.PanelBorder

	switch p.Outcome {
	case aimerge.OutcomeAccepted:
		title = fmt.Sprintf("Proposed changes (%d)", len(p.Diff))
		for _, c := range p.Diff {
			lines = append(lines, c.String())
		}
		if len(p.Diff) == 0 {
			lines = append(lines, "No changes to the schedule.")
		}
		hint = "enter accept · m modify · esc discard"
	case aimerge.OutcomeRejected:
		title = "Generated schedule rejected"
		for _, v := range p.Violations {
			lines = append(lines, "✗ "+v.String())
		}
		hint = "m modify · esc close"
		border = m.styles.PanelWarnBorder
	default:
		title = "Generation failed"
		lines = append(lines, "The schedule was not changed.")
		hint = "m retry · esc close"
		border = m.styles.PanelWarnBorder
	}
	for _, d := range p.Dropped {
		lines = append(lines, "ignored "+d.String())
	}
	for _, w := range p.Warnings {
		lines = append(lines, "! "+w)
	}

	maxLines := max(m.height-titleHeight-view.GridHeight(len(m.catalog.AllSlots()))-5, 1)
	return view.RenderPanel(view.PanelViewState{
		Width:       width,
		MaxLines:    maxLines,
		Title:       title,
		Lines:       lines,
		Hint:        hint,
		TitleStyle:  m.styles.PanelTitleStyle,
		TextStyle:   m.styles.PanelTextStyle,
		HintStyle:   m.styles.PanelHintStyle,
		BorderColor: border,
		Bg:          m.styles.colorBg,
	})
}
