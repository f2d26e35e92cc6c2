package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/campus/internal/schedule"
	"github.com/javiermolinar/campus/internal/tui/theme"
)

const timeColWidth = 13

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	colorBg          lipgloss.Color
	colorBgHighlight lipgloss.Color
	colorBgSelection lipgloss.Color
	colorFg          lipgloss.Color
	colorFgMuted     lipgloss.Color
	colorAccent      lipgloss.Color
	colorWarning     lipgloss.Color

	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style

	// Grid headers
	DayHeaderStyle      lipgloss.Style
	DayHeaderTodayStyle lipgloss.Style
	TimeColumnStyle     lipgloss.Style
	BorderStyle         lipgloss.Style

	// Entry cells, indexed by entry type
	Entry       map[string]lipgloss.Style
	EntryCursor map[string]lipgloss.Style
	EntryMuted  map[string]lipgloss.Style

	EmptyCellStyle   lipgloss.Style
	CursorStyle      lipgloss.Style
	MoveSourceStyle  lipgloss.Style
	MoveTargetStyle  lipgloss.Style
	ChangedCellStyle lipgloss.Style

	// Footer
	StatsBarStyle lipgloss.Style
	LegendStyle   lipgloss.Style
	PromptStyle   lipgloss.Style
	StatusStyle   lipgloss.Style
	ErrorStyle    lipgloss.Style
	HelpStyle     lipgloss.Style

	// Proposal and confirm panels
	PanelTitleStyle lipgloss.Style
	PanelTextStyle  lipgloss.Style
	PanelHintStyle  lipgloss.Style
	PanelBorder     lipgloss.TerminalColor
	PanelWarnBorder lipgloss.TerminalColor

	AppStyle lipgloss.Style
}

// NewStyles creates a new Styles instance from a theme.
func NewStyles(t *theme.Theme) *Styles {
	s := &Styles{}
	palette := theme.NewPalette(t)

	s.colorBg = palette.Bg
	s.colorBgHighlight = palette.BgHighlight
	s.colorBgSelection = palette.BgSelection
	s.colorFg = palette.Fg
	s.colorFgMuted = palette.FgMuted
	s.colorAccent = palette.Accent
	s.colorWarning = palette.Warning

	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.colorAccent).
		Background(s.colorBg)

	s.SubtitleStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.DayHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Foreground(s.colorFg).
		Background(s.colorBg)

	s.DayHeaderTodayStyle = s.DayHeaderStyle.
		Foreground(s.colorAccent)

	s.TimeColumnStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg).
		Width(timeColWidth)

	s.BorderStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg)

	cell := lipgloss.NewStyle().Align(lipgloss.Left)
	entry := func(bg, fg lipgloss.Color) lipgloss.Style {
		return cell.Background(bg).Foreground(fg).Bold(true)
	}
	s.Entry = map[string]lipgloss.Style{
		schedule.TypeClass: entry(palette.ClassBg, palette.TextOnClass),
		schedule.TypeBreak: entry(palette.BreakBg, palette.TextOnBreak),
		schedule.TypeLunch: entry(palette.LunchBg, palette.TextOnLunch),
	}
	s.EntryCursor = map[string]lipgloss.Style{
		schedule.TypeClass: entry(palette.ClassBgAlt, s.colorFg).Underline(true),
		schedule.TypeBreak: entry(palette.BreakBgAlt, s.colorFg).Underline(true),
		schedule.TypeLunch: entry(palette.LunchBgAlt, s.colorFg).Underline(true),
	}
	// Entries a pending proposal leaves unchanged
	s.EntryMuted = map[string]lipgloss.Style{
		schedule.TypeClass: cell.Background(palette.ClassMutedBg).Foreground(s.colorFgMuted),
		schedule.TypeBreak: cell.Background(palette.BreakMutedBg).Foreground(s.colorFgMuted),
		schedule.TypeLunch: cell.Background(palette.LunchMutedBg).Foreground(s.colorFgMuted),
	}

	s.EmptyCellStyle = cell.
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.CursorStyle = cell.
		Background(s.colorBgSelection).
		Foreground(s.colorAccent).
		Bold(true)

	s.MoveSourceStyle = cell.
		Background(s.colorBgHighlight).
		Foreground(s.colorFgMuted).
		Italic(true)

	s.MoveTargetStyle = cell.
		Background(s.colorAccent).
		Foreground(palette.TextOnAccent).
		Bold(true)

	s.ChangedCellStyle = cell.
		Background(palette.Current).
		Foreground(palette.TextOnCurrent).
		Bold(true)

	s.StatsBarStyle = lipgloss.NewStyle().
		Foreground(s.colorFg).
		Background(s.colorBg)

	s.LegendStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.PromptStyle = lipgloss.NewStyle().
		Foreground(s.colorFg).
		Background(s.colorBgHighlight)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.colorAccent).
		Background(s.colorBg)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.colorWarning).
		Background(s.colorBg).
		Bold(true)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.colorFgMuted).
		Background(s.colorBg)

	s.PanelTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.colorAccent).
		Background(palette.Modal.Bg)

	s.PanelTextStyle = lipgloss.NewStyle().
		Foreground(palette.Modal.Text).
		Background(palette.Modal.Bg)

	s.PanelHintStyle = lipgloss.NewStyle().
		Foreground(palette.Modal.Muted).
		Background(palette.Modal.Bg)

	s.PanelBorder = palette.Modal.Border
	s.PanelWarnBorder = s.colorWarning

	s.AppStyle = lipgloss.NewStyle().
		Background(s.colorBg).
		Padding(0, 1)

	return s
}

// legendSwatch renders a colored sample for an entry type.
func (s *Styles) legendSwatch(entryType, label string) string {
	return s.Entry[entryType].Render(" "+label+" ") + s.LegendStyle.Render("  ")
}
