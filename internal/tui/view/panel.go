package view

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// PanelViewState describes a bordered panel listing lines under a title.
type PanelViewState struct {
	Width       int
	MaxLines    int
	Title       string
	Lines       []string
	Hint        string
	TitleStyle  lipgloss.Style
	TextStyle   lipgloss.Style
	HintStyle   lipgloss.Style
	BorderColor lipgloss.TerminalColor
	Bg          lipgloss.Color
}

// RenderPanel renders the panel, eliding lines past MaxLines.
func RenderPanel(state PanelViewState) string {
	inner := max(state.Width-4, 1)

	lines := state.Lines
	if state.MaxLines > 0 && len(lines) > state.MaxLines {
		hidden := len(lines) - state.MaxLines + 1
		lines = append(append([]string(nil), lines[:state.MaxLines-1]...),
			"… "+strconv.Itoa(hidden)+" more")
	}

	body := make([]string, 0, len(lines)+3)
	body = append(body, state.TitleStyle.Render(Truncate(state.Title, inner)))
	for _, l := range lines {
		body = append(body, state.TextStyle.Render(Truncate(l, inner)))
	}
	if state.Hint != "" {
		body = append(body, "", state.HintStyle.Render(Truncate(state.Hint, inner)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(state.BorderColor).
		Background(state.Bg).
		Padding(0, 1).
		Width(max(state.Width-2, 1)).
		Render(strings.Join(body, "\n"))
}
