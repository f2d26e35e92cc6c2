package view

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FooterViewState holds the strings needed to render the footer section.
type FooterViewState struct {
	InnerW     int
	FooterH    int
	FullFooter bool
	StatsLine  string
	LegendLine string
	PromptLine string
	StatusLine string
	HelpLine   string
	VAlign     lipgloss.Position
	Bg         lipgloss.Color
}

// FooterHeight returns the lines RenderFooter uses.
func FooterHeight(full bool) int {
	if full {
		return 5
	}
	return 2
}

// RenderFooter renders stats, legend, prompt, status, and help lines.
func RenderFooter(state FooterViewState) string {
	if state.FooterH <= 0 {
		return ""
	}

	var lines []string
	if state.FullFooter {
		lines = []string{state.StatsLine, state.LegendLine, state.PromptLine, state.StatusLine, state.HelpLine}
	} else {
		lines = []string{state.StatusLine, state.HelpLine}
	}

	return PlaceBox(state.InnerW, state.FooterH, state.VAlign, strings.Join(lines, "\n"), state.Bg)
}
