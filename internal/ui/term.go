package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/campus/internal/schedule"
)

// Color definitions for consistent styling across the CLI.
var (
	// Classes: bold cyan
	colorClass = color.New(color.FgCyan, color.Bold)

	// Breaks: green
	colorBreak = color.New(color.FgGreen)

	// Lunch: yellow
	colorLunch = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Errors and removals: red
	colorError = color.New(color.FgRed)

	// Additions and success: green
	colorOK = color.New(color.FgGreen, color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

// isTerminal reports whether stdout is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatEntry colors an entry label by type.
func formatEntry(e schedule.Entry) string {
	switch e.Type {
	case schedule.TypeClass:
		return colorClass.Sprint(e.Label())
	case schedule.TypeBreak:
		return colorBreak.Sprint(e.Label())
	case schedule.TypeLunch:
		return colorLunch.Sprint(e.Label())
	default:
		return e.Label()
	}
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatError formats text as an error.
func formatError(s string) string {
	return colorError.Sprint(s)
}

// formatOK formats text as a success.
func formatOK(s string) string {
	return colorOK.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
