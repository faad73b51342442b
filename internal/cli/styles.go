package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/plan-review/internal/domain"
)

// Terminal palette.
var (
	colorPrimary = lipgloss.Color("#6C5CE7")
	colorMuted   = lipgloss.Color("#636E72")
	colorError   = lipgloss.Color("#D63031")
	colorSuccess = lipgloss.Color("#00B894")
	colorWarning = lipgloss.Color("#FDCB6E")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
)

// RenderError formats an error for the terminal.
func RenderError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

// writeFindings prints validation errors and warnings, one per line.
// Nothing is printed for a clean result unless showClean is set.
func writeFindings(w io.Writer, r domain.ValidationResult, showClean bool) {
	for _, e := range r.Errors {
		_, _ = fmt.Fprintln(w, errorStyle.Render("  error:   "+e))
	}
	for _, warn := range r.Warnings {
		_, _ = fmt.Fprintln(w, warningStyle.Render("  warning: "+warn))
	}
	if showClean && len(r.Errors) == 0 && len(r.Warnings) == 0 {
		_, _ = fmt.Fprintln(w, successStyle.Render("  no issues found"))
	}
}
