package views

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"covidash/ui/tui/state"
	"covidash/ui/tui/styles"
)

// StatusLine renders the spinner, stale badge and last update for the header.
func StatusLine(s state.AppState, spinnerView string) string {
	var parts []string
	if s.Loading {
		parts = append(parts, spinnerView+" loading "+s.Scope.String())
	}
	if s.Stale() {
		parts = append(parts, styles.StaleBadge.Render("STALE"))
	}
	if !s.LastUpdate.IsZero() {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.ForegroundText).
			Render("Last Update: "+s.LastUpdate.Format("15:04:05")))
	}
	return strings.Join(parts, "  ")
}

// ErrorLine renders err in red, or nothing.
func ErrorLine(err error) string {
	if err == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(styles.DeathsColor).Render("Error: " + err.Error())
}
