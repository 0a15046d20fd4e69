package styles

import (
	"github.com/charmbracelet/lipgloss"

	"covidash/internal/charts"
)

var (
	Subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	Highlight = lipgloss.AdaptiveColor{Light: "#0284c7", Dark: "#0ea5e9"}
	Special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	Warning   = lipgloss.Color("220")

	CasesColor     = lipgloss.Color(charts.ColorCases)
	RecoveredColor = lipgloss.Color(charts.ColorRecovered)
	DeathsColor    = lipgloss.Color(charts.ColorDeaths)
	UnknownColor   = lipgloss.Color(charts.ColorUnknown)
	ForegroundText = lipgloss.Color(charts.ColorForeground)

	TitleStyle = lipgloss.NewStyle().
			MarginLeft(1).
			MarginRight(5).
			Padding(0, 1).
			Italic(true).
			Foreground(lipgloss.Color("#FFF7DB"))

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Highlight).
			Padding(1, 2).
			Margin(1, 1)

	StatusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFF"))

	StaleBadge = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("#000")).
			Background(Warning)
)

// ColorFor maps a summary item colour to a lipgloss colour.
func ColorFor(hex string) lipgloss.TerminalColor {
	if hex == "" {
		return ForegroundText
	}
	return lipgloss.Color(hex)
}
