package views

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"covidash/ui/tui/state"
	"covidash/ui/tui/styles"
)

type DashboardView struct{}

func (v DashboardView) Render(s state.AppState, props ViewProps) string {
	header := lipgloss.JoinHorizontal(lipgloss.Left,
		styles.TitleStyle.Render("covidash // "+s.Title()),
		StatusLine(s, props.SpinnerView),
	)

	if !s.HasStats {
		body := "Waiting for statistics..."
		if s.StatsErr != nil {
			body = ErrorLine(s.StatsErr)
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Render(props.SpinnerView+" "+body),
			lipgloss.NewStyle().Foreground(styles.Subtle).Render("\nPress 'b' to go back • 'q' to quit"),
		)
	}

	content := ""
	for _, item := range s.Summary.Items {
		valStr := lipgloss.NewStyle().Foreground(styles.ColorFor(item.Color)).Render(item.Text)
		content += fmt.Sprintf("%-15s : %s\n", item.Label, valStr)
	}

	summaryCol := zone.Mark("summary_box", styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(s.Summary.Title),
			content,
			ErrorLine(s.StatsErr),
		),
	))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, summaryCol, props.BarView)
	row2 := props.BreakdownView

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		row1,
		row2,
		lipgloss.NewStyle().Foreground(styles.Subtle).Render("\n[C] Country • [R] Refresh • [B] Back • [Q] Quit"),
	))
}
