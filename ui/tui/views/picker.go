package views

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"covidash/internal/loader"
	"covidash/ui/tui/state"
	"covidash/ui/tui/styles"
)

// PickerZone is the bubblezone id of the i-th match.
func PickerZone(i int) string {
	return fmt.Sprintf("country_%d", i)
}

// PickerRows is how many matches fit below the filter input.
func PickerRows(height int) int {
	rows := height - 10
	if rows < 5 {
		rows = 5
	}
	return rows
}

// PickerWindow returns the first and one-past-last visible match index,
// keeping the cursor roughly centred.
func PickerWindow(total, cursor, rows int) (int, int) {
	start := cursor - rows/2
	if start > total-rows {
		start = total - rows
	}
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > total {
		end = total
	}
	return start, end
}

type PickerView struct{}

func (v PickerView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Select Country")

	if s.Countries == nil {
		body := props.SpinnerView + " loading countries..."
		if s.CountriesErr != nil {
			body = ErrorLine(s.CountriesErr)
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, lipgloss.NewStyle().Padding(1, 2).Render(body))
	}

	start, end := PickerWindow(len(props.Matches), props.PickerCursor, PickerRows(props.Height))

	var rows []string
	for i := start; i < end; i++ {
		c := props.Matches[i]
		dist := math.Abs(float64(i) - props.AnimCursor)

		style := lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#AAA"))
		marker := "  "
		if i == props.PickerCursor {
			style = style.Bold(true).Foreground(lipgloss.Color("#FFF"))
			marker = "› "
		}
		if dist < 1.0 {
			style = style.PaddingLeft(2 + int((1.0-dist)*2))
		}
		if loader.ScopeOf(c) == s.Scope {
			style = style.Foreground(styles.Highlight)
		}

		line := fmt.Sprintf("%s%-4s %s", marker, c.Alpha2Code, c.Display())
		rows = append(rows, zone.Mark(PickerZone(i), style.Render(line)))
	}
	if len(rows) == 0 {
		rows = append(rows, CopyStyle.Render("No country matches."))
	}

	footer := lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#555")).
		Render(fmt.Sprintf("%d/%d • [↑/↓] Move • [Enter] Select • [Esc] Back", len(props.Matches), len(s.Countries)))

	return zone.Scan(lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Padding(1, 2).Render(props.FilterView),
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		footer,
	))
}
