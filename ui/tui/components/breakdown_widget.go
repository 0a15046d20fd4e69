package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"covidash/internal/charts"
	"covidash/ui/tui/styles"
)

// BreakdownWidget is the terminal stand-in for the donut chart: one stacked
// bar split by slice share, a legend, and the centre total.
type BreakdownWidget struct {
	Config  charts.DonutChartConfig
	Numbers charts.Formatter
	Width   int
}

func NewBreakdownWidget(width int, numbers charts.Formatter) *BreakdownWidget {
	return &BreakdownWidget{Width: width, Numbers: numbers}
}

func (d *BreakdownWidget) Init() tea.Cmd {
	return nil
}

func (d *BreakdownWidget) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return d, nil
}

func (d *BreakdownWidget) SetConfig(cfg charts.DonutChartConfig) {
	d.Config = cfg
}

func (d *BreakdownWidget) Resize(w int) {
	d.Width = w
}

// Cells splits width into per-slice cell counts. Negative slices get none.
func Cells(values []int64, width int) []int {
	cells := make([]int, len(values))
	var total int64
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	if total == 0 || width <= 0 {
		return cells
	}
	used := 0
	largest := -1
	for i, v := range values {
		if v <= 0 {
			continue
		}
		cells[i] = int(int64(width) * v / total)
		used += cells[i]
		if largest < 0 || v > values[largest] {
			largest = i
		}
	}
	// rounding remainder goes to the largest slice
	cells[largest] += width - used
	return cells
}

func (d *BreakdownWidget) View() string {
	title := lipgloss.NewStyle().Bold(true).Render(d.Config.CenterLabel)
	if d.Config.IsZero() {
		return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render(charts.DonutCenterLabel),
			lipgloss.NewStyle().Foreground(styles.ForegroundText).Render("no data yet"),
		))
	}

	width := d.Width
	if width < 10 {
		width = 10
	}
	cells := Cells(d.Config.Values(), width)

	var bar strings.Builder
	var legend []string
	for i, s := range d.Config.Slices {
		style := lipgloss.NewStyle().Foreground(styles.ColorFor(s.Color))
		bar.WriteString(style.Render(strings.Repeat("█", cells[i])))
		legend = append(legend, style.Render(fmt.Sprintf("■ %-10s %s", s.Label, d.Numbers.Count(s.Value))))
	}

	total := lipgloss.NewStyle().Bold(true).Foreground(styles.CasesColor).Render(d.Config.TotalText(d.Numbers))

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Left, title, " ", total),
		"",
		bar.String(),
		"",
		lipgloss.JoinVertical(lipgloss.Left, legend...),
	))
}
