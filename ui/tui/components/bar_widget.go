package components

import (
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"covidash/internal/charts"
	"covidash/ui/tui/styles"
)

// BarWidget draws the totals bar chart in the terminal.
type BarWidget struct {
	Chart  barchart.Model
	Config charts.BarChartConfig
	Width  int
	Height int
}

func NewBarWidget(width, height int) *BarWidget {
	return &BarWidget{
		Chart:  barchart.New(width, height),
		Width:  width,
		Height: height,
	}
}

func (b *BarWidget) Init() tea.Cmd {
	return nil
}

func (b *BarWidget) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return b, nil
}

// SetConfig replaces the plotted series and redraws.
func (b *BarWidget) SetConfig(cfg charts.BarChartConfig) {
	b.Config = cfg
	b.draw()
}

func (b *BarWidget) Resize(w, h int) {
	if w == b.Width && h == b.Height {
		return
	}
	b.Width = w
	b.Height = h
	b.Chart.Resize(w, h)
	b.draw()
}

func (b *BarWidget) draw() {
	b.Chart.Clear()
	data := make([]barchart.BarData, 0, len(b.Config.Series))
	for _, s := range b.Config.Series {
		if len(s.Data) == 0 {
			continue
		}
		v := s.Data[0]
		if v < 0 {
			v = 0
		}
		data = append(data, barchart.BarData{
			Label: shortLabel(s.Name),
			Values: []barchart.BarValue{{
				Name:  s.Name,
				Value: float64(v),
				Style: lipgloss.NewStyle().Foreground(styles.ColorFor(s.Color)),
			}},
		})
	}
	if len(data) == 0 {
		return
	}
	b.Chart.PushAll(data)
	b.Chart.Draw()
}

func (b *BarWidget) View() string {
	title := lipgloss.NewStyle().Bold(true).Render(charts.BarCategory)
	if b.Config.IsZero() {
		return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			lipgloss.NewStyle().Foreground(styles.ForegroundText).Render("no data yet"),
		))
	}

	var legend []string
	for _, s := range b.Config.Series {
		if len(s.Data) == 0 {
			continue
		}
		legend = append(legend, lipgloss.NewStyle().Foreground(styles.ColorFor(s.Color)).
			Render("■ "+s.Name+" "+b.Config.YLabel(float64(s.Data[0]))))
	}
	axis := lipgloss.NewStyle().Foreground(styles.ForegroundText).Italic(true).Render(b.Config.YAxisTitle)

	return styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		b.Chart.View(),
		axis,
		strings.Join(legend, "  "),
	))
}

// shortLabel keeps the last word so three bars fit under a narrow chart.
func shortLabel(name string) string {
	if i := strings.LastIndex(name, " "); i >= 0 {
		return name[i+1:]
	}
	return name
}
