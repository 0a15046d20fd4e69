package charts

import (
	"sync"

	"covidash/internal/collector"
)

// ProjectBar maps the first record to the totals bar chart.
// Nil or empty input returns prev unchanged.
func ProjectBar(prev BarChartConfig, records []collector.StatisticsRecord) BarChartConfig {
	if len(records) == 0 {
		return prev
	}
	r := records[0]
	return BarChartConfig{
		Categories: []string{BarCategory},
		Series: []Series{
			{Name: SeriesCases, Color: ColorCases, Data: []int64{r.Confirmed}},
			{Name: SeriesRecovered, Color: ColorRecovered, Data: []int64{r.Recovered}},
			{Name: SeriesDeaths, Color: ColorDeaths, Data: []int64{r.Deaths}},
		},
		YAxisTitle: BarYAxisTitle,
	}
}

// ProjectDonut maps the first record to the recovered / deaths / unknown donut.
// Unknown is confirmed minus recovered and deaths, so the slices always sum to
// confirmed. Nil or empty input returns prev unchanged.
func ProjectDonut(prev DonutChartConfig, records []collector.StatisticsRecord) DonutChartConfig {
	if len(records) == 0 {
		return prev
	}
	r := records[0]
	return DonutChartConfig{
		Slices: []Slice{
			{Label: SliceRecoveries, Color: ColorRecovered, Value: r.Recovered},
			{Label: SliceDeaths, Color: ColorDeaths, Value: r.Deaths},
			{Label: SliceUnknown, Color: ColorUnknown, Value: r.Confirmed - (r.Recovered + r.Deaths)},
		},
		CenterLabel: DonutCenterLabel,
		Total:       r.Confirmed,
	}
}

// Projector keeps the last projected configs so a consumer can feed it every
// statistics emission, empty ones included.
type Projector struct {
	mu    sync.RWMutex
	bar   BarChartConfig
	donut DonutChartConfig
}

// Apply projects records over the current configs and returns the result.
func (p *Projector) Apply(records []collector.StatisticsRecord) (BarChartConfig, DonutChartConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = ProjectBar(p.bar, records)
	p.donut = ProjectDonut(p.donut, records)
	return p.bar, p.donut
}

// Bar returns the current bar chart config.
func (p *Projector) Bar() BarChartConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bar
}

// Donut returns the current donut chart config.
func (p *Projector) Donut() DonutChartConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.donut
}
