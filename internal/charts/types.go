package charts

// Palette and labels shared by every renderer.
const (
	ColorCases      = "#0ea5e9"
	ColorRecovered  = "#22c55e"
	ColorDeaths     = "#ef4444"
	ColorUnknown    = "#52525b"
	ColorForeground = "#94a3b8"
	ColorGrid       = "#475569"

	BarCategory     = "Stats"
	SeriesCases     = "Total Cases"
	SeriesRecovered = "Total Recovered"
	SeriesDeaths    = "Total Deaths"
	BarYAxisTitle   = "Number in Million"

	SliceRecoveries  = "Recoveries"
	SliceDeaths      = "Deaths"
	SliceUnknown     = "Unknown"
	DonutCenterLabel = "Total Cases"
)

// Series is one named bar series; Data has one value per category.
type Series struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Data  []int64 `json:"data"`
}

// BarChartConfig describes the totals bar chart.
type BarChartConfig struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
	YAxisTitle string   `json:"y_axis_title"`
}

// IsZero reports whether nothing has been projected yet.
func (c BarChartConfig) IsZero() bool {
	return len(c.Series) == 0
}

// Values returns the first data point of every series, in series order.
func (c BarChartConfig) Values() []int64 {
	out := make([]int64, 0, len(c.Series))
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			out = append(out, s.Data[0])
		}
	}
	return out
}

// YLabel formats a y-axis tick. Display only.
func (c BarChartConfig) YLabel(v float64) string {
	return FormatMillions(v)
}

// Slice is one donut segment. Value may be negative when the source data is
// inconsistent; renderers clamp it.
type Slice struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Value int64  `json:"value"`
}

// DonutChartConfig describes the outcome breakdown donut.
type DonutChartConfig struct {
	Slices      []Slice `json:"slices"`
	CenterLabel string  `json:"center_label"`
	Total       int64   `json:"total"`
}

// IsZero reports whether nothing has been projected yet.
func (c DonutChartConfig) IsZero() bool {
	return len(c.Slices) == 0
}

// Values returns the slice values in order.
func (c DonutChartConfig) Values() []int64 {
	out := make([]int64, len(c.Slices))
	for i, s := range c.Slices {
		out[i] = s.Value
	}
	return out
}
