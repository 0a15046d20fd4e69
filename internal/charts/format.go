package charts

import (
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"covidash/internal/collector"
)

// Item keys to avoid hardcoded strings
const (
	KeyConfirmed  = "confirmed"
	KeyRecovered  = "recovered"
	KeyCritical   = "critical"
	KeyDeaths     = "deaths"
	KeyUnknown    = "unknown"
	KeyLastChange = "last_change"
	KeyLastUpdate = "last_update"
)

// Formatter renders counts with the digit grouping of a locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a formatter for the given locale.
func NewFormatter(tag language.Tag) Formatter {
	return Formatter{p: message.NewPrinter(tag)}
}

// ParseLocale returns a formatter for a BCP 47 tag such as "en" or "de-DE".
func ParseLocale(s string) (Formatter, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Formatter{}, err
	}
	return NewFormatter(tag), nil
}

var defaultFormatter = NewFormatter(language.English)

// DefaultFormatter groups digits the English way (1,234,567).
func DefaultFormatter() Formatter {
	return defaultFormatter
}

// Count formats n with locale grouping.
func (f Formatter) Count(n int64) string {
	if f.p == nil {
		return defaultFormatter.p.Sprintf("%d", n)
	}
	return f.p.Sprintf("%d", n)
}

// FormatCount formats n with English digit grouping.
func FormatCount(n int64) string {
	return defaultFormatter.Count(n)
}

// FormatMillions renders v divided by one million with the shortest exact
// representation (2500000 -> "2.5").
func FormatMillions(v float64) string {
	return strconv.FormatFloat(v/1e6, 'f', -1, 64)
}

// TotalText is the donut centre value.
func (c DonutChartConfig) TotalText(f Formatter) string {
	return f.Count(c.Total)
}

// ============================================================================
// SUMMARY VIEW MODEL
// ============================================================================

// Item is one labelled line of a summary. Text is preformatted.
type Item struct {
	Key   string
	Label string
	Value int64
	Text  string
	Color string
}

// Summary is the view model printed by the console report and shown next to
// the charts.
type Summary struct {
	Title string
	Items []Item
}

// BuildSummary converts one statistics record into display-ready items.
func BuildSummary(title string, r collector.StatisticsRecord, f Formatter) Summary {
	unknown := r.Confirmed - (r.Recovered + r.Deaths)
	items := []Item{
		{Key: KeyConfirmed, Label: SeriesCases, Value: r.Confirmed, Color: ColorCases},
		{Key: KeyRecovered, Label: SeriesRecovered, Value: r.Recovered, Color: ColorRecovered},
		{Key: KeyCritical, Label: "Critical", Value: r.Critical},
		{Key: KeyDeaths, Label: SeriesDeaths, Value: r.Deaths, Color: ColorDeaths},
		{Key: KeyUnknown, Label: SliceUnknown, Value: unknown, Color: ColorUnknown},
	}
	for i := range items {
		items[i].Text = f.Count(items[i].Value)
	}

	items = append(items,
		Item{Key: KeyLastChange, Label: "Last change", Text: formatTime(r.LastChange)},
		Item{Key: KeyLastUpdate, Label: "Last update", Text: formatTime(r.LastUpdate)},
	)

	return Summary{Title: title, Items: items}
}

// ItemByKey returns the item with the given key, or nil.
func (s Summary) ItemByKey(key string) *Item {
	for i := range s.Items {
		if s.Items[i].Key == key {
			return &s.Items[i]
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
