package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"covidash/internal/charts"
	"covidash/internal/collector"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Report is what `covidash report` prints.
type Report struct {
	Summary   charts.Summary
	FetchedAt time.Time
	// Err marks the summary as stale: the last refresh failed.
	Err error
}

// Print renders the report to the writer in a compact format.
func Print(w io.Writer, r Report) {
	fmt.Fprintf(w, "%s%s %s%s\n", colorCyan, "■", "COVIDASH REPORT", colorReset)
	fmt.Fprintf(w, "%s%s%s\n", colorCyan, "─ "+r.Summary.Title, colorReset)

	for _, it := range r.Summary.Items {
		label := it.Label
		if len(label) > 20 {
			label = label[:17] + "..."
		}

		// Dots leader
		dots := strings.Repeat("·", 22-len(label))

		// Format: "  Label............... Value"
		fmt.Fprintf(w, "  %s%s %s%14s%s\n", label, colorCyan+dots+colorReset, colorFor(it.Key), it.Text, colorReset)
	}

	fetched := "never"
	if !r.FetchedAt.IsZero() {
		fetched = r.FetchedAt.Format(time.RFC3339)
	}
	status := colorGreen + "fresh" + colorReset
	if r.Err != nil {
		status = fmt.Sprintf("%sstale%s (%v)", colorYellow, colorReset, r.Err)
	}
	fmt.Fprintf(w, "%s─ Fetched%s: %s | %s\n\n", colorCyan, colorReset, fetched, status)
}

// PrintCountries lists picker entries as "CODE  Name".
func PrintCountries(w io.Writer, countries []collector.CountryRef) {
	for _, c := range countries {
		fmt.Fprintf(w, "%s%-4s%s %s\n", colorGray, c.Alpha2Code, colorReset, c.Display())
	}
	fmt.Fprintf(w, "%s─ %d entries%s\n", colorCyan, len(countries), colorReset)
}

func colorFor(key string) string {
	switch key {
	case charts.KeyConfirmed:
		return colorCyan
	case charts.KeyRecovered:
		return colorGreen
	case charts.KeyDeaths, charts.KeyCritical:
		return colorRed
	case charts.KeyUnknown, charts.KeyLastChange, charts.KeyLastUpdate:
		return colorGray
	default:
		return colorReset
	}
}
