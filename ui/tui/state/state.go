package state

import (
	"time"

	"covidash/internal/charts"
	"covidash/internal/collector"
	"covidash/internal/loader"
)

type Page int

const (
	PageMenu      Page = iota
	PageDashboard      // "Statistics Dashboard"
	PagePicker         // "Select Country"
	PageReport         // "Text Report"
	PageActivity       // "Activity Log"
)

// AppState holds the latest loader emissions and what was derived from them.
type AppState struct {
	Countries    []collector.CountryRef
	CountriesErr error

	Stats    loader.Statistics
	HasStats bool
	StatsErr error

	Summary charts.Summary
	Bar     charts.BarChartConfig
	Donut   charts.DonutChartConfig

	// Loading is set while a fetch for Scope is outstanding.
	Loading     bool
	Scope       loader.Scope
	LastUpdate  time.Time
	ActivityLog []string
	CurrentPage Page
}

// Stale reports whether the shown statistics survived a failed refresh.
func (s AppState) Stale() bool {
	return s.HasStats && s.StatsErr != nil
}

// Title names the shown scope.
func (s AppState) Title() string {
	return s.Stats.Title()
}
