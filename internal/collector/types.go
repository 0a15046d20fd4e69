package collector

import (
	"context"
	"time"
)

// ============================================================================
// DATA STRUCTURES
// ============================================================================

// CountryRef is one entry of the remote country list.
type CountryRef struct {
	Name       string   `json:"name"`
	Alpha2Code string   `json:"alpha2code"`
	Alpha3Code string   `json:"alpha3code,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// Display returns the label shown in pickers and reports.
func (c CountryRef) Display() string {
	return c.Name
}

// StatisticsRecord is a totals snapshot, either global or for one country.
type StatisticsRecord struct {
	Country    string    `json:"country"`
	Code       string    `json:"code"`
	Confirmed  int64     `json:"confirmed"`
	Recovered  int64     `json:"recovered"`
	Critical   int64     `json:"critical"`
	Deaths     int64     `json:"deaths"`
	LastChange time.Time `json:"lastChange"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// ============================================================================
// INTERFACE DEFINITION
// ============================================================================

// StatsProvider defines the contract for the remote statistics source.
type StatsProvider interface {
	// FetchCountries returns the full country list.
	FetchCountries(ctx context.Context) ([]CountryRef, error)
	// FetchTotals returns the totals for code, or the global totals when code is empty.
	FetchTotals(ctx context.Context, code string) ([]StatisticsRecord, error)
}
