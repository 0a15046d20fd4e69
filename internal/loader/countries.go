package loader

import (
	"strings"

	"covidash/internal/collector"
)

// AllEntry is the synthetic picker entry that selects the global view.
func AllEntry() collector.CountryRef {
	return collector.CountryRef{Name: "All", Alpha2Code: AllCode}
}

// WithAll returns a new list with the "All" entry prepended.
func WithAll(countries []collector.CountryRef) []collector.CountryRef {
	out := make([]collector.CountryRef, 0, len(countries)+1)
	out = append(out, AllEntry())
	return append(out, countries...)
}

// FilterCountries keeps the entries whose name starts with prefix, ignoring case.
// An empty prefix keeps everything. The input is never modified.
func FilterCountries(countries []collector.CountryRef, prefix string) []collector.CountryRef {
	p := strings.ToLower(prefix)
	out := make([]collector.CountryRef, 0, len(countries))
	for _, c := range countries {
		if strings.HasPrefix(strings.ToLower(c.Name), p) {
			out = append(out, c)
		}
	}
	return out
}

// ScopeOf maps a picker entry to the scope it selects.
func ScopeOf(c collector.CountryRef) Scope {
	return Country(c.Alpha2Code)
}
