package loader

import "strings"

// AllCode is the sentinel country code of the synthetic "All" picker entry.
const AllCode = "all"

// Scope selects which totals the loader fetches: global, or one country.
// The zero value is Global.
type Scope struct {
	code string
}

// Global is the unscoped (worldwide) view.
var Global = Scope{}

// Country returns the scope for a country code. The "all" sentinel and the
// empty code map to Global.
func Country(code string) Scope {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, AllCode) {
		return Global
	}
	return Scope{code: code}
}

// IsGlobal reports whether s is the unscoped view.
func (s Scope) IsGlobal() bool {
	return s.code == ""
}

// Code is the country code passed to the API, empty for Global.
func (s Scope) Code() string {
	return s.code
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return s.code
}
