package views

import (
	"covidash/internal/collector"
	"covidash/ui/tui/state"
)

// ViewProps contains UI-specific properties provided by the Controller.
type ViewProps struct {
	Width, Height  int
	MouseX, MouseY int

	// Component States
	MenuCursor    int
	AnimCursor    float64
	SpinnerView   string
	BarView       string
	BreakdownView string
	ScrollY       int

	// Picker
	FilterView   string
	Matches      []collector.CountryRef
	PickerCursor int

	// Pre-rendered text report
	Content string
}

// View defines the contract for any renderable page in the TUI.
type View interface {
	Render(s state.AppState, props ViewProps) string
}
