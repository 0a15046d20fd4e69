package views

import (
	"strings"
	"testing"

	zone "github.com/lrstanley/bubblezone"

	"covidash/internal/collector"
	"covidash/internal/loader"
	"covidash/ui/tui/state"
)

func TestPickerWindow(t *testing.T) {
	tests := []struct {
		name                string
		total, cursor, rows int
		wantStart, wantEnd  int
	}{
		{"fewer than rows", 3, 2, 5, 0, 3},
		{"cursor at top", 20, 0, 5, 0, 5},
		{"cursor centred", 20, 10, 5, 8, 13},
		{"cursor at bottom", 20, 19, 5, 15, 20},
		{"empty", 0, 0, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PickerWindow(tt.total, tt.cursor, tt.rows)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("PickerWindow(%d, %d, %d) = %d, %d; want %d, %d",
					tt.total, tt.cursor, tt.rows, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPickerView_Render(t *testing.T) {
	zone.NewGlobal()

	countries := loader.WithAll([]collector.CountryRef{
		{Name: "Germany", Alpha2Code: "DE"},
		{Name: "Ghana", Alpha2Code: "GH"},
	})
	s := state.AppState{Countries: countries, Scope: loader.Country("DE")}
	props := ViewProps{Width: 80, Height: 30, Matches: countries, PickerCursor: 1}

	out := PickerView{}.Render(s, props)
	for _, want := range []string{"Select Country", "Germany", "Ghana", "3/3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected picker to contain %q", want)
		}
	}

	props.Matches = nil
	if out := (PickerView{}).Render(s, props); !strings.Contains(out, "No country matches.") {
		t.Error("Expected the empty-match message")
	}

	s.Countries = nil
	props.SpinnerView = "*"
	if out := (PickerView{}).Render(s, props); !strings.Contains(out, "loading countries") {
		t.Error("Expected the loading message before the country list arrives")
	}
}
