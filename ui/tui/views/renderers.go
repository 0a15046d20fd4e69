package views

import (
	"strings"

	"covidash/ui/tui/state"
)

func RenderMenu(s state.AppState, width, height, cursor int, animCursor float64, mouseX, mouseY int, spinnerView string) string {
	v := MenuView{}
	return v.Render(s, ViewProps{
		Width:       width,
		Height:      height,
		MenuCursor:  cursor,
		AnimCursor:  animCursor,
		MouseX:      mouseX,
		MouseY:      mouseY,
		SpinnerView: spinnerView,
	})
}

func RenderDashboard(s state.AppState, spinnerView, barView, breakdownView string) string {
	v := DashboardView{}
	return v.Render(s, ViewProps{
		SpinnerView:   spinnerView,
		BarView:       barView,
		BreakdownView: breakdownView,
	})
}

func RenderPicker(s state.AppState, props ViewProps) string {
	v := PickerView{}
	return v.Render(s, props)
}

func RenderReport(s state.AppState, report string, width, height, scrollY int) string {
	v := ConsoleView{Title: "Text Report"}
	return v.Render(s, ViewProps{
		Width:   width,
		Height:  height,
		ScrollY: scrollY,
		Content: report,
	})
}

func RenderActivity(s state.AppState, width, height, scrollY int) string {
	v := ConsoleView{Title: "Activity Log"}
	return v.Render(s, ViewProps{
		Width:   width,
		Height:  height,
		ScrollY: scrollY,
		Content: strings.Join(s.ActivityLog, "\n"),
	})
}
