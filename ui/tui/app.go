package tui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/sirupsen/logrus"

	"covidash/internal/charts"
	"covidash/internal/collector"
	"covidash/internal/loader"
	"covidash/ui/console"
	"covidash/ui/tui/components"
	"covidash/ui/tui/state"
	"covidash/ui/tui/views"
)

const maxActivityLines = 100

// Options carries what the TUI needs besides the loader.
type Options struct {
	Numbers charts.Formatter
	Log     *logrus.Entry
	// Refresher, when set, is started after the initial load and stopped on quit.
	Refresher *loader.Refresher
}

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	loader    *loader.Loader
	refresher *loader.Refresher
	numbers   charts.Formatter
	log       *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	countriesSub *loader.Subscription[[]collector.CountryRef]
	statsSub     *loader.Subscription[loader.Statistics]
	projector    charts.Projector

	state          state.AppState
	spinner        spinner.Model
	filter         textinput.Model
	bar            *components.BarWidget
	breakdown      *components.BreakdownWidget
	menuCursor     int
	pickerCursor   int
	animCursor     float64
	velocity       float64 // Physics velocity
	spring         harmonica.Spring
	consoleScrollY int
	mouseX         int
	mouseY         int
	quitting       bool
	width          int
	height         int
}

// Messages
type AnimateMsg time.Time

// CountriesMsg is one emission of the loader's country list.
type CountriesMsg loader.Event[[]collector.CountryRef]

// StatisticsMsg is one emission of the loader's statistics.
type StatisticsMsg loader.Event[loader.Statistics]

// InitialLoadedMsg reports the end of the startup sequence.
type InitialLoadedMsg struct {
	Err error
}

// RefreshDoneMsg reports the end of a manual refresh.
type RefreshDoneMsg struct {
	Err error
}

func InitialModel(l *loader.Loader, opts Options) *MainModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	ti := textinput.New()
	ti.Placeholder = "Country name"
	ti.Prompt = "Filter › "
	ti.CharLimit = 64

	// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &MainModel{
		loader:       l,
		refresher:    opts.Refresher,
		numbers:      opts.Numbers,
		log:          log.WithField("component", "tui"),
		ctx:          ctx,
		cancel:       cancel,
		countriesSub: l.Countries().Subscribe(),
		statsSub:     l.Statistics().Subscribe(),
		spinner:      s,
		filter:       ti,
		bar:          components.NewBarWidget(30, 10),
		breakdown:    components.NewBreakdownWidget(40, opts.Numbers),
		spring:       spring,
		state: state.AppState{
			Loading:     true,
			Scope:       l.Scope(),
			CurrentPage: state.PageMenu,
		},
	}
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	return tea.Batch(
		m.spinner.Tick,
		animateCmd(),
		loadInitialCmd(m.ctx, m.loader),
		listen(m.countriesSub, func(ev loader.Event[[]collector.CountryRef]) tea.Msg { return CountriesMsg(ev) }),
		listen(m.statsSub, func(ev loader.Event[loader.Statistics]) tea.Msg { return StatisticsMsg(ev) }),
	)
}

// Close stops background work owned by the model. The loader itself belongs
// to the caller.
func (m *MainModel) Close() {
	m.cancel()
	if m.refresher != nil {
		m.refresher.Stop()
	}
	m.countriesSub.Close()
	m.statsSub.Close()
}

// Commands
func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func loadInitialCmd(ctx context.Context, l *loader.Loader) tea.Cmd {
	return func() tea.Msg {
		_, err := l.LoadInitial(ctx)
		return InitialLoadedMsg{Err: err}
	}
}

func refreshCmd(ctx context.Context, l *loader.Loader) tea.Cmd {
	return func() tea.Msg {
		return RefreshDoneMsg{Err: l.Refresh(ctx)}
	}
}

// listen waits for the next event of sub. A closed subscription yields no message.
func listen[T any](sub *loader.Subscription[T], wrap func(loader.Event[T]) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		if !ok {
			return nil
		}
		return wrap(ev)
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case CountriesMsg:
		return m.handleCountriesMsg(msg)

	case StatisticsMsg:
		return m.handleStatisticsMsg(msg)

	case InitialLoadedMsg:
		return m.handleInitialLoadedMsg(msg)

	case RefreshDoneMsg:
		if msg.Err != nil && !errors.Is(msg.Err, loader.ErrSuperseded) {
			m.logf("refresh failed: %v", msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	if m.state.CurrentPage == state.PagePicker {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.state.CurrentPage == state.PagePicker {
		return m.handlePickerKey(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m, m.refresh()
	}

	switch m.state.CurrentPage {
	case state.PageMenu:
		switch msg.String() {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < len(views.MenuOptions)-1 {
				m.menuCursor++
			}
		case "enter":
			return m, m.navigateTo(m.menuCursor)
		}
		return m, nil

	case state.PageDashboard:
		if msg.String() == "c" {
			return m, m.navigateTo(1)
		}

	case state.PageReport, state.PageActivity:
		switch msg.String() {
		case "up", "k":
			if m.consoleScrollY > 0 {
				m.consoleScrollY--
			}
		case "down", "j":
			m.consoleScrollY++
		}
	}

	if msg.String() == "b" || msg.String() == "esc" || msg.String() == "backspace" {
		m.back()
	}
	return m, nil
}

func (m *MainModel) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	matches := m.matches()
	switch msg.String() {
	case "esc":
		m.back()
		return m, nil
	case "up":
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
		return m, nil
	case "down":
		if m.pickerCursor < len(matches)-1 {
			m.pickerCursor++
		}
		return m, nil
	case "enter":
		if len(matches) == 0 {
			return m, nil
		}
		m.selectCountry(matches[m.pickerCursor])
		return m, nil
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.pickerCursor = 0
	}
	return m, cmd
}

func (m *MainModel) navigateTo(cursor int) tea.Cmd {
	m.consoleScrollY = 0
	switch cursor {
	case 0:
		m.state.CurrentPage = state.PageDashboard
	case 1:
		m.state.CurrentPage = state.PagePicker
		m.pickerCursor = 0
		m.filter.SetValue("")
		return m.filter.Focus()
	case 2:
		m.state.CurrentPage = state.PageReport
	case 3:
		m.state.CurrentPage = state.PageActivity
	}
	return nil
}

func (m *MainModel) back() {
	m.filter.Blur()
	m.state.CurrentPage = state.PageMenu
	m.consoleScrollY = 0
}

func (m *MainModel) matches() []collector.CountryRef {
	return loader.FilterCountries(m.state.Countries, m.filter.Value())
}

// selectCountry switches the loader to the country's scope and shows the dashboard.
func (m *MainModel) selectCountry(c collector.CountryRef) {
	scope := loader.ScopeOf(c)
	if m.loader.SetScope(m.ctx, scope) {
		m.state.Loading = true
		m.logf("scope changed to %s", scope)
	}
	m.state.Scope = m.loader.Scope()
	m.filter.Blur()
	m.state.CurrentPage = state.PageDashboard
}

func (m *MainModel) refresh() tea.Cmd {
	if !m.state.HasStats {
		return nil
	}
	m.state.Loading = true
	return refreshCmd(m.ctx, m.loader)
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	target := float64(m.menuCursor)
	if m.state.CurrentPage == state.PagePicker {
		target = float64(m.pickerCursor)
	}
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, target, v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	newW := msg.Width/2 - 8
	if newW > 10 {
		m.bar.Resize(newW, 10)
	}
	if w := msg.Width - 12; w > 10 {
		m.breakdown.Resize(w)
	}
	m.filter.Width = msg.Width / 3
	return m, nil
}

func (m *MainModel) handleCountriesMsg(msg CountriesMsg) (tea.Model, tea.Cmd) {
	next := listen(m.countriesSub, func(ev loader.Event[[]collector.CountryRef]) tea.Msg { return CountriesMsg(ev) })
	if msg.Err != nil {
		m.state.CountriesErr = msg.Err
		m.logf("country list failed: %v", msg.Err)
		return m, next
	}
	m.state.Countries = msg.Value
	m.state.CountriesErr = nil
	m.logf("country list loaded: %d entries", len(msg.Value))
	return m, next
}

func (m *MainModel) handleStatisticsMsg(msg StatisticsMsg) (tea.Model, tea.Cmd) {
	next := listen(m.statsSub, func(ev loader.Event[loader.Statistics]) tea.Msg { return StatisticsMsg(ev) })
	m.state.Loading = false
	m.state.StatsErr = msg.Err
	if msg.Err != nil {
		if m.state.HasStats {
			m.logf("refresh of %s failed, keeping data from %s: %v",
				m.state.Stats.Scope, m.state.Stats.FetchedAt.Format("15:04:05"), msg.Err)
		} else {
			m.logf("statistics failed: %v", msg.Err)
		}
		return m, next
	}

	stats := msg.Value
	m.state.Stats = stats
	m.state.HasStats = true
	m.state.Scope = stats.Scope
	m.state.LastUpdate = stats.FetchedAt

	m.state.Bar, m.state.Donut = m.projector.Apply(stats.Records)
	m.bar.SetConfig(m.state.Bar)
	m.breakdown.SetConfig(m.state.Donut)
	if len(stats.Records) > 0 {
		m.state.Summary = charts.BuildSummary(m.state.Title(), stats.Records[0], m.numbers)
	}

	if item := m.state.Summary.ItemByKey(charts.KeyConfirmed); item != nil {
		m.logf("%s: %s confirmed", stats.Scope, item.Text)
	}
	return m, next
}

func (m *MainModel) handleInitialLoadedMsg(msg InitialLoadedMsg) (tea.Model, tea.Cmd) {
	// a country picked during startup took over the totals fetch
	if msg.Err != nil && !errors.Is(msg.Err, loader.ErrSuperseded) {
		m.state.Loading = false
		if collector.IsStage(msg.Err, collector.StageCountryList) {
			m.state.CountriesErr = msg.Err
		}
		return m, nil
	}
	if m.refresher != nil {
		if err := m.refresher.Start(m.ctx); err != nil {
			m.log.WithError(err).Warn("refresher not started")
		}
	}
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action != tea.MouseActionRelease {
		return m, nil
	}

	switch m.state.CurrentPage {
	case state.PageMenu:
		for i := range views.MenuOptions {
			if zone.Get(fmt.Sprintf("menu_%d", i)).InBounds(msg) {
				m.menuCursor = i
				return m, m.navigateTo(i)
			}
		}
	case state.PagePicker:
		matches := m.matches()
		start, end := views.PickerWindow(len(matches), m.pickerCursor, views.PickerRows(m.height))
		for i := start; i < end; i++ {
			if zone.Get(views.PickerZone(i)).InBounds(msg) {
				m.pickerCursor = i
				m.selectCountry(matches[i])
				return m, nil
			}
		}
	}
	return m, nil
}

// logf appends a timestamped line to the activity log and mirrors it to the log file.
func (m *MainModel) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	m.log.Info(line)
	m.state.ActivityLog = append(m.state.ActivityLog, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), line))
	if len(m.state.ActivityLog) > maxActivityLines {
		m.state.ActivityLog = m.state.ActivityLog[1:]
	}
}

func (m *MainModel) report() string {
	if !m.state.HasStats {
		return "No statistics loaded yet."
	}
	var buf bytes.Buffer
	console.Print(&buf, console.Report{
		Summary:   m.state.Summary,
		FetchedAt: m.state.Stats.FetchedAt,
		Err:       m.state.StatsErr,
	})
	return buf.String()
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	switch m.state.CurrentPage {
	case state.PageMenu:
		return views.RenderMenu(m.state, m.width, m.height, m.menuCursor, m.animCursor, m.mouseX, m.mouseY, m.spinner.View())
	case state.PageDashboard:
		return views.RenderDashboard(m.state, m.spinner.View(), m.bar.View(), m.breakdown.View())
	case state.PagePicker:
		return views.RenderPicker(m.state, views.ViewProps{
			Width:        m.width,
			Height:       m.height,
			AnimCursor:   m.animCursor,
			SpinnerView:  m.spinner.View(),
			FilterView:   m.filter.View(),
			Matches:      m.matches(),
			PickerCursor: m.pickerCursor,
		})
	case state.PageReport:
		return views.RenderReport(m.state, m.report(), m.width, m.height, m.consoleScrollY)
	case state.PageActivity:
		return views.RenderActivity(m.state, m.width, m.height, m.consoleScrollY)
	default:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Render("Unknown page\n\nPress 'b' to go back"),
		)
	}
}

// Start runs the TUI until the user quits. The loader is not closed.
func Start(l *loader.Loader, opts Options) error {
	m := InitialModel(l, opts)
	defer m.Close()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
