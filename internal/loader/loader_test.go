package loader

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidash/internal/collector"
)

type call struct {
	kind string // "countries" or "totals"
	code string
	at   time.Time
}

// MockStatsProvider implements collector.StatsProvider for testing
type MockStatsProvider struct {
	mu           sync.Mutex
	Countries    []collector.CountryRef
	CountriesErr error
	Totals       map[string][]collector.StatisticsRecord
	TotalsErr    error
	// Gates block FetchTotals for a code until closed or the context ends.
	Gates map[string]chan struct{}

	calls           []call
	countriesDoneAt time.Time
}

func (m *MockStatsProvider) FetchCountries(ctx context.Context) ([]collector.CountryRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{kind: "countries", at: time.Now()})
	m.countriesDoneAt = time.Now()
	if m.CountriesErr != nil {
		return nil, m.CountriesErr
	}
	return m.Countries, nil
}

func (m *MockStatsProvider) FetchTotals(ctx context.Context, code string) ([]collector.StatisticsRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, call{kind: "totals", code: code, at: time.Now()})
	gate := m.Gates[code]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TotalsErr != nil {
		return nil, m.TotalsErr
	}
	return m.Totals[code], nil
}

func (m *MockStatsProvider) setTotalsErr(err error) {
	m.mu.Lock()
	m.TotalsErr = err
	m.mu.Unlock()
}

func (m *MockStatsProvider) callsOf(kind string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func newMockProvider() *MockStatsProvider {
	return &MockStatsProvider{
		Countries: []collector.CountryRef{
			{Name: "Germany", Alpha2Code: "DE"},
			{Name: "United States", Alpha2Code: "US"},
		},
		Totals: map[string][]collector.StatisticsRecord{
			"":   {{Confirmed: 1000, Recovered: 700, Deaths: 50}},
			"DE": {{Country: "Germany", Code: "DE", Confirmed: 100, Recovered: 80, Deaths: 5}},
			"US": {{Country: "USA", Code: "US", Confirmed: 300, Recovered: 200, Deaths: 20}},
		},
	}
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestLoader(t *testing.T, p *MockStatsProvider, window time.Duration) *Loader {
	t.Helper()
	l, err := New(p, DefaultLoaderConfig().WithWindow(window), WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, DefaultLoaderConfig())
	assert.Error(t, err)

	_, err = New(newMockProvider(), DefaultLoaderConfig().WithWindow(-time.Second))
	var cfgErr *collector.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Window", cfgErr.Field)
}

func TestLoadInitial_Sequence(t *testing.T) {
	const window = 60 * time.Millisecond
	p := newMockProvider()
	l := newTestLoader(t, p, window)

	res, err := l.LoadInitial(context.Background())
	require.NoError(t, err)

	countryCalls := p.callsOf("countries")
	totalCalls := p.callsOf("totals")
	require.Len(t, countryCalls, 1)
	require.Len(t, totalCalls, 1)
	assert.Equal(t, "", totalCalls[0].code)
	assert.GreaterOrEqual(t, totalCalls[0].at.Sub(p.countriesDoneAt), window)

	require.Len(t, res.Countries, 3)
	assert.Equal(t, AllEntry(), res.Countries[0])
	assert.Equal(t, "Germany", res.Countries[1].Name)
	assert.True(t, res.Statistics.Scope.IsGlobal())
	assert.Equal(t, int64(1000), res.Statistics.Records[0].Confirmed)

	countries, ok := l.Countries().Value()
	require.True(t, ok)
	assert.Equal(t, res.Countries, countries)

	stats, ok := l.Statistics().Value()
	require.True(t, ok)
	assert.Equal(t, res.Statistics.Records, stats.Records)
	assert.NoError(t, l.Statistics().Err())
}

func TestLoadInitial_CountryListFailure(t *testing.T) {
	p := newMockProvider()
	p.CountriesErr = errors.New("boom")
	l := newTestLoader(t, p, time.Millisecond)

	_, err := l.LoadInitial(context.Background())
	require.Error(t, err)
	assert.True(t, collector.IsStage(err, collector.StageCountryList))
	assert.Empty(t, p.callsOf("totals"))

	_, ok := l.Countries().Value()
	assert.False(t, ok)
	assert.ErrorIs(t, l.Countries().Err(), p.CountriesErr)
}

func TestLoadInitial_StatisticsFailure(t *testing.T) {
	p := newMockProvider()
	p.TotalsErr = &collector.StatusError{Code: 429, URL: "totals"}
	l := newTestLoader(t, p, time.Millisecond)

	res, err := l.LoadInitial(context.Background())
	require.Error(t, err)
	assert.True(t, collector.IsStage(err, collector.StageStatistics))
	assert.Len(t, res.Countries, 3, "country list is still returned")

	var se *collector.StatusError
	assert.ErrorAs(t, l.Statistics().Err(), &se)
}

func TestLoadInitial_CancelledDuringWindow(t *testing.T) {
	p := newMockProvider()
	l := newTestLoader(t, p, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.LoadInitial(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, p.callsOf("totals"))
}

func TestSetScope_SameScopeTwiceFetchesOnce(t *testing.T) {
	p := newMockProvider()
	l := newTestLoader(t, p, time.Millisecond)
	ctx := context.Background()

	assert.True(t, l.SetScope(ctx, Country("US")))
	assert.False(t, l.SetScope(ctx, Country("US")))
	l.Wait()

	totals := p.callsOf("totals")
	require.Len(t, totals, 1)
	assert.Equal(t, "US", totals[0].code)
}

func TestSetScope_GlobalIsNoOpAtStart(t *testing.T) {
	p := newMockProvider()
	l := newTestLoader(t, p, time.Millisecond)

	assert.False(t, l.SetScope(context.Background(), Global))
	assert.False(t, l.SetScope(context.Background(), Country(AllCode)))
	l.Wait()
	assert.Empty(t, p.callsOf("totals"))
}

func TestSetScope_BackToGlobalRefetchesUnscoped(t *testing.T) {
	p := newMockProvider()
	l := newTestLoader(t, p, time.Millisecond)
	ctx := context.Background()

	require.True(t, l.SetScope(ctx, Country("US")))
	l.Wait()
	require.True(t, l.SetScope(ctx, Global))
	l.Wait()

	totals := p.callsOf("totals")
	require.Len(t, totals, 2)
	assert.Equal(t, "US", totals[0].code)
	assert.Equal(t, "", totals[1].code)

	stats, _ := l.Statistics().Value()
	assert.True(t, stats.Scope.IsGlobal())
	assert.Equal(t, int64(1000), stats.Records[0].Confirmed)
}

func TestSetScope_AfterStartupSkipsCountriesAndWindow(t *testing.T) {
	const window = 150 * time.Millisecond
	p := newMockProvider()
	l := newTestLoader(t, p, window)
	ctx := context.Background()

	_, err := l.LoadInitial(ctx)
	require.NoError(t, err)

	start := time.Now()
	require.True(t, l.SetScope(ctx, Country("DE")))
	l.Wait()
	assert.Less(t, time.Since(start), window)

	assert.Len(t, p.callsOf("countries"), 1)
	totals := p.callsOf("totals")
	require.Len(t, totals, 2)
	assert.Equal(t, "DE", totals[1].code)

	stats, _ := l.Statistics().Value()
	assert.Equal(t, Country("DE"), stats.Scope)
	assert.Equal(t, "Germany", stats.Records[0].Country)
	assert.Equal(t, Country("DE"), l.Scope())
}

func TestSetScope_LatestWins(t *testing.T) {
	p := newMockProvider()
	p.Gates = map[string]chan struct{}{"US": make(chan struct{})}
	l := newTestLoader(t, p, time.Millisecond)
	ctx := context.Background()

	sub := l.Statistics().Subscribe()
	defer sub.Close()

	require.True(t, l.SetScope(ctx, Country("US")))
	require.True(t, l.SetScope(ctx, Country("DE")))
	l.Wait()

	stats, ok := l.Statistics().Value()
	require.True(t, ok)
	assert.Equal(t, Country("DE"), stats.Scope)
	assert.NoError(t, l.Statistics().Err(), "the cancelled fetch must not flag the state")

	ev := <-sub.Events()
	assert.NoError(t, ev.Err)
	assert.Equal(t, Country("DE"), ev.Value.Scope)
	select {
	case ev := <-sub.Events():
		t.Errorf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestLoadInitial_SupersededByScopeChange(t *testing.T) {
	p := newMockProvider()
	gate := make(chan struct{})
	p.Gates = map[string]chan struct{}{"": gate}
	l := newTestLoader(t, p, time.Millisecond)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := l.LoadInitial(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return len(p.callsOf("totals")) == 1 },
		time.Second, time.Millisecond, "global totals fetch should be in flight")
	require.True(t, l.SetScope(ctx, Country("DE")))

	var err error
	select {
	case err = <-done:
	case <-time.After(time.Second):
		close(gate)
		t.Fatal("LoadInitial did not return after the scope change")
	}
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, collector.IsStage(err, collector.StageStatistics), "a superseded load is not a fetch failure")

	l.Wait()
	stats, ok := l.Statistics().Value()
	require.True(t, ok)
	assert.Equal(t, Country("DE"), stats.Scope)
	assert.NoError(t, l.Statistics().Err())
}

func TestRefresh_FailureKeepsStaleValue(t *testing.T) {
	p := newMockProvider()
	l := newTestLoader(t, p, time.Millisecond)
	ctx := context.Background()

	_, err := l.LoadInitial(ctx)
	require.NoError(t, err)

	sub := l.Statistics().Subscribe()
	defer sub.Close()
	<-sub.Events() // replay of the current value

	p.setTotalsErr(errors.New("upstream down"))
	err = l.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, collector.IsStage(err, collector.StageStatistics))

	stats, ok := l.Statistics().Value()
	require.True(t, ok)
	assert.Equal(t, int64(1000), stats.Records[0].Confirmed)
	assert.Error(t, l.Statistics().Err())

	ev := <-sub.Events()
	assert.Error(t, ev.Err)
	assert.Equal(t, int64(1000), ev.Value.Records[0].Confirmed)

	// recovery clears the flag
	p.setTotalsErr(nil)
	require.NoError(t, l.Refresh(ctx))
	assert.NoError(t, l.Statistics().Err())
}

func TestClose_EndsSubscriptionsAndRejectsWork(t *testing.T) {
	p := newMockProvider()
	p.Gates = map[string]chan struct{}{"US": make(chan struct{})}
	l, err := New(p, DefaultLoaderConfig(), WithLogger(quietLogger()))
	require.NoError(t, err)

	sub := l.Countries().Subscribe()
	require.True(t, l.SetScope(context.Background(), Country("US")))

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the in-flight fetch")
	}

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.False(t, l.SetScope(context.Background(), Country("DE")))
	assert.ErrorIs(t, l.Refresh(context.Background()), ErrClosed)

	_, ok := l.Statistics().Value()
	assert.False(t, ok)
	l.Close()
}
