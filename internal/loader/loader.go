package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"covidash/internal/collector"
)

// ErrSuperseded is returned by a fetch whose result was dropped because a newer
// scope change started after it.
var ErrSuperseded = errors.New("superseded by a newer fetch")

// ErrClosed is returned once the loader has been closed.
var ErrClosed = errors.New("loader closed")

// Statistics is the published totals snapshot together with the scope it was
// fetched for.
type Statistics struct {
	Scope     Scope
	Records   []collector.StatisticsRecord
	FetchedAt time.Time
}

// Title names the scope for display: "Global", the country name from the
// record, or the code when the record carries none.
func (s Statistics) Title() string {
	if s.Scope.IsGlobal() {
		return "Global"
	}
	if len(s.Records) > 0 && s.Records[0].Country != "" {
		return s.Records[0].Country
	}
	return s.Scope.Code()
}

// Initial is the result of the startup sequence.
type Initial struct {
	Countries  []collector.CountryRef // with the "All" entry prepended
	Statistics Statistics
}

// Loader runs the rate-limited load sequence against a StatsProvider and keeps
// the latest results in two observable states.
type Loader struct {
	provider collector.StatsProvider
	cfg      LoaderConfig
	log      *logrus.Entry

	countries *State[[]collector.CountryRef]
	stats     *State[Statistics]

	mu     sync.Mutex
	scope  Scope
	gen    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// Option configures the Loader.
type Option func(*Loader)

// WithLogger sets the log entry used for fetch events.
func WithLogger(l *logrus.Entry) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// New creates a loader for the given provider. The initial scope is Global.
func New(p collector.StatsProvider, cfg LoaderConfig, opts ...Option) (*Loader, error) {
	if p == nil {
		return nil, errors.New("stats provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Loader{
		provider:  p,
		cfg:       cfg,
		log:       logrus.NewEntry(logrus.StandardLogger()),
		countries: NewState[[]collector.CountryRef](),
		stats:     NewState[Statistics](),
		scope:     Global,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Countries is the country list state. Published lists start with the "All" entry.
func (l *Loader) Countries() *State[[]collector.CountryRef] {
	return l.countries
}

// Statistics is the totals state for the current scope.
func (l *Loader) Statistics() *State[Statistics] {
	return l.stats
}

// Config returns the configuration the loader was built with.
func (l *Loader) Config() LoaderConfig {
	return l.cfg
}

// Scope returns the currently selected scope.
func (l *Loader) Scope() Scope {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scope
}

// LoadInitial fetches the country list, waits out the rate-limit window and then
// fetches the totals of the current scope (Global unless SetScope was called).
// Failures are published to the matching state and returned as *collector.FetchError.
// There is no retry. If SetScope starts a newer fetch while the totals are in
// flight, LoadInitial returns ErrSuperseded and the newer fetch publishes instead.
func (l *Loader) LoadInitial(ctx context.Context) (Initial, error) {
	var out Initial

	start := time.Now()
	countries, err := l.provider.FetchCountries(ctx)
	if err != nil {
		fe := &collector.FetchError{Stage: collector.StageCountryList, Cause: err}
		l.log.WithError(err).WithField("stage", fe.Stage).Warn("initial load failed")
		l.countries.Fail(fe)
		return out, fe
	}
	out.Countries = WithAll(countries)
	l.countries.Publish(out.Countries)
	l.log.WithFields(logrus.Fields{
		"stage":    collector.StageCountryList,
		"count":    len(countries),
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("countries loaded")

	if err := l.wait(ctx); err != nil {
		return out, &collector.FetchError{Stage: collector.StageStatistics, Cause: err}
	}

	fctx, gen, cancel, err := l.begin(ctx, nil)
	if err != nil {
		return out, &collector.FetchError{Stage: collector.StageStatistics, Cause: err}
	}
	defer l.finish(gen, cancel)

	out.Statistics, err = l.fetchStatistics(fctx, gen)
	return out, err
}

// SetScope selects a new scope and starts fetching its totals in the background
// without re-applying the window. It returns false, and does nothing, when the
// scope is unchanged or the loader is closed. A newer call cancels the fetch of
// an older one and only the newest result is published.
func (l *Loader) SetScope(ctx context.Context, scope Scope) bool {
	fctx, gen, cancel, err := l.begin(ctx, &scope)
	if err != nil {
		return false
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.finish(gen, cancel)
		// errors already went to the statistics state
		_, _ = l.fetchStatistics(fctx, gen)
	}()
	return true
}

// Refresh re-fetches the totals of the current scope and waits for the result.
func (l *Loader) Refresh(ctx context.Context) error {
	fctx, gen, cancel, err := l.begin(ctx, nil)
	if err != nil {
		return err
	}
	defer l.finish(gen, cancel)

	_, err = l.fetchStatistics(fctx, gen)
	return err
}

// Wait blocks until every background scope fetch has returned.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels the in-flight fetch, waits for background work and closes both
// states, which ends all subscriptions.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.gen++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.wg.Wait()
	l.countries.Close()
	l.stats.Close()
}

var errUnchanged = errors.New("scope unchanged")

// begin starts a new fetch generation, cancelling the previous one. A nil scope
// keeps the current one; a scope equal to the current one is refused.
func (l *Loader) begin(parent context.Context, scope *Scope) (context.Context, uint64, context.CancelFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, 0, nil, ErrClosed
	}
	if scope != nil {
		if *scope == l.scope {
			return nil, 0, nil, errUnchanged
		}
		l.scope = *scope
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	return ctx, l.gen, cancel, nil
}

func (l *Loader) finish(gen uint64, cancel context.CancelFunc) {
	l.mu.Lock()
	if l.gen == gen {
		l.cancel = nil
	}
	l.mu.Unlock()
	cancel()
}

func (l *Loader) fetchStatistics(ctx context.Context, gen uint64) (Statistics, error) {
	l.mu.Lock()
	scope := l.scope
	l.mu.Unlock()

	start := time.Now()
	records, err := l.provider.FetchTotals(ctx, scope.Code())
	fields := logrus.Fields{
		"stage":    collector.StageStatistics,
		"scope":    scope.String(),
		"duration": time.Since(start).Round(time.Millisecond),
	}

	// Publish under mu so a newer generation cannot interleave.
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		l.log.WithFields(fields).Debug("discarding superseded result")
		return Statistics{}, ErrSuperseded
	}
	if err != nil {
		fe := &collector.FetchError{Stage: collector.StageStatistics, Cause: err}
		l.log.WithFields(fields).WithError(err).Warn("statistics fetch failed")
		l.stats.Fail(fe)
		return Statistics{}, fe
	}

	snap := Statistics{Scope: scope, Records: records, FetchedAt: time.Now()}
	l.stats.Publish(snap)
	l.log.WithFields(fields).Debug("statistics loaded")
	return snap, nil
}

func (l *Loader) wait(ctx context.Context) error {
	if l.cfg.Window <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(l.cfg.Window)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
