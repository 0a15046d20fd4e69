package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Refresher periodically re-fetches the loader's current scope.
type Refresher struct {
	loader   *Loader
	interval time.Duration
	log      *logrus.Entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewRefresher creates a refresher using the loader's RefreshInterval.
// It returns nil, nil when periodic refresh is disabled.
func NewRefresher(l *Loader) (*Refresher, error) {
	if l == nil {
		return nil, errors.New("loader is required")
	}
	interval := l.cfg.RefreshInterval
	if interval == 0 {
		return nil, nil
	}
	if interval < l.cfg.Window {
		return nil, fmt.Errorf("refresh interval %v is shorter than the rate-limit window %v", interval, l.cfg.Window)
	}
	return &Refresher{
		loader:   l,
		interval: interval,
		log:      l.log.WithField("component", "refresher"),
	}, nil
}

// Start begins the periodic refresh loop.
func (w *Refresher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("refresher already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Stop stops the loop and waits for an in-flight refresh to return.
func (w *Refresher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.running = false
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// PullOnce refreshes immediately.
func (w *Refresher) PullOnce(ctx context.Context) error {
	return w.loader.Refresh(ctx)
}

func (w *Refresher) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.PullOnce(ctx)
			switch {
			case err == nil, errors.Is(err, ErrSuperseded):
			case errors.Is(err, ErrClosed):
				return
			default:
				w.log.WithError(err).Warn("periodic refresh failed")
			}
		}
	}
}
