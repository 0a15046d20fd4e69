package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// APICollector implements StatsProvider against the RapidAPI style COVID endpoints.
type APICollector struct {
	cfg        CollectorConfig
	httpClient *http.Client
	base       *sling.Sling
	pacer      *rate.Limiter
	log        *logrus.Entry
}

// Option configures the APICollector.
type Option func(*APICollector)

// WithHTTPClient replaces the default http.Client (tests use this to plug a mock transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *APICollector) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the log entry used for request events.
func WithLogger(l *logrus.Entry) Option {
	return func(c *APICollector) {
		if l != nil {
			c.log = l
		}
	}
}

type totalsQuery struct {
	Code string `url:"code"`
}

// NewAPICollector validates cfg and builds a collector.
func NewAPICollector(cfg CollectorConfig, opts ...Option) (*APICollector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &APICollector{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	base := sling.New().
		Client(c.httpClient).
		Base(strings.TrimRight(cfg.BaseURL, "/")+"/").
		Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		base.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.APIKey != "" {
		base.Set("x-rapidapi-key", cfg.APIKey)
	}
	if cfg.APIHost != "" {
		base.Set("x-rapidapi-host", cfg.APIHost)
	}
	c.base = base

	// Burst of one so two calls can never share the same second.
	if cfg.RequestsPerSecond > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return c, nil
}

// Config returns the configuration the collector was built with.
func (c *APICollector) Config() CollectorConfig {
	return c.cfg
}

// FetchCountries returns the full country list.
func (c *APICollector) FetchCountries(ctx context.Context) ([]CountryRef, error) {
	var countries []CountryRef
	if err := c.get(ctx, c.cfg.CountriesPath, nil, &countries); err != nil {
		return nil, err
	}
	if countries == nil {
		return nil, fmt.Errorf("%w: empty country list payload", ErrMalformedResponse)
	}
	return countries, nil
}

// FetchTotals returns the totals for code, or the global totals when code is empty.
// The API answers with a single element array; an empty array is malformed.
func (c *APICollector) FetchTotals(ctx context.Context, code string) ([]StatisticsRecord, error) {
	path := c.cfg.GlobalTotalsPath
	var query any
	if code != "" {
		path = c.cfg.CountryTotalsPath
		query = &totalsQuery{Code: code}
	}

	var records []StatisticsRecord
	if err := c.get(ctx, path, query, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: expected one totals record, got none", ErrMalformedResponse)
	}
	return records, nil
}

func (c *APICollector) get(ctx context.Context, path string, query any, out any) error {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for request slot: %w", err)
		}
	}

	s := c.base.New().Get(strings.TrimLeft(path, "/"))
	if query != nil {
		s = s.QueryStruct(query)
	}
	req, err := s.Request()
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.base.Do(req, out, nil)
	fields := logrus.Fields{
		"url":      req.URL.String(),
		"duration": time.Since(start).Round(time.Millisecond),
	}
	if resp == nil {
		c.log.WithFields(fields).WithError(err).Warn("request failed")
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	fields["status"] = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(fields).Warn("unexpected status")
		return &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
	}
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("decode failed")
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	c.log.WithFields(fields).Debug("request done")
	return nil
}
