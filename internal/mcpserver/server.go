package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"covidash/internal/charts"
	"covidash/internal/collector"
	"covidash/internal/loader"
)

const countriesKey = "countries"

// Server wraps the MCP server with covidash capabilities.
type Server struct {
	mcpServer *mcp.Server
	provider  collector.StatsProvider
	cache     *cache.Cache
	numbers   charts.Formatter
	log       *logrus.Entry
}

// Config holds configuration for the MCP server.
type Config struct {
	ServerName    string
	ServerVersion string
	// CacheTTL bounds how long API answers are reused between tool calls.
	CacheTTL time.Duration
	Numbers  charts.Formatter
}

// DefaultConfig returns the server identity and a one minute cache.
func DefaultConfig() Config {
	return Config{
		ServerName:    "covidash",
		ServerVersion: "1.0.0",
		CacheTTL:      time.Minute,
		Numbers:       charts.DefaultFormatter(),
	}
}

// NewServer creates a new MCP server instance.
func NewServer(cfg Config, provider collector.StatsProvider, log *logrus.Entry) (*Server, error) {
	if provider == nil {
		return nil, errors.New("stats provider is required")
	}
	if cfg.CacheTTL <= 0 {
		return nil, &collector.ConfigError{Field: "CacheTTL", Message: "must be positive"}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	impl := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}

	s := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		provider:  provider,
		cache:     cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		numbers:   cfg.Numbers,
		log:       log,
	}
	s.registerTools()
	return s, nil
}

// ListCountriesArgs defines the input for list_countries tool.
type ListCountriesArgs struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"case-insensitive country name prefix, empty lists all"`
}

// CountryView is one picker entry.
type CountryView struct {
	Name string `json:"name" jsonschema:"country name"`
	Code string `json:"code" jsonschema:"ISO 3166 alpha-2 code, or all for the global view"`
}

// ListCountriesResult wraps the filtered country list.
type ListCountriesResult struct {
	Countries []CountryView `json:"countries" jsonschema:"matching countries, the All entry included"`
	Count     int           `json:"count" jsonschema:"number of matches"`
}

// StatisticsArgs defines the input for get_statistics and get_chart_config tools.
type StatisticsArgs struct {
	Code string `json:"code,omitempty" jsonschema:"alpha-2 country code; empty or all for global totals"`
}

// RecordView is a statistics record with display-ready timestamps.
type RecordView struct {
	Country    string `json:"country,omitempty" jsonschema:"country name, empty for global"`
	Code       string `json:"code,omitempty" jsonschema:"country code, empty for global"`
	Confirmed  int64  `json:"confirmed" jsonschema:"total confirmed cases"`
	Recovered  int64  `json:"recovered" jsonschema:"total recoveries"`
	Critical   int64  `json:"critical" jsonschema:"currently critical cases"`
	Deaths     int64  `json:"deaths" jsonschema:"total deaths"`
	LastChange string `json:"last_change,omitempty" jsonschema:"RFC 3339 time of the last change"`
	LastUpdate string `json:"last_update,omitempty" jsonschema:"RFC 3339 time of the last update"`
}

// StatisticsResult wraps the totals of one scope.
type StatisticsResult struct {
	Scope  string     `json:"scope" jsonschema:"global or the country code"`
	Record RecordView `json:"record" jsonschema:"totals"`
	Report string     `json:"report" jsonschema:"one line per figure, locale formatted"`
}

// ChartConfigResult wraps both projected chart configs.
type ChartConfigResult struct {
	Scope string                  `json:"scope" jsonschema:"global or the country code"`
	Bar   charts.BarChartConfig   `json:"bar" jsonschema:"totals bar chart"`
	Donut charts.DonutChartConfig `json:"donut" jsonschema:"recovered, deaths and unknown donut"`
	Total string                  `json:"total" jsonschema:"donut centre value, locale formatted"`
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_countries",
		Description: "List the countries the statistics API knows, optionally filtered by a case-insensitive name prefix. The first entry, All (code all), selects the global view.",
	}, s.handleListCountries)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Get confirmed, recovered, critical and death totals, globally or for one country code.",
	}, s.handleGetStatistics)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_chart_config",
		Description: "Get the bar chart (cases, recovered, deaths) and donut chart (recoveries, deaths, unknown) configs for a scope.",
	}, s.handleGetChartConfig)
}

func (s *Server) handleListCountries(ctx context.Context, _ *mcp.CallToolRequest, args ListCountriesArgs) (*mcp.CallToolResult, ListCountriesResult, error) {
	countries, err := s.countries(ctx)
	if err != nil {
		return nil, ListCountriesResult{}, err
	}

	matches := loader.FilterCountries(loader.WithAll(countries), args.Prefix)
	out := ListCountriesResult{Countries: make([]CountryView, 0, len(matches)), Count: len(matches)}
	for _, c := range matches {
		out.Countries = append(out.Countries, CountryView{Name: c.Display(), Code: c.Alpha2Code})
	}
	return nil, out, nil
}

func (s *Server) handleGetStatistics(ctx context.Context, _ *mcp.CallToolRequest, args StatisticsArgs) (*mcp.CallToolResult, StatisticsResult, error) {
	scope := loader.Country(args.Code)
	rec, err := s.totals(ctx, scope)
	if err != nil {
		return nil, StatisticsResult{}, err
	}

	title := loader.Statistics{Scope: scope, Records: []collector.StatisticsRecord{rec}}.Title()
	summary := charts.BuildSummary(title, rec, s.numbers)
	report := summary.Title
	for _, it := range summary.Items {
		report += fmt.Sprintf("\n%s: %s", it.Label, it.Text)
	}

	return nil, StatisticsResult{
		Scope:  scope.String(),
		Record: recordView(rec),
		Report: report,
	}, nil
}

func (s *Server) handleGetChartConfig(ctx context.Context, _ *mcp.CallToolRequest, args StatisticsArgs) (*mcp.CallToolResult, ChartConfigResult, error) {
	scope := loader.Country(args.Code)
	rec, err := s.totals(ctx, scope)
	if err != nil {
		return nil, ChartConfigResult{}, err
	}

	records := []collector.StatisticsRecord{rec}
	donut := charts.ProjectDonut(charts.DonutChartConfig{}, records)
	return nil, ChartConfigResult{
		Scope: scope.String(),
		Bar:   charts.ProjectBar(charts.BarChartConfig{}, records),
		Donut: donut,
		Total: donut.TotalText(s.numbers),
	}, nil
}

func (s *Server) countries(ctx context.Context) ([]collector.CountryRef, error) {
	if v, ok := s.cache.Get(countriesKey); ok {
		return v.([]collector.CountryRef), nil
	}
	countries, err := s.provider.FetchCountries(ctx)
	if err != nil {
		s.log.WithError(err).Warn("list_countries failed")
		return nil, &collector.FetchError{Stage: collector.StageCountryList, Cause: err}
	}
	s.cache.Set(countriesKey, countries, cache.DefaultExpiration)
	return countries, nil
}

func (s *Server) totals(ctx context.Context, scope loader.Scope) (collector.StatisticsRecord, error) {
	key := "totals:" + scope.Code()
	if v, ok := s.cache.Get(key); ok {
		return v.(collector.StatisticsRecord), nil
	}
	records, err := s.provider.FetchTotals(ctx, scope.Code())
	if err == nil && len(records) == 0 {
		err = fmt.Errorf("%w: no totals for %s", collector.ErrMalformedResponse, scope)
	}
	if err != nil {
		s.log.WithError(err).WithField("scope", scope.String()).Warn("statistics fetch failed")
		return collector.StatisticsRecord{}, &collector.FetchError{Stage: collector.StageStatistics, Cause: err}
	}
	s.cache.Set(key, records[0], cache.DefaultExpiration)
	return records[0], nil
}

func recordView(r collector.StatisticsRecord) RecordView {
	v := RecordView{
		Country:   r.Country,
		Code:      r.Code,
		Confirmed: r.Confirmed,
		Recovered: r.Recovered,
		Critical:  r.Critical,
		Deaths:    r.Deaths,
	}
	if !r.LastChange.IsZero() {
		v.LastChange = r.LastChange.Format(time.RFC3339)
	}
	if !r.LastUpdate.IsZero() {
		v.LastUpdate = r.LastUpdate.Format(time.RFC3339)
	}
	return v
}

// Start starts the MCP server using stdio transport.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting covidash MCP server on stdio")
	transport := &mcp.StdioTransport{}
	return s.mcpServer.Run(ctx, transport)
}

// Close drops cached answers.
func (s *Server) Close() error {
	s.cache.Flush()
	return nil
}
