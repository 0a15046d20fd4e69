package mcpserver

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"covidash/internal/collector"
)

// MockStatsProvider implements collector.StatsProvider for testing
type MockStatsProvider struct {
	Countries    []collector.CountryRef
	Totals       map[string][]collector.StatisticsRecord
	CountriesErr error
	TotalsErr    error

	CountryCalls int
	TotalCalls   map[string]int
}

func (m *MockStatsProvider) FetchCountries(ctx context.Context) ([]collector.CountryRef, error) {
	m.CountryCalls++
	if m.CountriesErr != nil {
		return nil, m.CountriesErr
	}
	return m.Countries, nil
}

func (m *MockStatsProvider) FetchTotals(ctx context.Context, code string) ([]collector.StatisticsRecord, error) {
	if m.TotalCalls == nil {
		m.TotalCalls = map[string]int{}
	}
	m.TotalCalls[code]++
	if m.TotalsErr != nil {
		return nil, m.TotalsErr
	}
	return m.Totals[code], nil
}

func newMock() *MockStatsProvider {
	return &MockStatsProvider{
		Countries: []collector.CountryRef{
			{Name: "Germany", Alpha2Code: "DE"},
			{Name: "Ghana", Alpha2Code: "GH"},
			{Name: "France", Alpha2Code: "FR"},
		},
		Totals: map[string][]collector.StatisticsRecord{
			"": {{Confirmed: 1000, Recovered: 700, Deaths: 50,
				LastUpdate: time.Date(2020, 4, 9, 18, 0, 0, 0, time.UTC)}},
			"DE": {{Country: "Germany", Code: "DE", Confirmed: 100, Recovered: 80, Critical: 2, Deaths: 5}},
		},
	}
}

func newTestServer(t *testing.T, p collector.StatsProvider) *Server {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	s, err := NewServer(DefaultConfig(), p, logrus.NewEntry(l))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func TestNewServer_Validation(t *testing.T) {
	if _, err := NewServer(DefaultConfig(), nil, nil); err == nil {
		t.Error("Expected error for nil provider")
	}

	cfg := DefaultConfig()
	cfg.CacheTTL = 0
	if _, err := NewServer(cfg, newMock(), nil); err == nil {
		t.Error("Expected error for zero cache TTL")
	}
}

func TestHandleListCountries(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"all entries", "", []string{"all", "DE", "GH", "FR"}},
		{"prefix", "g", []string{"DE", "GH"}},
		{"sentinel", "AL", []string{"all"}},
		{"no match", "z", []string{}},
	}

	mock := newMock()
	s := newTestServer(t, mock)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result, err := s.handleListCountries(context.Background(), nil, ListCountriesArgs{Prefix: tt.prefix})
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if result.Count != len(tt.want) || len(result.Countries) != len(tt.want) {
				t.Fatalf("Expected %d countries, got %d", len(tt.want), result.Count)
			}
			for i, c := range result.Countries {
				if c.Code != tt.want[i] {
					t.Errorf("entry %d = %s, want %s", i, c.Code, tt.want[i])
				}
			}
		})
	}

	if mock.CountryCalls != 1 {
		t.Errorf("Expected the country list to be fetched once and cached, got %d calls", mock.CountryCalls)
	}
}

func TestHandleListCountries_ProviderError(t *testing.T) {
	mock := newMock()
	mock.CountriesErr = errors.New("upstream down")
	s := newTestServer(t, mock)

	_, _, err := s.handleListCountries(context.Background(), nil, ListCountriesArgs{})
	if err == nil {
		t.Fatal("Expected error when provider fails")
	}
	if !collector.IsStage(err, collector.StageCountryList) {
		t.Errorf("Expected country list stage, got %v", err)
	}
}

func TestHandleGetStatistics_Global(t *testing.T) {
	mock := newMock()
	s := newTestServer(t, mock)

	for _, code := range []string{"", "all", "ALL"} {
		_, result, err := s.handleGetStatistics(context.Background(), nil, StatisticsArgs{Code: code})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if result.Scope != "global" {
			t.Errorf("Expected global scope for %q, got %s", code, result.Scope)
		}
		if result.Record.Confirmed != 1000 {
			t.Errorf("Expected 1000 confirmed, got %d", result.Record.Confirmed)
		}
		if result.Record.LastUpdate != "2020-04-09T18:00:00Z" {
			t.Errorf("Unexpected last update %q", result.Record.LastUpdate)
		}
		if !strings.Contains(result.Report, "Total Cases: 1,000") {
			t.Errorf("Unexpected report:\n%s", result.Report)
		}
	}

	if mock.TotalCalls[""] != 1 {
		t.Errorf("Expected one cached global fetch, got %d", mock.TotalCalls[""])
	}
}

func TestHandleGetStatistics_Country(t *testing.T) {
	s := newTestServer(t, newMock())

	_, result, err := s.handleGetStatistics(context.Background(), nil, StatisticsArgs{Code: "DE"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Scope != "DE" || result.Record.Country != "Germany" {
		t.Errorf("Unexpected result %+v", result)
	}
	if !strings.HasPrefix(result.Report, "Germany") {
		t.Errorf("Expected report titled Germany, got:\n%s", result.Report)
	}
}

func TestHandleGetStatistics_Errors(t *testing.T) {
	s := newTestServer(t, newMock())

	// no record for this code
	_, _, err := s.handleGetStatistics(context.Background(), nil, StatisticsArgs{Code: "XX"})
	if !errors.Is(err, collector.ErrMalformedResponse) {
		t.Errorf("Expected malformed response, got %v", err)
	}

	mock := newMock()
	mock.TotalsErr = &collector.StatusError{Code: 429, URL: "totals"}
	s = newTestServer(t, mock)
	_, _, err = s.handleGetStatistics(context.Background(), nil, StatisticsArgs{})
	var se *collector.StatusError
	if !errors.As(err, &se) || se.Code != 429 {
		t.Errorf("Expected status error, got %v", err)
	}
	if !collector.IsStage(err, collector.StageStatistics) {
		t.Errorf("Expected statistics stage, got %v", err)
	}
}

func TestHandleGetChartConfig(t *testing.T) {
	s := newTestServer(t, newMock())

	_, result, err := s.handleGetChartConfig(context.Background(), nil, StatisticsArgs{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	bar := result.Bar.Values()
	if len(bar) != 3 || bar[0] != 1000 || bar[1] != 700 || bar[2] != 50 {
		t.Errorf("Unexpected bar values %v", bar)
	}
	donut := result.Donut.Values()
	if len(donut) != 3 || donut[0] != 700 || donut[1] != 50 || donut[2] != 250 {
		t.Errorf("Unexpected donut values %v", donut)
	}
	if result.Total != "1,000" {
		t.Errorf("Expected total 1,000, got %s", result.Total)
	}
}

func TestClose_FlushesCache(t *testing.T) {
	mock := newMock()
	s := newTestServer(t, mock)
	ctx := context.Background()

	if _, _, err := s.handleGetStatistics(ctx, nil, StatisticsArgs{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleGetStatistics(ctx, nil, StatisticsArgs{}); err != nil {
		t.Fatal(err)
	}
	if mock.TotalCalls[""] != 2 {
		t.Errorf("Expected refetch after Close, got %d calls", mock.TotalCalls[""])
	}
}
