package collector

import "time"

// CollectorConfig contains configurable parameters for the API collector.
// Use DefaultCollectorConfig() to get sensible defaults, then override as needed.
type CollectorConfig struct {
	// Endpoint settings
	BaseURL           string // API root (default: "https://covid-19-data.p.rapidapi.com")
	CountriesPath     string // Country list path (default: "/help/countries")
	GlobalTotalsPath  string // Global totals path (default: "/totals")
	CountryTotalsPath string // Per-country totals path, takes ?code= (default: "/country/code")

	// Credentials, passed through as headers
	APIKey  string // x-rapidapi-key
	APIHost string // x-rapidapi-host (default: "covid-19-data.p.rapidapi.com")

	// Transport
	RequestTimeout    time.Duration // Per request timeout (default: 10s)
	RequestsPerSecond float64       // Client side pacing, 0 disables (default: 0)
	UserAgent         string        // User-Agent header (default: "covidash")
}

// DefaultCollectorConfig returns a CollectorConfig with sensible defaults.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		BaseURL:           "https://covid-19-data.p.rapidapi.com",
		CountriesPath:     "/help/countries",
		GlobalTotalsPath:  "/totals",
		CountryTotalsPath: "/country/code",

		APIHost: "covid-19-data.p.rapidapi.com",

		RequestTimeout:    10 * time.Second,
		RequestsPerSecond: 0,
		UserAgent:         "covidash",
	}
}

// WithBaseURL returns a copy of the config with a different API root.
func (c CollectorConfig) WithBaseURL(u string) CollectorConfig {
	c.BaseURL = u
	return c
}

// WithCredentials returns a copy of the config with the given API key and host.
func (c CollectorConfig) WithCredentials(key, host string) CollectorConfig {
	c.APIKey = key
	c.APIHost = host
	return c
}

// WithRequestTimeout returns a copy of the config with modified request timeout.
func (c CollectorConfig) WithRequestTimeout(d time.Duration) CollectorConfig {
	c.RequestTimeout = d
	return c
}

// WithRequestsPerSecond returns a copy of the config with client side pacing.
func (c CollectorConfig) WithRequestsPerSecond(rps float64) CollectorConfig {
	c.RequestsPerSecond = rps
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c CollectorConfig) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "BaseURL", Message: "must not be empty"}
	}
	if c.CountriesPath == "" {
		return &ConfigError{Field: "CountriesPath", Message: "must not be empty"}
	}
	if c.GlobalTotalsPath == "" {
		return &ConfigError{Field: "GlobalTotalsPath", Message: "must not be empty"}
	}
	if c.CountryTotalsPath == "" {
		return &ConfigError{Field: "CountryTotalsPath", Message: "must not be empty"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigError{Field: "RequestTimeout", Message: "must be positive"}
	}
	if c.RequestsPerSecond < 0 {
		return &ConfigError{Field: "RequestsPerSecond", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}
