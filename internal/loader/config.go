package loader

import (
	"time"

	"covidash/internal/collector"
)

// LoaderConfig contains the timing parameters of the load sequence.
type LoaderConfig struct {
	Window          time.Duration // Spacing between the country list and the first totals fetch (default: 1s)
	RefreshInterval time.Duration // Periodic refresh, 0 disables, otherwise at least Window (default: 0)
}

// DefaultLoaderConfig returns a LoaderConfig with the API's rate-limit window.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Window:          time.Second,
		RefreshInterval: 0,
	}
}

// WithWindow returns a copy of the config with a different rate-limit window.
func (c LoaderConfig) WithWindow(d time.Duration) LoaderConfig {
	c.Window = d
	return c
}

// WithRefreshInterval returns a copy of the config with periodic refresh enabled.
func (c LoaderConfig) WithRefreshInterval(d time.Duration) LoaderConfig {
	c.RefreshInterval = d
	return c
}

// Validate checks if the configuration is valid and returns an error if not.
func (c LoaderConfig) Validate() error {
	if c.Window < 0 {
		return &collector.ConfigError{Field: "Window", Message: "must not be negative"}
	}
	if c.RefreshInterval < 0 {
		return &collector.ConfigError{Field: "RefreshInterval", Message: "must not be negative"}
	}
	if c.RefreshInterval > 0 && c.RefreshInterval < c.Window {
		return &collector.ConfigError{Field: "RefreshInterval", Message: "must be at least Window"}
	}
	return nil
}
