// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a Go duration string ("1s", "250ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API     APIConfig     `toml:"api"`
	Loader  LoaderConfig  `toml:"loader"`
	Display DisplayConfig `toml:"display"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig maps the remote API settings.
type APIConfig struct {
	BaseURL           *string   `toml:"base-url"`
	Key               *string   `toml:"key"`
	Host              *string   `toml:"host"`
	Timeout           *Duration `toml:"timeout"`
	RequestsPerSecond *float64  `toml:"requests-per-second"`
}

// LoaderConfig maps the load sequence timing.
type LoaderConfig struct {
	Window  *Duration `toml:"window"`
	Refresh *Duration `toml:"refresh"`
}

// DisplayConfig maps presentation settings.
type DisplayConfig struct {
	Locale      *string `toml:"locale"`
	ImageWidth  *int    `toml:"image-width"`
	ImageHeight *int    `toml:"image-height"`
	SVGBase     *string `toml:"svg-base"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// DefaultTemplate is written by `covidash config` when no file exists yet.
func DefaultTemplate() string {
	d := Defaults()
	return fmt.Sprintf(`# covidash configuration
# Uncomment a value to enable it. Environment variables and CLI flags override config values.

[api]
# base-url = %q
# key = ""                        # x-rapidapi-key, or set %s
# host = %q
# timeout = %q
# requests-per-second = 0         # client side pacing, 0 disables

[loader]
# window = %q                     # delay between the country list and the first totals fetch
# refresh = "0s"                  # periodic refresh, 0 disables, otherwise at least window

[display]
# locale = %q
# image-width = %d
# image-height = %d
# svg-base = ""                   # prefix for fill="url(#id)" references in SVG exports

[log]
# level = %q
# file = %q
`,
		d.Collector.BaseURL, EnvAPIKey, d.Collector.APIHost, d.Collector.RequestTimeout.String(),
		d.Loader.Window.String(),
		d.Locale, d.ImageWidth, d.ImageHeight,
		d.LogLevel, d.LogFile,
	)
}
