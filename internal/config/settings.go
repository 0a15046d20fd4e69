package config

import (
	"os"
	"time"

	"covidash/internal/collector"
	"covidash/internal/loader"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey  = "COVIDASH_API_KEY"
	EnvAPIHost = "COVIDASH_API_HOST"
	EnvBaseURL = "COVIDASH_BASE_URL"
)

// Settings is the resolved configuration of one run.
type Settings struct {
	Collector collector.CollectorConfig
	Loader    loader.LoaderConfig

	Locale      string
	ImageWidth  int
	ImageHeight int
	SVGBase     string

	LogLevel string
	LogFile  string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Collector:   collector.DefaultCollectorConfig(),
		Loader:      loader.DefaultLoaderConfig(),
		Locale:      "en",
		ImageWidth:  800,
		ImageHeight: 480,
		LogLevel:    "info",
		LogFile:     DefaultLogPath(),
	}
}

// ApplyFile overlays the values set in the file.
func (s *Settings) ApplyFile(fc FileConfig) {
	setString(&s.Collector.BaseURL, fc.API.BaseURL)
	setString(&s.Collector.APIKey, fc.API.Key)
	setString(&s.Collector.APIHost, fc.API.Host)
	setDuration(&s.Collector.RequestTimeout, fc.API.Timeout)
	if fc.API.RequestsPerSecond != nil {
		s.Collector.RequestsPerSecond = *fc.API.RequestsPerSecond
	}

	setDuration(&s.Loader.Window, fc.Loader.Window)
	setDuration(&s.Loader.RefreshInterval, fc.Loader.Refresh)

	setString(&s.Locale, fc.Display.Locale)
	setInt(&s.ImageWidth, fc.Display.ImageWidth)
	setInt(&s.ImageHeight, fc.Display.ImageHeight)
	setString(&s.SVGBase, fc.Display.SVGBase)

	setString(&s.LogLevel, fc.Log.Level)
	setString(&s.LogFile, fc.Log.File)
}

// ApplyEnv overlays credentials and the API root from the environment.
// A nil lookup uses os.LookupEnv.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		s.Collector.APIKey = v
	}
	if v, ok := lookup(EnvAPIHost); ok && v != "" {
		s.Collector.APIHost = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		s.Collector.BaseURL = v
	}
}

// Validate checks the collector and loader sections.
func (s Settings) Validate() error {
	if err := s.Collector.Validate(); err != nil {
		return err
	}
	if err := s.Loader.Validate(); err != nil {
		return err
	}
	if s.ImageWidth <= 0 {
		return &collector.ConfigError{Field: "ImageWidth", Message: "must be positive"}
	}
	if s.ImageHeight <= 0 {
		return &collector.ConfigError{Field: "ImageHeight", Message: "must be positive"}
	}
	return nil
}

// Load resolves defaults, the file at path and the environment, in that order.
func Load(path string) (Settings, error) {
	s := Defaults()
	fc, err := LoadConfig(path)
	if err != nil {
		return s, err
	}
	s.ApplyFile(fc)
	s.ApplyEnv(nil)
	return s, nil
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value *Duration) {
	if value != nil {
		*target = time.Duration(*value)
	}
}
