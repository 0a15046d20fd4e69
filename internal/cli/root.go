// Package cli wires the covidash commands.
package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"covidash/internal/charts"
	"covidash/internal/collector"
	"covidash/internal/config"
	"covidash/internal/loader"
	"covidash/internal/logging"
	"covidash/ui/tui"
)

// rootFlags are shared by every command. They override the config file and the
// environment only when set on the command line.
type rootFlags struct {
	configPath string
	apiKey     string
	apiHost    string
	baseURL    string
	rps        float64
	window     time.Duration
	refresh    time.Duration
	locale     string
	logLevel   string
	logFile    string
}

type app struct {
	flags rootFlags
	// httpClient replaces the collector's client when set.
	httpClient *http.Client
	lookupEnv  func(string) (string, bool)
}

// NewRootCmd builds the covidash command tree.
func NewRootCmd() *cobra.Command {
	a := &app{lookupEnv: os.LookupEnv}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	defaults := config.Defaults()

	rootCmd := &cobra.Command{
		Use:           "covidash",
		Short:         "COVID-19 statistics dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          a.runDashboardCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", config.DefaultConfigPath(), "config file")
	pf.StringVar(&a.flags.apiKey, "api-key", "", "RapidAPI key (x-rapidapi-key)")
	pf.StringVar(&a.flags.apiHost, "api-host", defaults.Collector.APIHost, "RapidAPI host (x-rapidapi-host)")
	pf.StringVar(&a.flags.baseURL, "base-url", defaults.Collector.BaseURL, "API root")
	pf.Float64Var(&a.flags.rps, "rps", defaults.Collector.RequestsPerSecond, "client side request pacing, 0 disables")
	pf.DurationVar(&a.flags.window, "window", defaults.Loader.Window, "delay between the country list and the first totals fetch")
	pf.DurationVar(&a.flags.refresh, "refresh", defaults.Loader.RefreshInterval, "periodic refresh interval, 0 disables")
	pf.StringVar(&a.flags.locale, "locale", defaults.Locale, "number formatting locale (BCP 47)")
	pf.StringVar(&a.flags.logLevel, "log-level", defaults.LogLevel, "log level")
	pf.StringVar(&a.flags.logFile, "log-file", defaults.LogFile, "log file used while the dashboard runs")

	rootCmd.AddCommand(a.newReportCmd())
	rootCmd.AddCommand(a.newExportCmd())
	rootCmd.AddCommand(a.newCountriesCmd())
	rootCmd.AddCommand(a.newMCPCmd())
	rootCmd.AddCommand(a.newConfigCmd())

	return rootCmd
}

func (a *app) runDashboardCmd(cmd *cobra.Command, _ []string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return err
	}

	// the alt screen owns stdout, so the dashboard always logs to a file
	logger, closer, err := logging.Setup(logging.Options{Level: s.LogLevel, File: s.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()
	log := logrus.NewEntry(logger)

	numbers, err := charts.ParseLocale(s.Locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", s.Locale, err)
	}

	l, err := a.newLoader(s, log)
	if err != nil {
		return err
	}
	defer l.Close()

	refresher, err := loader.NewRefresher(l)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"base_url": s.Collector.BaseURL,
		"window":   s.Loader.Window,
		"refresh":  s.Loader.RefreshInterval,
	}).Info("starting dashboard")

	if err := tui.Start(l, tui.Options{Numbers: numbers, Log: log, Refresher: refresher}); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// settings resolves defaults, the config file, the environment and finally the
// flags that were set explicitly.
func (a *app) settings(cmd *cobra.Command) (config.Settings, error) {
	s := config.Defaults()
	fc, err := config.LoadConfig(a.flags.configPath)
	if err != nil {
		return s, fmt.Errorf("failed to load config: %w", err)
	}
	s.ApplyFile(fc)
	s.ApplyEnv(a.lookupEnv)

	applyStringFlag(cmd, "api-key", &s.Collector.APIKey, a.flags.apiKey)
	applyStringFlag(cmd, "api-host", &s.Collector.APIHost, a.flags.apiHost)
	applyStringFlag(cmd, "base-url", &s.Collector.BaseURL, a.flags.baseURL)
	applyFloatFlag(cmd, "rps", &s.Collector.RequestsPerSecond, a.flags.rps)
	applyDurationFlag(cmd, "window", &s.Loader.Window, a.flags.window)
	applyDurationFlag(cmd, "refresh", &s.Loader.RefreshInterval, a.flags.refresh)
	applyStringFlag(cmd, "locale", &s.Locale, a.flags.locale)
	applyStringFlag(cmd, "log-level", &s.LogLevel, a.flags.logLevel)
	applyStringFlag(cmd, "log-file", &s.LogFile, a.flags.logFile)

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// stderrLogger is used by the one-shot commands.
func stderrLogger(cmd *cobra.Command, s config.Settings) (*logrus.Entry, io.Closer, error) {
	logger, closer, err := logging.Setup(logging.Options{Level: s.LogLevel, Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return nil, nil, err
	}
	return logrus.NewEntry(logger), closer, nil
}

func (a *app) newCollector(cfg collector.CollectorConfig, log *logrus.Entry) (*collector.APICollector, error) {
	c, err := collector.NewAPICollector(cfg,
		collector.WithHTTPClient(a.httpClient),
		collector.WithLogger(log.WithField("component", "collector")),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}
	return c, nil
}

func (a *app) newLoader(s config.Settings, log *logrus.Entry) (*loader.Loader, error) {
	c, err := a.newCollector(s.Collector, log)
	if err != nil {
		return nil, err
	}
	return loader.New(c, s.Loader, loader.WithLogger(log.WithField("component", "loader")))
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyFloatFlag(cmd *cobra.Command, name string, target *float64, value float64) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}

func applyDurationFlag(cmd *cobra.Command, name string, target *time.Duration, value time.Duration) {
	if cmd.Flags().Changed(name) {
		*target = value
	}
}
