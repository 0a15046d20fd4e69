package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"covidash/internal/charts"
	"covidash/internal/mcpserver"
)

func (a *app) newMCPCmd() *cobra.Command {
	var cacheTTL time.Duration
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the statistics as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMCPCmd(cmd, cacheTTL)
		},
	}
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", mcpserver.DefaultConfig().CacheTTL, "how long API answers are reused")
	return cmd
}

func (a *app) runMCPCmd(cmd *cobra.Command, cacheTTL time.Duration) error {
	s, err := a.settings(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol
	log, closer, err := stderrLogger(cmd, s)
	if err != nil {
		return err
	}
	defer closer.Close()

	numbers, err := charts.ParseLocale(s.Locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", s.Locale, err)
	}

	// Tool calls arrive unsynchronised, so pace them to one per window.
	cfg := s.Collector
	if cfg.RequestsPerSecond == 0 && s.Loader.Window > 0 {
		cfg.RequestsPerSecond = float64(time.Second) / float64(s.Loader.Window)
	}
	c, err := a.newCollector(cfg, log)
	if err != nil {
		return err
	}

	srvCfg := mcpserver.DefaultConfig()
	srvCfg.CacheTTL = cacheTTL
	srvCfg.Numbers = numbers
	srv, err := mcpserver.NewServer(srvCfg, c, log.WithField("component", "mcp"))
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.Start(cmd.Context())
}
