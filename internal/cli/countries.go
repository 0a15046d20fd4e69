package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"covidash/internal/collector"
	"covidash/internal/loader"
	"covidash/ui/console"
)

func (a *app) newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries [prefix]",
		Short: "List the countries, optionally filtered by name prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runCountriesCmd,
	}
}

func (a *app) runCountriesCmd(cmd *cobra.Command, args []string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return err
	}
	log, closer, err := stderrLogger(cmd, s)
	if err != nil {
		return err
	}
	defer closer.Close()

	c, err := a.newCollector(s.Collector, log)
	if err != nil {
		return err
	}
	countries, err := c.FetchCountries(cmd.Context())
	if err != nil {
		return &collector.FetchError{Stage: collector.StageCountryList, Cause: err}
	}

	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	matches := loader.FilterCountries(loader.WithAll(countries), prefix)
	if len(matches) == 0 {
		return fmt.Errorf("no country matches %q", prefix)
	}
	console.PrintCountries(cmd.OutOrStdout(), matches)
	return nil
}
