package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"covidash/internal/charts"
	"covidash/internal/config"
	"covidash/internal/loader"
	"covidash/ui/console"
)

func (a *app) newReportCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the totals of one scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReportCmd(cmd, country)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "alpha-2 country code, empty or 'all' for global")
	return cmd
}

func (a *app) runReportCmd(cmd *cobra.Command, country string) error {
	s, err := a.settings(cmd)
	if err != nil {
		return err
	}
	log, closer, err := stderrLogger(cmd, s)
	if err != nil {
		return err
	}
	defer closer.Close()

	numbers, err := charts.ParseLocale(s.Locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", s.Locale, err)
	}

	stats, err := a.fetchScope(cmd.Context(), s, log, loader.Country(country))
	if err != nil {
		return err
	}

	console.Print(cmd.OutOrStdout(), console.Report{
		Summary:   charts.BuildSummary(stats.Title(), stats.Records[0], numbers),
		FetchedAt: stats.FetchedAt,
	})
	return nil
}

// fetchScope loads the totals of one scope. Only the totals endpoint is hit, so
// the rate-limit window does not apply.
func (a *app) fetchScope(ctx context.Context, s config.Settings, log *logrus.Entry, scope loader.Scope) (loader.Statistics, error) {
	l, err := a.newLoader(s, log)
	if err != nil {
		return loader.Statistics{}, err
	}
	defer l.Close()

	if scope.IsGlobal() {
		// Global is the initial scope, so SetScope would be a no-op.
		_ = l.Refresh(ctx)
	} else {
		l.SetScope(ctx, scope)
		l.Wait()
	}

	if err := l.Statistics().Err(); err != nil {
		return loader.Statistics{}, err
	}
	stats, ok := l.Statistics().Value()
	if !ok || len(stats.Records) == 0 {
		return loader.Statistics{}, fmt.Errorf("no statistics for %s", scope)
	}
	return stats, nil
}
