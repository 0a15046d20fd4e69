package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"covidash/internal/charts"
	"covidash/internal/loader"
)

type exportOptions struct {
	country string
	chart   string
	format  string
	out     string
}

func (a *app) newExportCmd() *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the bar or donut chart of one scope as PNG or SVG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runExportCmd(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.country, "country", "", "alpha-2 country code, empty or 'all' for global")
	cmd.Flags().StringVar(&opts.chart, "chart", "bar", "chart to render (bar or donut)")
	cmd.Flags().StringVar(&opts.format, "format", "png", "image format (png or svg)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file, '-' for stdout (default: covidash-<chart>.<format>)")
	return cmd
}

func (a *app) runExportCmd(cmd *cobra.Command, opts exportOptions) error {
	format, err := charts.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	chartKind := strings.ToLower(strings.TrimSpace(opts.chart))
	if chartKind != "bar" && chartKind != "donut" {
		return fmt.Errorf("unknown chart %q (want bar or donut)", opts.chart)
	}

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

	stats, err := a.fetchScope(cmd.Context(), s, log, loader.Country(opts.country))
	if err != nil {
		return err
	}

	var projector charts.Projector
	bar, donut := projector.Apply(stats.Records)

	var hooks []charts.SVGHook
	if s.SVGBase != "" {
		hooks = append(hooks, charts.FixSVGFillRefs(s.SVGBase))
	}
	r := charts.NewRenderer(hooks...)
	r.Width = s.ImageWidth
	r.Height = s.ImageHeight
	r.Title = stats.Title()
	r.Numbers = numbers

	out := opts.out
	if out == "" {
		out = fmt.Sprintf("covidash-%s.%s", chartKind, format)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	switch chartKind {
	case "bar":
		err = r.RenderBar(w, bar, format)
	case "donut":
		err = r.RenderDonut(w, donut, format)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s chart: %w", chartKind, err)
	}

	if out != "-" {
		log.WithField("file", out).Info("chart written")
	}
	return nil
}
