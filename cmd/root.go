package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/kmldedup/internal/config"
	"github.com/UnknownOlympus/kmldedup/internal/metrics"
	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/UnknownOlympus/kmldedup/internal/repository"
	"github.com/UnknownOlympus/kmldedup/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	minArgs = 2
	maxArgs = 3

	shortDesc = "Remove duplicate placemarks from a KML document."
	longDesc  = `Remove duplicate placemarks from a KML document.

Two placemarks are duplicates when their coordinates are identical, optionally
after rounding longitude and latitude to decimal_places. The first placemark
for each coordinate string is kept and the rest are dropped. Surviving
placemarks are moved directly under the Document element unless
--preserve-folders is given.`
)

// app bundles what the root command needs to build a DedupService.
type app struct {
	log      *slog.Logger
	repo     repository.Interface
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func newRootCmd(cfg *config.Config, a *app) *cobra.Command {
	var (
		preserveFolders bool
		metricsFile     string
	)

	cmd := &cobra.Command{
		Use:           "kmldedup [flags] <input_kml_file> <output_kml_file> [decimal_places]",
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < minArgs || len(args) > maxArgs {
				return fmt.Errorf("%w: expected %d or %d arguments, got %d", models.ErrUsage, minArgs, maxArgs, len(args))
			}

			return nil
		},
	}

	// Flags end at the first positional argument, so a negative decimal_places
	// is read as a number rather than a shorthand flag.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&preserveFolders, "preserve-folders", cfg.PreserveFolders,
		"Keep surviving placemarks in their folders instead of moving them under Document")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", cfg.MetricsFile,
		"Write Prometheus metrics to this file after the run")

	err := cmd.MarkFlagFilename("metrics-file", "prom")
	if err != nil {
		panic(err)
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", models.ErrUsage, err)
	})

	cmd.RunE = func(cc *cobra.Command, args []string) (err error) {
		precision := models.NoPrecision()
		if len(args) == maxArgs {
			precision, err = parsePrecision(args[2])
			if err != nil {
				return err
			}
		}

		if metricsFile != "" {
			defer func() {
				if errMetrics := metrics.WriteTextfile(metricsFile, a.registry); errMetrics != nil {
					a.log.WarnContext(cc.Context(), "Failed to write metrics", "path", metricsFile, "error", errMetrics)
				}
			}()
		}

		svc := service.NewDedupService(a.log, a.repo, a.metrics, service.Options{PreserveFolders: preserveFolders})
		if _, err = svc.Run(cc.Context(), args[0], args[1], precision); err != nil {
			return err
		}

		fmt.Fprintf(cc.OutOrStdout(), "Duplicates removed. Output saved to %s\n", args[1])

		return nil
	}

	return cmd
}

// execute runs cmd and maps its outcome to a process exit code. Usage errors
// print the usage line on stdout; anything else is reported on stderr.
func execute(cmd *cobra.Command) int {
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, models.ErrUsage):
		fmt.Fprintln(cmd.OutOrStdout(), "Usage: "+cmd.UseLine())
		return 1
	default:
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: "+err.Error())
		return 1
	}
}

func parsePrecision(arg string) (models.Precision, error) {
	places, err := strconv.Atoi(arg)
	if err != nil {
		return models.Precision{}, fmt.Errorf("%w: decimal places must be an integer, got %q", models.ErrParse, arg)
	}

	return models.NewPrecision(places)
}
