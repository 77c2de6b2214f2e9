package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/UnknownOlympus/kmldedup/internal/config"
	"github.com/UnknownOlympus/kmldedup/internal/metrics"
	"github.com/UnknownOlympus/kmldedup/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment. Stdout is reserved for the
	// usage and confirmation messages.
	logger := setupLogger(cfg.Env, os.Stderr)

	// Create a separate registry for metrics, written out only when requested.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.NewMetrics(reg)

	cmd := newRootCmd(cfg, &app{
		log:      logger,
		repo:     repository.NewOSRepository(logger),
		registry: reg,
		metrics:  appMetrics,
	})

	os.Exit(execute(cmd))
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string, out io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
