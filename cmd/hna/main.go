package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/ridgelinedata/hna-etl/internal/adapter/census"
	"github.com/ridgelinedata/hna-etl/internal/adapter/dola"
	"github.com/ridgelinedata/hna-etl/internal/adapter/lodes"
	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/diagnostics"
	"github.com/ridgelinedata/hna-etl/internal/fetch"
	"github.com/ridgelinedata/hna-etl/internal/observability"
	"github.com/ridgelinedata/hna-etl/internal/pipeline"
)

func main() {
	// Local development convenience; the scheduled job injects real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := fetch.New(fetch.Config{
		Timeout: cfg.HTTPTimeout,
		Secrets: []fetch.Secret{{Name: "CENSUS_API_KEY", Value: cfg.CensusAPIKey}},
	}, clockwork.NewRealClock(), logger, metrics)

	censusClient := census.New(cfg, fetcher, logger, metrics)
	dolaClient := dola.New(fetcher, logger, config.StateFIPS, cfg.CacheDir())
	lodesClient := lodes.New(fetcher, logger, "co")
	diag := diagnostics.New(fetcher, logger, cfg.CensusAPIKey, config.StateFIPS,
		cfg.ACSStartYear, cfg.ACSFallbackYears, cfg.DebugLogPath())

	p := pipeline.New(cfg, censusClient, dolaClient, lodesClient, diag, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("could not write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	logger.Info("run complete", "output_dir", cfg.OutputDir)
}
