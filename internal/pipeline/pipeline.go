// Package pipeline orchestrates one ETL run: it pulls from the Census,
// LEHD, and State Demography Office adapters, derives the analysis
// products, and writes the JSON snapshot tree. Builders run sequentially
// and are isolated from one another: a failed dataset is logged and
// counted, never allowed to abort the datasets that follow it.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/ridgelinedata/hna-etl/internal/adapter/census"
	"github.com/ridgelinedata/hna-etl/internal/adapter/dola"
	"github.com/ridgelinedata/hna-etl/internal/adapter/lodes"
	"github.com/ridgelinedata/hna-etl/internal/config"
	"github.com/ridgelinedata/hna-etl/internal/diagnostics"
	"github.com/ridgelinedata/hna-etl/internal/observability"
)

// Builder outcomes recorded on the run counter.
const (
	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeSkipped = "skipped"
	outcomeFailure = "failure"
)

// Pipeline wires the adapters to the snapshot builders for one run.
type Pipeline struct {
	cfg     *config.Config
	census  *census.Client
	dola    *dola.Client
	lodes   *lodes.Client
	diag    *diagnostics.Runner
	logger  *slog.Logger
	metrics *observability.Metrics
}

func New(cfg *config.Config, censusClient *census.Client, dolaClient *dola.Client, lodesClient *lodes.Client, diag *diagnostics.Runner, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		census:  censusClient,
		dola:    dolaClient,
		lodes:   lodesClient,
		diag:    diag,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes every builder in dependency order. The geography config is
// always attempted first because later builders fall back to its cached
// county list. Skip flags disable dataset groups; within a group, builder
// failures are isolated. Only an unusable output directory is fatal.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.ensureDirs(); err != nil {
		return err
	}

	p.runBuilder(ctx, "geo_config", false, p.buildGeoConfig)
	p.runBuilder(ctx, "summary", p.cfg.SkipACS, p.buildSummaries)
	p.runBuilder(ctx, "derived", p.cfg.SkipACS || p.cfg.SkipDerived, p.buildDerived)
	p.runBuilder(ctx, "lehd", p.cfg.SkipLEHD, p.buildLEHD)
	p.runBuilder(ctx, "sya", p.cfg.SkipDOLA, p.buildSYA)
	p.runBuilder(ctx, "projections", p.cfg.SkipDOLA, p.buildProjections)
	return nil
}

// runBuilder wraps one builder with skip handling, outcome metrics, and
// panic-free error isolation.
func (p *Pipeline) runBuilder(ctx context.Context, name string, skip bool, fn func(context.Context) (string, error)) {
	if skip {
		p.logger.Info("builder skipped by configuration", "builder", name)
		p.metrics.BuilderRuns.WithLabelValues(name, outcomeSkipped).Inc()
		return
	}
	if ctx.Err() != nil {
		p.logger.Warn("builder skipped, run cancelled", "builder", name)
		p.metrics.BuilderRuns.WithLabelValues(name, outcomeSkipped).Inc()
		return
	}

	outcome, err := fn(ctx)
	if err != nil {
		p.logger.Error("builder failed", "builder", name, "error", err)
		p.metrics.BuilderRuns.WithLabelValues(name, outcomeFailure).Inc()
		return
	}
	p.logger.Info("builder finished", "builder", name, "outcome", outcome)
	p.metrics.BuilderRuns.WithLabelValues(name, outcome).Inc()
}

// countyIDs returns the county GEOIDs a per-county builder should emit,
// preferring the live TIGERweb list and falling back to the cached
// geography config written on an earlier run.
func (p *Pipeline) countyIDs(ctx context.Context) []string {
	counties := p.census.Counties(ctx)
	if len(counties) == 0 {
		counties = p.cachedCounties()
	}
	ids := make([]string, 0, len(counties))
	for _, c := range counties {
		ids = append(ids, c.GeoID)
	}
	return ids
}

// sourceRef is the provenance block attached to snapshot documents.
type sourceRef map[string]string
