package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"veritas-health/sentinel/pkg/config"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/engines/ensemble"
	"veritas-health/sentinel/pkg/engines/legality"
	"veritas-health/sentinel/pkg/engines/network"
	"veritas-health/sentinel/pkg/engines/stats"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/rules"
	"veritas-health/sentinel/pkg/storage"
	"veritas-health/sentinel/pkg/telemetry/logging"
)

// application bundles the wired evaluation pipeline and its stores. The
// pipeline can be swapped on configuration reload; the stores and metrics
// live for the process.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.Store
	refStore *storage.ReferenceStore
	metrics  *evaluation.Metrics

	mu   sync.RWMutex
	orch *evaluation.Orchestrator
}

// newApplication loads the configuration and wires the full pipeline:
// stores, enrichment builder, rule chain, scoring engines, orchestrator.
// Metrics register against reg; pass nil for the default registerer.
func newApplication(reg prometheus.Registerer) (*application, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Telemetry.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, err := storage.NewStore(cfg.Storage.Claims, logger)
	if err != nil {
		return nil, fmt.Errorf("open claim store: %w", err)
	}
	refStore, err := storage.NewReferenceStore(cfg.Storage.Reference, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open reference store: %w", err)
	}

	app := &application{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		refStore: refStore,
		metrics:  evaluation.NewMetrics(reg),
	}
	app.orch = app.buildPipeline(cfg)
	return app, nil
}

// buildPipeline constructs a fresh orchestrator from cfg on top of the
// long-lived stores and metrics.
//
// The ensemble ships without trained models and scores neutral until
// scorers are plugged in; the network engine reports unavailable until a
// graph backend is configured.
func (a *application) buildPipeline(cfg *config.Config) *evaluation.Orchestrator {
	builder := enrichment.NewBuilder(a.store, a.refStore, a.refStore, cfg.Enrichment, a.logger)
	chain := rules.NewChain(cfg.Rules, a.logger)
	engineSet := []engines.Engine{
		stats.New(cfg.Engines.Statistical, a.logger),
		ensemble.New(nil, nil, cfg.Engines.Ensemble, a.logger),
		network.New(nil, cfg.Engines.Network, a.logger),
		legality.New(cfg.Engines.Legality, a.logger),
	}
	return evaluation.New(a.store, builder, chain, engineSet, cfg.Scoring,
		a.store, cfg.Evaluation, a.metrics, a.logger)
}

// orchestrator returns the current pipeline.
func (a *application) orchestrator() *evaluation.Orchestrator {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.orch
}

// reload swaps in a pipeline built from the new configuration. Storage
// and telemetry settings are not reloadable; changes there take effect on
// restart.
func (a *application) reload(cfg *config.Config) {
	orch := a.buildPipeline(cfg)
	a.mu.Lock()
	a.cfg = cfg
	a.orch = orch
	a.mu.Unlock()
	a.logger.Info("evaluation pipeline rebuilt from reloaded configuration")
}

func (a *application) Close() {
	if err := a.refStore.Close(); err != nil {
		a.logger.Error("close reference store", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("close claim store", "error", err)
	}
}
