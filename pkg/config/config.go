package config

import (
	"veritas-health/sentinel/pkg/engines/ensemble"
	"veritas-health/sentinel/pkg/engines/legality"
	"veritas-health/sentinel/pkg/engines/network"
	"veritas-health/sentinel/pkg/engines/stats"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/retention"
	"veritas-health/sentinel/pkg/rules"
	"veritas-health/sentinel/pkg/scoring"
	"veritas-health/sentinel/pkg/storage"
	"veritas-health/sentinel/pkg/telemetry/logging"
)

// Config is the complete service configuration.
type Config struct {
	// Rules configures the compliance rule chain.
	Rules rules.Config `yaml:"rules"`

	// Enrichment configures the context builder.
	Enrichment enrichment.BuilderConfig `yaml:"enrichment"`

	// Engines configures the four scoring engines.
	Engines EnginesConfig `yaml:"engines"`

	// Scoring configures aggregation weights and risk thresholds.
	Scoring scoring.Config `yaml:"scoring"`

	// Evaluation configures the orchestrator.
	Evaluation evaluation.Config `yaml:"evaluation"`

	// Storage configures the SQLite stores.
	Storage StorageConfig `yaml:"storage"`

	// Retention configures result pruning.
	Retention retention.Config `yaml:"retention"`

	// Telemetry configures logging and metrics exposure.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EnginesConfig groups the per-engine tunables.
type EnginesConfig struct {
	// Statistical configures the statistical anomaly engine.
	Statistical stats.Config `yaml:"statistical"`

	// Ensemble configures the predictive ensemble engine.
	Ensemble ensemble.Config `yaml:"ensemble"`

	// Network configures the network risk engine.
	Network network.Config `yaml:"network"`

	// Legality configures the code-legality engine.
	Legality legality.Config `yaml:"legality"`
}

// StorageConfig groups the persistence backends.
type StorageConfig struct {
	// Claims configures the claim and result store.
	Claims storage.Config `yaml:"claims"`

	// Reference configures the code reference store.
	Reference storage.ReferenceConfig `yaml:"reference"`
}

// TelemetryConfig groups observability settings.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging logging.Config `yaml:"logging"`

	// MetricsAddress is the listen address for the Prometheus metrics
	// endpoint. Default: ":9090"
	MetricsAddress string `yaml:"metrics_address"`
}

// Default returns the fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
