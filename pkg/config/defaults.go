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

// ApplyDefaults fills every unset field with its package default. Only
// zero values are touched; explicit settings survive.
func ApplyDefaults(cfg *Config) {
	applyRuleDefaults(&cfg.Rules)

	if cfg.Enrichment.LookupTimeout <= 0 {
		cfg.Enrichment = enrichment.DefaultBuilderConfig()
	}

	applyStatsDefaults(&cfg.Engines.Statistical)
	applyEnsembleDefaults(&cfg.Engines.Ensemble)
	applyNetworkDefaults(&cfg.Engines.Network)
	applyLegalityDefaults(&cfg.Engines.Legality)
	applyScoringDefaults(&cfg.Scoring)

	defEval := evaluation.DefaultConfig()
	if cfg.Evaluation.EngineTimeout <= 0 {
		cfg.Evaluation.EngineTimeout = defEval.EngineTimeout
	}
	if cfg.Evaluation.BatchConcurrency <= 0 {
		cfg.Evaluation.BatchConcurrency = defEval.BatchConcurrency
	}

	defClaims := storage.DefaultConfig()
	if cfg.Storage.Claims.Path == "" {
		cfg.Storage.Claims.Path = defClaims.Path
	}
	if cfg.Storage.Claims.MaxOpenConns <= 0 {
		cfg.Storage.Claims.MaxOpenConns = defClaims.MaxOpenConns
	}
	if cfg.Storage.Claims.MaxIdleConns <= 0 {
		cfg.Storage.Claims.MaxIdleConns = defClaims.MaxIdleConns
	}
	if cfg.Storage.Claims.BusyTimeout <= 0 {
		cfg.Storage.Claims.BusyTimeout = defClaims.BusyTimeout
	}
	defRef := storage.DefaultReferenceConfig()
	if cfg.Storage.Reference.Path == "" {
		cfg.Storage.Reference.Path = defRef.Path
	}
	if cfg.Storage.Reference.BusyTimeout <= 0 {
		cfg.Storage.Reference.BusyTimeout = defRef.BusyTimeout
	}

	defRetention := retention.DefaultConfig()
	if cfg.Retention.RetentionDays == 0 && cfg.Retention.PruneSchedule == "" {
		cfg.Retention = defRetention
	}

	defLogging := logging.DefaultConfig()
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = defLogging.Level
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = defLogging.Format
	}
	if cfg.Telemetry.MetricsAddress == "" {
		cfg.Telemetry.MetricsAddress = ":9090"
	}
}

func applyRuleDefaults(cfg *rules.Config) {
	def := rules.DefaultConfig()
	if cfg.CriticalPriorityCutoff <= 0 {
		cfg.CriticalPriorityCutoff = def.CriticalPriorityCutoff
	}
	if cfg.WarningPenalty <= 0 {
		cfg.WarningPenalty = def.WarningPenalty
	}
	if cfg.MinDocumentationLength <= 0 {
		cfg.MinDocumentationLength = def.MinDocumentationLength
	}
	if cfg.BriefDocumentationLength <= 0 {
		cfg.BriefDocumentationLength = def.BriefDocumentationLength
	}
	if cfg.ProviderFrequencyLimit <= 0 {
		cfg.ProviderFrequencyLimit = def.ProviderFrequencyLimit
	}
	if cfg.PatientFrequencyLimit <= 0 {
		cfg.PatientFrequencyLimit = def.PatientFrequencyLimit
	}
	if cfg.FrequencyWindowDays <= 0 {
		cfg.FrequencyWindowDays = def.FrequencyWindowDays
	}
	if cfg.NearDuplicatePct <= 0 {
		cfg.NearDuplicatePct = def.NearDuplicatePct
	}
	if cfg.NearDuplicateWindowDays <= 0 {
		cfg.NearDuplicateWindowDays = def.NearDuplicateWindowDays
	}
	if cfg.DefaultAmountCeilingCents <= 0 {
		cfg.DefaultAmountCeilingCents = def.DefaultAmountCeilingCents
	}
}

func applyStatsDefaults(cfg *stats.Config) {
	def := stats.DefaultConfig()
	if cfg.ZOutlier <= 0 {
		cfg.ZOutlier = def.ZOutlier
	}
	if cfg.ZModerate <= 0 {
		cfg.ZModerate = def.ZModerate
	}
	if cfg.BenfordAlpha <= 0 {
		cfg.BenfordAlpha = def.BenfordAlpha
	}
	if cfg.MinBenfordSamples <= 0 {
		cfg.MinBenfordSamples = def.MinBenfordSamples
	}
	if cfg.SpikeWindow <= 0 {
		cfg.SpikeWindow = def.SpikeWindow
	}
	if cfg.SpikeMultiplier <= 0 {
		cfg.SpikeMultiplier = def.SpikeMultiplier
	}
}

func applyEnsembleDefaults(cfg *ensemble.Config) {
	def := ensemble.DefaultConfig()
	if cfg.SupervisedWeight <= 0 {
		cfg.SupervisedWeight = def.SupervisedWeight
	}
	if cfg.UnsupervisedWeight <= 0 {
		cfg.UnsupervisedWeight = def.UnsupervisedWeight
	}
	if cfg.NeutralProbability <= 0 {
		cfg.NeutralProbability = def.NeutralProbability
	}
}

func applyNetworkDefaults(cfg *network.Config) {
	def := network.DefaultConfig()
	if cfg.HighCentrality <= 0 {
		cfg.HighCentrality = def.HighCentrality
	}
	if cfg.Fragmentation <= 0 {
		cfg.Fragmentation = def.Fragmentation
	}
}

func applyLegalityDefaults(cfg *legality.Config) {
	def := legality.DefaultConfig()
	if cfg.IncompatiblePenalty <= 0 {
		cfg.IncompatiblePenalty = def.IncompatiblePenalty
	}
	if cfg.UnbundlingPenalty <= 0 {
		cfg.UnbundlingPenalty = def.UnbundlingPenalty
	}
	if cfg.FeeRangePenalty <= 0 {
		cfg.FeeRangePenalty = def.FeeRangePenalty
	}
	if cfg.CheckErrorPenalty <= 0 {
		cfg.CheckErrorPenalty = def.CheckErrorPenalty
	}
}

func applyScoringDefaults(cfg *scoring.Config) {
	def := scoring.DefaultConfig()
	zero := scoring.Weights{}
	if cfg.Weights == zero {
		cfg.Weights = def.Weights
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = def.HighThreshold
	}
	if cfg.MediumThreshold <= 0 {
		cfg.MediumThreshold = def.MediumThreshold
	}
}
