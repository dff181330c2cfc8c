package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file, applies defaults
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads the configuration and applies
// SENTINEL_* environment variable overrides on top of the file values.
// Overrides are re-validated; an override that breaks validation fails
// the load.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SENTINEL_RULES_CRITICAL_PRIORITY_CUTOFF"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Rules.CriticalPriorityCutoff = i
		}
	}
	if val := os.Getenv("SENTINEL_EVALUATION_ENGINE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Evaluation.EngineTimeout = d
		}
	}
	if val := os.Getenv("SENTINEL_EVALUATION_BATCH_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Evaluation.BatchConcurrency = i
		}
	}
	if val := os.Getenv("SENTINEL_STORAGE_CLAIMS_PATH"); val != "" {
		cfg.Storage.Claims.Path = val
	}
	if val := os.Getenv("SENTINEL_STORAGE_REFERENCE_PATH"); val != "" {
		cfg.Storage.Reference.Path = val
	}
	if val := os.Getenv("SENTINEL_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.RetentionDays = i
		}
	}
	if val := os.Getenv("SENTINEL_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("SENTINEL_METRICS_ADDRESS"); val != "" {
		cfg.Telemetry.MetricsAddress = val
	}
}
