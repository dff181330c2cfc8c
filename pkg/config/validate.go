package config

import (
	"fmt"
	"strings"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "scoring.weights").
	Field string

	// Message is the human-readable problem description.
	Message string
}

// Error returns the error message.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError aggregates every validation problem found in a
// configuration.
type ValidationError struct {
	// Errors contains all field errors found.
	Errors []FieldError
}

// Error returns a formatted string with all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the configuration and returns a ValidationError listing
// every problem, or nil when valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	if err := cfg.Scoring.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "scoring", Message: err.Error()})
	}
	if cfg.Rules.CriticalPriorityCutoff < 0 {
		errs = append(errs, FieldError{
			Field:   "rules.critical_priority_cutoff",
			Message: "must not be negative",
		})
	}
	if cfg.Rules.WarningPenalty < 0 || cfg.Rules.WarningPenalty > 1 {
		errs = append(errs, FieldError{
			Field:   "rules.warning_penalty",
			Message: fmt.Sprintf("must be in [0,1], got %v", cfg.Rules.WarningPenalty),
		})
	}
	for ruleID, severity := range cfg.Rules.SeverityOverrides {
		if severity < 0 || severity > 1 {
			errs = append(errs, FieldError{
				Field:   "rules.rule_weights." + ruleID,
				Message: fmt.Sprintf("severity must be in [0,1], got %v", severity),
			})
		}
	}
	if cfg.Engines.Statistical.ZModerate >= cfg.Engines.Statistical.ZOutlier {
		errs = append(errs, FieldError{
			Field:   "engines.statistical",
			Message: "z_moderate must be below z_outlier",
		})
	}
	if sum := cfg.Engines.Ensemble.SupervisedWeight + cfg.Engines.Ensemble.UnsupervisedWeight; sum < 0.999 || sum > 1.001 {
		errs = append(errs, FieldError{
			Field:   "engines.ensemble",
			Message: fmt.Sprintf("supervised and unsupervised weights must sum to 1.0, got %v", sum),
		})
	}
	if c := cfg.Engines.Network.HighCentrality; c <= 0 || c > 1 {
		errs = append(errs, FieldError{
			Field:   "engines.network.high_centrality",
			Message: fmt.Sprintf("must be in (0,1], got %v", c),
		})
	}
	if cfg.Storage.Claims.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.claims.path",
			Message: "path is required",
		})
	}
	if cfg.Storage.Reference.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.reference.path",
			Message: "path is required",
		})
	}
	if cfg.Retention.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.retention_days",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
