package rules

import (
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// Result is the outcome state of a single rule evaluation.
type Result string

const (
	// Passed means the rule evaluated and found no violation.
	Passed Result = "passed"

	// Failed means the rule evaluated and found a violation.
	Failed Result = "failed"

	// Skipped means the rule was not evaluated, either because a critical
	// failure terminated the chain earlier or because the context data the
	// rule depends on was unavailable. Skipped is never a penalty.
	Skipped Result = "skipped"
)

// Category tags a rule by the kind of violation it detects.
type Category string

const (
	CategoryCoding           Category = "coding"
	CategoryMedicalNecessity Category = "medical-necessity"
	CategoryFrequency        Category = "frequency"
	CategoryBilling          Category = "billing"
)

// Outcome records the evaluation of one rule against one claim. Produced
// once per rule per evaluation; never mutated.
type Outcome struct {
	// RuleID identifies the rule that produced this outcome.
	RuleID string

	// Priority is the rule's chain position (lower runs first).
	Priority int

	// Category is the rule's violation category.
	Category Category

	// Result is the outcome state.
	Result Result

	// Severity is the weight in [0,1] this outcome carries in the
	// compliance score. Rules may report a reduced severity for lesser
	// variants of a violation (e.g. near duplicates).
	Severity float64

	// Message is the human-readable explanation of the outcome.
	Message string

	// Warning carries an advisory message on a passed outcome. Warnings
	// accumulate separately from failures and reduce the compliance score
	// far less severely.
	Warning string

	// Duration is how long the rule took to evaluate.
	Duration time.Duration
}

// Rule is a single stateless compliance predicate. Implementations must be
// pure functions of their inputs: no I/O beyond reading the context, no
// mutation of claim or context, and no panics for expected invalid input.
type Rule interface {
	// ID returns the unique rule identifier.
	ID() string

	// Priority returns the chain position; lower priorities run first.
	Priority() int

	// Category returns the rule's violation category.
	Category() Category

	// Severity returns the rule's base severity weight in [0,1].
	Severity() float64

	// Evaluate applies the rule to a claim and its enriched context.
	Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome
}

// Config contains the tunable thresholds for the rule set and chain.
type Config struct {
	// CriticalPriorityCutoff is the early-termination boundary: when a rule
	// with priority at or below this cutoff fails, the chain stops and all
	// remaining rules are recorded as skipped.
	// Default: 10
	CriticalPriorityCutoff int `yaml:"critical_priority_cutoff"`

	// WarningPenalty scales how much a passed-with-warning outcome counts
	// against the compliance score, as a fraction of the rule severity.
	// Default: 0.25
	WarningPenalty float64 `yaml:"warning_penalty"`

	// SeverityOverrides replaces the base severity weight of individual
	// rules, keyed by rule ID.
	SeverityOverrides map[string]float64 `yaml:"rule_weights"`

	// MinDocumentationLength is the length below which clinical
	// documentation fails the completeness rule.
	// Default: 25
	MinDocumentationLength int `yaml:"min_documentation_length"`

	// BriefDocumentationLength is the length below which documentation
	// passes with a brevity warning.
	// Default: 100
	BriefDocumentationLength int `yaml:"brief_documentation_length"`

	// ProviderFrequencyLimit caps how often a provider may bill the same
	// procedure inside the trailing frequency window.
	// Default: 50
	ProviderFrequencyLimit int `yaml:"provider_frequency_limit"`

	// PatientFrequencyLimit caps how often a patient may receive the same
	// procedure inside the trailing frequency window.
	// Default: 10
	PatientFrequencyLimit int `yaml:"patient_frequency_limit"`

	// FrequencyWindowDays is the trailing window, in days before the
	// claim's service date, that frequency rules count over.
	// Default: 30
	FrequencyWindowDays int `yaml:"frequency_window_days"`

	// NearDuplicatePct is the relative amount difference below which an
	// otherwise identical claim tuple counts as a near duplicate.
	// Default: 0.05
	NearDuplicatePct float64 `yaml:"near_duplicate_pct"`

	// NearDuplicateWindowDays is the service-date window for near-duplicate
	// detection.
	// Default: 7
	NearDuplicateWindowDays int `yaml:"near_duplicate_window_days"`

	// DefaultAmountCeilingCents is the billed-amount ceiling, in cents,
	// applied when the reference set has no fee range for the procedure.
	// Default: 1000000 ($10,000.00)
	DefaultAmountCeilingCents int64 `yaml:"default_amount_ceiling_cents"`
}

// DefaultConfig returns the default rule configuration.
func DefaultConfig() Config {
	return Config{
		CriticalPriorityCutoff:    10,
		WarningPenalty:            0.25,
		MinDocumentationLength:    25,
		BriefDocumentationLength:  100,
		ProviderFrequencyLimit:    50,
		PatientFrequencyLimit:     10,
		FrequencyWindowDays:       30,
		NearDuplicatePct:          0.05,
		NearDuplicateWindowDays:   7,
		DefaultAmountCeilingCents: 1000000,
	}
}

// DefaultAmountCeiling returns the default ceiling as Money.
func (c Config) DefaultAmountCeiling() claim.Money {
	return claim.Money(c.DefaultAmountCeilingCents)
}
