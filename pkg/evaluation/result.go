package evaluation

import (
	"time"

	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/rules"
	"veritas-health/sentinel/pkg/scoring"
)

// EvaluationResult is the complete, immutable outcome of evaluating one
// claim. A successful evaluation always produces a well-formed result,
// even when every scoring engine was unavailable; in that case the
// composite score is explicitly undefined rather than zero, so "no risk
// detected" and "could not assess risk" are never confused.
type EvaluationResult struct {
	// EvaluationID uniquely identifies this evaluation run.
	EvaluationID string `json:"evaluation_id"`

	// ClaimID is the claim that was evaluated.
	ClaimID string `json:"claim_id"`

	// EvaluatedAt is when the evaluation completed.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// RuleOutcomes holds one outcome per configured rule, in execution
	// order, including skipped ones.
	RuleOutcomes []rules.Outcome `json:"rule_outcomes"`

	// ComplianceScore is the rule chain's aggregated compliance in [0,1].
	// Only meaningful when RulesCompleted is true.
	ComplianceScore float64 `json:"compliance_score"`

	// RulesCompleted reports whether the rule chain ran to a result.
	RulesCompleted bool `json:"rules_completed"`

	// ChainTerminated reports whether a critical rule failure cut the
	// chain short.
	ChainTerminated bool `json:"chain_terminated"`

	// Warnings collects advisory rule messages.
	Warnings []string `json:"warnings,omitempty"`

	// EngineOutcomes holds exactly one outcome per configured engine.
	EngineOutcomes []engines.Outcome `json:"engine_outcomes"`

	// CompositeScore is the weighted composite risk score in [0,1]. Only
	// meaningful when ScoreAvailable is true.
	CompositeScore float64 `json:"composite_score"`

	// ScoreAvailable reports whether any risk signal contributed to the
	// composite.
	ScoreAvailable bool `json:"score_available"`

	// RiskLevel is the discrete risk classification: low, medium or high.
	RiskLevel string `json:"risk_level"`

	// Contributions breaks the composite down per signal.
	Contributions []scoring.Contribution `json:"contributions"`

	// Duration is the wall time of the whole evaluation.
	Duration time.Duration `json:"duration"`
}
