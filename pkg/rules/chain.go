package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// ChainResult is the outcome of executing the full rule chain against one
// claim.
type ChainResult struct {
	// Outcomes holds one entry per configured rule, in execution order.
	// Its length always equals the configured rule count.
	Outcomes []Outcome

	// ComplianceScore is the aggregated score in [0,1]; 1.0 is fully
	// compliant.
	ComplianceScore float64

	// Warnings collects advisory messages from passed-with-warning
	// outcomes, separately from failures.
	Warnings []string

	// Terminated reports whether a critical failure stopped the chain
	// before all rules ran.
	Terminated bool

	// Duration is the total chain execution time.
	Duration time.Duration
}

// Chain executes rules strictly in ascending priority order with early
// termination on critical failures.
type Chain struct {
	rules  []Rule
	config Config
	logger *slog.Logger
}

// NewChain builds the chain with the complete, closed rule set configured
// from cfg. The set is fixed at construction; there is no runtime
// registration.
func NewChain(cfg Config, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}

	set := []Rule{
		&duplicateRule{
			severity:   1.0,
			nearPct:    cfg.NearDuplicatePct,
			windowDays: cfg.NearDuplicateWindowDays,
		},
		&diagnosisFormatRule{severity: 1.0},
		&procedureStatusRule{severity: 1.0},
		&documentationRule{
			severity:    0.5,
			minLength:   cfg.MinDocumentationLength,
			briefLength: cfg.BriefDocumentationLength,
		},
		&codingPairRule{severity: 0.5},
		&providerFrequencyRule{
			severity:   0.5,
			limit:      cfg.ProviderFrequencyLimit,
			windowDays: cfg.FrequencyWindowDays,
		},
		&patientFrequencyRule{
			severity:   0.3,
			limit:      cfg.PatientFrequencyLimit,
			windowDays: cfg.FrequencyWindowDays,
		},
		&billingAmountRule{
			severity:       1.0,
			defaultCeiling: cfg.DefaultAmountCeiling(),
		},
	}

	for _, r := range set {
		if override, ok := cfg.SeverityOverrides[r.ID()]; ok {
			applySeverityOverride(r, override)
		}
	}

	sort.SliceStable(set, func(i, j int) bool { return set[i].Priority() < set[j].Priority() })

	return &Chain{
		rules:  set,
		config: cfg,
		logger: logger.With("component", "rules.chain"),
	}
}

// Rules returns the configured rules in execution order.
func (ch *Chain) Rules() []Rule {
	out := make([]Rule, len(ch.rules))
	copy(out, ch.rules)
	return out
}

// Execute runs the chain against one claim. Rules run sequentially in
// priority order; a failed rule with priority at or below the critical
// cutoff terminates the chain and records every remaining rule as skipped.
// The only error Execute returns is context cancellation.
func (ch *Chain) Execute(ctx context.Context, c claim.Claim, ectx *enrichment.EnrichedContext) (*ChainResult, error) {
	start := time.Now()
	result := &ChainResult{
		Outcomes: make([]Outcome, 0, len(ch.rules)),
	}

	for i, rule := range ch.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out := ch.runRule(rule, c, ectx)
		result.Outcomes = append(result.Outcomes, out)

		if out.Warning != "" {
			result.Warnings = append(result.Warnings, out.Warning)
		}

		if out.Result == Failed && rule.Priority() <= ch.config.CriticalPriorityCutoff {
			ch.logger.Info("critical rule failure, terminating chain",
				"claim_id", c.ID,
				"rule_id", rule.ID(),
				"priority", rule.Priority(),
			)
			result.Terminated = true
			for _, remaining := range ch.rules[i+1:] {
				result.Outcomes = append(result.Outcomes, Outcome{
					RuleID:   remaining.ID(),
					Priority: remaining.Priority(),
					Category: remaining.Category(),
					Result:   Skipped,
					Severity: remaining.Severity(),
					Message:  fmt.Sprintf("skipped: chain terminated by critical failure of %q", rule.ID()),
				})
			}
			break
		}
	}

	result.ComplianceScore = ch.complianceScore(result.Outcomes)
	result.Duration = time.Since(start)
	return result, nil
}

// runRule evaluates a single rule with the chain's failure boundary: a
// panicking rule becomes a failed outcome with diagnostic detail rather
// than aborting the chain.
func (ch *Chain) runRule(rule Rule, c claim.Claim, ectx *enrichment.EnrichedContext) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			ch.logger.Error("rule panicked",
				"claim_id", c.ID,
				"rule_id", rule.ID(),
				"panic", r,
			)
			out = Outcome{
				RuleID:   rule.ID(),
				Priority: rule.Priority(),
				Category: rule.Category(),
				Result:   Failed,
				Severity: rule.Severity(),
				Message:  fmt.Sprintf("rule error: %v", r),
			}
		}
		out.Duration = time.Since(start)
	}()

	out = rule.Evaluate(c, ectx)
	return out
}

// applySeverityOverride replaces a rule's base severity. The rule set is a
// closed sum of known types, so the switch is exhaustive.
func applySeverityOverride(r Rule, severity float64) {
	if severity < 0 || severity > 1 {
		return
	}
	switch rule := r.(type) {
	case *duplicateRule:
		rule.severity = severity
	case *diagnosisFormatRule:
		rule.severity = severity
	case *procedureStatusRule:
		rule.severity = severity
	case *documentationRule:
		rule.severity = severity
	case *codingPairRule:
		rule.severity = severity
	case *providerFrequencyRule:
		rule.severity = severity
	case *patientFrequencyRule:
		rule.severity = severity
	case *billingAmountRule:
		rule.severity = severity
	}
}

// complianceScore computes
//
//	1 - (Σ sev(failed) + penalty × Σ sev(warned)) / Σ sev(non-skipped)
//
// clamped to [0,1]. An all-skipped chain yields the neutral 1.0 rather than
// dividing by zero.
func (ch *Chain) complianceScore(outcomes []Outcome) float64 {
	var penalty, total float64
	for _, out := range outcomes {
		if out.Result == Skipped {
			continue
		}
		total += out.Severity
		switch {
		case out.Result == Failed:
			penalty += out.Severity
		case out.Warning != "":
			penalty += out.Severity * ch.config.WarningPenalty
		}
	}
	if total == 0 {
		return 1.0
	}
	score := 1.0 - penalty/total
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
