package rules

import (
	"fmt"
	"strings"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// documentationRule checks clinical documentation completeness. Missing or
// very short documentation fails; documentation above the failure threshold
// but below the brevity threshold passes with a warning, which counts
// against the compliance score at a reduced weight.
type documentationRule struct {
	severity    float64
	minLength   int
	briefLength int
}

func (r *documentationRule) ID() string         { return "documentation_complete" }
func (r *documentationRule) Priority() int      { return 20 }
func (r *documentationRule) Category() Category { return CategoryMedicalNecessity }
func (r *documentationRule) Severity() float64  { return r.severity }

func (r *documentationRule) Evaluate(c claim.Claim, _ *enrichment.EnrichedContext) Outcome {
	doc := strings.TrimSpace(c.Documentation)

	if doc == "" {
		return outcomeFor(r, Failed, r.severity, "clinical documentation is missing")
	}
	if len(doc) < r.minLength {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("clinical documentation too short: %d characters, minimum %d", len(doc), r.minLength))
	}
	if len(doc) < r.briefLength {
		out := outcomeFor(r, Passed, r.severity,
			fmt.Sprintf("clinical documentation present: %d characters", len(doc)))
		out.Warning = fmt.Sprintf("documentation is brief: %d characters, expected at least %d", len(doc), r.briefLength)
		return out
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("clinical documentation complete: %d characters", len(doc)))
}
