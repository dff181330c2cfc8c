package rules

import (
	"fmt"
	"math"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// billingAmountRule fails claims with a non-positive billed amount or an
// amount above the ceiling for the procedure code. The ceiling comes from
// the reference fee schedule when one exists, otherwise from configuration.
type billingAmountRule struct {
	severity       float64
	defaultCeiling claim.Money
}

func (r *billingAmountRule) ID() string         { return "billing_amount" }
func (r *billingAmountRule) Priority() int      { return 35 }
func (r *billingAmountRule) Category() Category { return CategoryBilling }
func (r *billingAmountRule) Severity() float64  { return r.severity }

func (r *billingAmountRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if c.BilledAmount <= 0 {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("billed amount %s is not positive", c.BilledAmount))
	}

	ceiling := r.defaultCeiling
	source := "default ceiling"
	if ectx != nil && ectx.Codes.Available && ectx.Codes.Procedure != nil && ectx.Codes.Procedure.FeeMax > 0 {
		ceiling = ectx.Codes.Procedure.FeeMax
		source = "fee schedule"
	}

	if c.BilledAmount > ceiling {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("billed amount %s exceeds %s ceiling %s for procedure %q",
				c.BilledAmount, source, ceiling, c.ProcedureCode))
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("billed amount %s within %s ceiling %s", c.BilledAmount, source, ceiling))
}

// duplicateRule detects resubmissions of claims already in the provider's
// history. An identical (patient, provider, procedure, service date, amount)
// tuple is an exact duplicate and fails at full severity; the same tuple
// with only a small amount difference inside a short window is a near
// duplicate and fails at half severity.
//
// The rule is critical: an exact duplicate makes further coding checks
// meaningless, so it runs first and can terminate the chain.
type duplicateRule struct {
	severity   float64
	nearPct    float64
	windowDays int
}

func (r *duplicateRule) ID() string         { return "duplicate_claim" }
func (r *duplicateRule) Priority() int      { return 5 }
func (r *duplicateRule) Category() Category { return CategoryBilling }
func (r *duplicateRule) Severity() float64  { return r.severity }

func (r *duplicateRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if ectx == nil || !ectx.Provider.Available {
		return outcomeFor(r, Skipped, r.severity, "provider history unavailable for duplicate detection")
	}

	exact := 0
	near := 0
	for _, h := range ectx.Provider.Claims {
		if h.ClaimID == c.ID {
			continue
		}
		if h.PatientID != c.PatientID || h.ProviderID != c.ProviderID || h.ProcedureCode != c.ProcedureCode {
			continue
		}
		sameDay := h.ServiceDate.Equal(c.ServiceDate)
		if sameDay && h.Amount == c.BilledAmount {
			exact++
			continue
		}

		days := c.ServiceDate.Sub(h.ServiceDate).Hours() / 24
		if math.Abs(days) > float64(r.windowDays) {
			continue
		}
		if c.BilledAmount > 0 && relativeDiff(h.Amount.Float64(), c.BilledAmount.Float64()) < r.nearPct {
			near++
		}
	}

	switch {
	case exact > 0:
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("exact duplicate: %d identical prior claim(s)", exact))
	case near > 0:
		// Near duplicates carry half the configured severity.
		return outcomeFor(r, Failed, r.severity/2,
			fmt.Sprintf("near duplicate: %d prior claim(s) within %d days differing only in amount", near, r.windowDays))
	default:
		return outcomeFor(r, Passed, r.severity, "no duplicate claims found")
	}
}

func relativeDiff(a, b float64) float64 {
	if b == 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / math.Abs(b)
}
