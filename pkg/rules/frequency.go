package rules

import (
	"fmt"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// countInWindow counts historical claims with the given procedure code whose
// service dates fall inside the trailing window ending at the claim's
// service date. The window is computed from context-provided history, never
// from a live query.
func countInWindow(history []enrichment.HistoricalClaim, procedureCode string, serviceDate time.Time, windowDays int) int {
	cutoff := serviceDate.AddDate(0, 0, -windowDays)
	n := 0
	for _, h := range history {
		if h.ProcedureCode != procedureCode {
			continue
		}
		if h.ServiceDate.Before(cutoff) || h.ServiceDate.After(serviceDate) {
			continue
		}
		n++
	}
	return n
}

// providerFrequencyRule fails when the provider has billed the same
// procedure more than the configured maximum inside the trailing window.
type providerFrequencyRule struct {
	severity   float64
	limit      int
	windowDays int
}

func (r *providerFrequencyRule) ID() string         { return "provider_frequency" }
func (r *providerFrequencyRule) Priority() int      { return 30 }
func (r *providerFrequencyRule) Category() Category { return CategoryFrequency }
func (r *providerFrequencyRule) Severity() float64  { return r.severity }

func (r *providerFrequencyRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if ectx == nil || !ectx.Provider.Available {
		return outcomeFor(r, Skipped, r.severity, "provider history unavailable")
	}

	count := countInWindow(ectx.Provider.Claims, c.ProcedureCode, c.ServiceDate, r.windowDays)
	if count > r.limit {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("provider billed procedure %q %d times in %d days, limit %d",
				c.ProcedureCode, count, r.windowDays, r.limit))
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("provider frequency %d/%d in %d days", count, r.limit, r.windowDays))
}

// patientFrequencyRule fails when the patient has received the same
// procedure more than the configured maximum inside the trailing window.
type patientFrequencyRule struct {
	severity   float64
	limit      int
	windowDays int
}

func (r *patientFrequencyRule) ID() string         { return "patient_frequency" }
func (r *patientFrequencyRule) Priority() int      { return 32 }
func (r *patientFrequencyRule) Category() Category { return CategoryFrequency }
func (r *patientFrequencyRule) Severity() float64  { return r.severity }

func (r *patientFrequencyRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if ectx == nil || !ectx.Patient.Available {
		return outcomeFor(r, Skipped, r.severity, "patient history unavailable")
	}

	count := countInWindow(ectx.Patient.Claims, c.ProcedureCode, c.ServiceDate, r.windowDays)
	if count > r.limit {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("patient received procedure %q %d times in %d days, limit %d",
				c.ProcedureCode, count, r.windowDays, r.limit))
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("patient frequency %d/%d in %d days", count, r.limit, r.windowDays))
}
