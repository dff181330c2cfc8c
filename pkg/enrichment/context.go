package enrichment

import (
	"time"

	"veritas-health/sentinel/pkg/claim"
)

// HistoricalClaim is one prior claim from the historical-statistics store.
// The tuple is what duplicate detection and frequency rules key on.
type HistoricalClaim struct {
	// ClaimID is the identifier of the historical claim.
	ClaimID string

	// PatientID identifies the patient on the historical claim.
	PatientID string

	// ProviderID identifies the billing provider on the historical claim.
	ProviderID string

	// ProcedureCode is the procedure billed on the historical claim.
	ProcedureCode string

	// ServiceDate is when the historical service was performed.
	ServiceDate time.Time

	// Amount is the billed amount of the historical claim.
	Amount claim.Money
}

// ProviderHistory summarizes the billing provider's prior claims.
type ProviderHistory struct {
	// Available reports whether the provider history lookup succeeded.
	// When false every other field is meaningless and Err explains why.
	Available bool

	// Err describes the lookup failure when Available is false.
	Err string

	// ClaimCount is the number of prior claims for this provider.
	ClaimCount int

	// AverageAmount is the mean billed amount in dollars across prior claims.
	AverageAmount float64

	// Amounts holds the prior billed amounts in dollars, in service-date
	// order. Statistical engines read this series directly.
	Amounts []float64

	// Claims holds the prior claim tuples for duplicate and frequency checks.
	Claims []HistoricalClaim

	// EventTimes holds the service timestamps of prior claims, sorted
	// ascending, for frequency-spike detection.
	EventTimes []time.Time
}

// PatientHistory summarizes the patient's prior claims.
type PatientHistory struct {
	// Available reports whether the patient history lookup succeeded.
	Available bool

	// Err describes the lookup failure when Available is false.
	Err string

	// Claims holds the patient's prior claim tuples.
	Claims []HistoricalClaim
}

// ProcedureInfo is the reference-set record for a procedure code.
type ProcedureInfo struct {
	// Code is the procedure code.
	Code string

	// Active reports whether the code is currently listed as billable.
	Active bool

	// ActiveFrom is the start of the code's validity window. Zero means open.
	ActiveFrom time.Time

	// ActiveUntil is the end of the code's validity window. Zero means open.
	ActiveUntil time.Time

	// FeeMin and FeeMax bound the expected fee-schedule range for the code.
	// Both zero means no fee schedule is on record.
	FeeMin claim.Money
	FeeMax claim.Money

	// BundledWith lists procedure codes that should be billed as a single
	// bundled code when they appear together with this one.
	BundledWith []string
}

// ActiveOn reports whether the code was billable on the given date.
func (p *ProcedureInfo) ActiveOn(date time.Time) bool {
	if !p.Active {
		return false
	}
	if !p.ActiveFrom.IsZero() && date.Before(p.ActiveFrom) {
		return false
	}
	if !p.ActiveUntil.IsZero() && date.After(p.ActiveUntil) {
		return false
	}
	return true
}

// CodeReference holds cached code-validity lookups for the claim's codes.
type CodeReference struct {
	// Available reports whether the reference store could be consulted at all.
	Available bool

	// Err describes the lookup failure when Available is false.
	Err string

	// Procedure is the reference record for the claim's procedure code, or
	// nil if the code is not in the reference set.
	Procedure *ProcedureInfo

	// PairsAvailable reports whether the allowed-pairs list for the claim's
	// procedure code could be retrieved. When false the coding-pair rule
	// must skip rather than fail.
	PairsAvailable bool

	// AllowedDiagnoses is the allowed diagnosis list for the claim's
	// procedure code. Only meaningful when PairsAvailable is true; an empty
	// list then means no diagnosis is approved for the procedure.
	AllowedDiagnoses []string
}

// NetworkMembership holds provider network membership facts used as model
// features and diagnostics. Centrality and connectivity are the network
// engine's concern, not this section's.
type NetworkMembership struct {
	// Available reports whether the membership lookup succeeded.
	Available bool

	// Err describes the lookup failure when Available is false.
	Err string

	// FacilityLinks is the number of facilities the provider practices at.
	FacilityLinks int

	// PayerLinks is the number of payers the provider has contracts with.
	PayerLinks int
}

// EnrichedContext is the read-only bag of auxiliary facts attached to a
// claim for one evaluation. It is built once per evaluation and never
// mutated by rules or engines.
type EnrichedContext struct {
	// ClaimID is the claim this context was built for.
	ClaimID string

	// BuiltAt is when the build completed.
	BuiltAt time.Time

	// Provider is the provider's historical claim summary.
	Provider ProviderHistory

	// Patient is the patient's historical claim summary.
	Patient PatientHistory

	// Codes holds the cached code reference lookups.
	Codes CodeReference

	// Network holds provider network membership facts.
	Network NetworkMembership
}
