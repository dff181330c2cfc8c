package claim

import (
	"fmt"
	"strings"
	"time"
)

// Money is a fixed-point monetary amount in cents.
// A billed amount of $123.45 is Money(12345).
type Money int64

// Float64 returns the amount in dollars as a float for statistical math.
func (m Money) Float64() float64 {
	return float64(m) / 100.0
}

// String formats the amount as a dollar value (e.g. "123.45").
func (m Money) String() string {
	sign := ""
	v := m
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// FromFloat converts a dollar amount to Money, rounding to the nearest cent.
func FromFloat(dollars float64) Money {
	if dollars >= 0 {
		return Money(dollars*100 + 0.5)
	}
	return Money(dollars*100 - 0.5)
}

// Claim is a single billed medical service event to be evaluated.
// It is immutable once evaluation begins.
type Claim struct {
	// ID is the unique claim identifier.
	ID string `json:"id"`

	// PatientID identifies the patient who received the service.
	PatientID string `json:"patient_id"`

	// ProviderID identifies the billing provider (NPI or internal ID).
	ProviderID string `json:"provider_id"`

	// PayerID identifies the payer the claim was submitted to.
	PayerID string `json:"payer_id"`

	// ProcedureCode is the billed procedure code (CPT/HCPCS).
	ProcedureCode string `json:"procedure_code"`

	// DiagnosisCode is the primary diagnosis code (ICD-10).
	DiagnosisCode string `json:"diagnosis_code"`

	// BilledAmount is the amount billed for the service, in cents.
	BilledAmount Money `json:"billed_amount_cents"`

	// ServiceDate is when the service was performed. Frequency windows and
	// code-activity checks are computed relative to this date, not BillDate.
	ServiceDate time.Time `json:"service_date"`

	// BillDate is when the claim was submitted.
	BillDate time.Time `json:"bill_date"`

	// Documentation is the free-text clinical documentation attached to
	// the claim.
	Documentation string `json:"documentation,omitempty"`
}

// ValidationError reports malformed or missing claim fields. It is an input
// error in the evaluation taxonomy: the evaluation is rejected, never
// silently defaulted.
type ValidationError struct {
	// ClaimID is the claim the error refers to (may be empty if the ID
	// itself is missing).
	ClaimID string

	// Fields lists the offending fields with a reason each.
	Fields []string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("invalid claim %q: %s", e.ClaimID, e.Fields[0])
	}
	return fmt.Sprintf("invalid claim %q: %d invalid fields: %s",
		e.ClaimID, len(e.Fields), strings.Join(e.Fields, "; "))
}

// Validate checks the structural integrity of the claim. It returns a
// *ValidationError listing every problem found, or nil if the claim is
// well formed enough to evaluate. Content-level problems (malformed codes,
// implausible amounts relative to history) are the rule chain's job, not
// Validate's; this only rejects claims the pipeline cannot evaluate at all.
func (c *Claim) Validate() error {
	var fields []string

	if strings.TrimSpace(c.ID) == "" {
		fields = append(fields, "id: missing")
	}
	if strings.TrimSpace(c.PatientID) == "" {
		fields = append(fields, "patient_id: missing")
	}
	if strings.TrimSpace(c.ProviderID) == "" {
		fields = append(fields, "provider_id: missing")
	}
	if c.ServiceDate.IsZero() {
		fields = append(fields, "service_date: missing")
	}
	if c.BillDate.IsZero() {
		fields = append(fields, "bill_date: missing")
	}
	if !c.ServiceDate.IsZero() && !c.BillDate.IsZero() && c.BillDate.Before(c.ServiceDate) {
		fields = append(fields, "bill_date: precedes service_date")
	}

	if len(fields) > 0 {
		return &ValidationError{ClaimID: c.ID, Fields: fields}
	}
	return nil
}
