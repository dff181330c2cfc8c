package rules

import (
	"fmt"
	"regexp"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// diagnosisPattern is the structural grammar for ICD-10 diagnosis codes:
// letter, two digits, optional decimal with up to two more digits.
var diagnosisPattern = regexp.MustCompile(`^[A-Z][0-9]{2}(\.[0-9]{0,2})?$`)

// diagnosisFormatRule fails claims whose diagnosis code does not match the
// coding system's structural grammar. A syntactically valid but unknown code
// is the procedure-status rule's concern, not this one's.
type diagnosisFormatRule struct {
	severity float64
}

func (r *diagnosisFormatRule) ID() string         { return "diagnosis_format" }
func (r *diagnosisFormatRule) Priority() int      { return 10 }
func (r *diagnosisFormatRule) Category() Category { return CategoryCoding }
func (r *diagnosisFormatRule) Severity() float64  { return r.severity }

func (r *diagnosisFormatRule) Evaluate(c claim.Claim, _ *enrichment.EnrichedContext) Outcome {
	if c.DiagnosisCode == "" {
		return outcomeFor(r, Failed, r.severity, "diagnosis code is missing")
	}
	if !diagnosisPattern.MatchString(c.DiagnosisCode) {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("diagnosis code %q is malformed: expected letter, two digits, optional decimal with up to two digits", c.DiagnosisCode))
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("diagnosis code %q is well formed", c.DiagnosisCode))
}

// procedureStatusRule fails claims whose procedure code is absent from the
// reference set or inactive as of the claim's service date. Reference-set
// unavailability skips the rule instead of failing it.
type procedureStatusRule struct {
	severity float64
}

func (r *procedureStatusRule) ID() string         { return "procedure_status" }
func (r *procedureStatusRule) Priority() int      { return 12 }
func (r *procedureStatusRule) Category() Category { return CategoryCoding }
func (r *procedureStatusRule) Severity() float64  { return r.severity }

func (r *procedureStatusRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if c.ProcedureCode == "" {
		return outcomeFor(r, Failed, r.severity, "procedure code is missing")
	}
	if ectx == nil || !ectx.Codes.Available {
		return outcomeFor(r, Skipped, r.severity, "code reference set unavailable")
	}
	info := ectx.Codes.Procedure
	if info == nil {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("procedure code %q not found in reference set", c.ProcedureCode))
	}
	// Activity is judged as of the service date, not the bill date.
	if !info.ActiveOn(c.ServiceDate) {
		return outcomeFor(r, Failed, r.severity,
			fmt.Sprintf("procedure code %q inactive on service date %s", c.ProcedureCode, c.ServiceDate.Format("2006-01-02")))
	}
	return outcomeFor(r, Passed, r.severity,
		fmt.Sprintf("procedure code %q active on service date", c.ProcedureCode))
}

// codingPairRule fails claims whose (procedure, diagnosis) pair is not on
// the allowed-pairs list for that procedure. The rule skips when the pairing
// list itself could not be retrieved: "no list" and "not on the list" are
// different findings.
type codingPairRule struct {
	severity float64
}

func (r *codingPairRule) ID() string         { return "coding_pair" }
func (r *codingPairRule) Priority() int      { return 22 }
func (r *codingPairRule) Category() Category { return CategoryCoding }
func (r *codingPairRule) Severity() float64  { return r.severity }

func (r *codingPairRule) Evaluate(c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	if c.ProcedureCode == "" || c.DiagnosisCode == "" {
		return outcomeFor(r, Failed, r.severity, "procedure or diagnosis code missing for pair validation")
	}
	if ectx == nil || !ectx.Codes.Available || !ectx.Codes.PairsAvailable {
		return outcomeFor(r, Skipped, r.severity,
			fmt.Sprintf("allowed-pairs list unavailable for procedure %q", c.ProcedureCode))
	}
	for _, dx := range ectx.Codes.AllowedDiagnoses {
		if dx == c.DiagnosisCode {
			return outcomeFor(r, Passed, r.severity,
				fmt.Sprintf("diagnosis %q approved for procedure %q", c.DiagnosisCode, c.ProcedureCode))
		}
	}
	return outcomeFor(r, Failed, r.severity,
		fmt.Sprintf("diagnosis %q not on allowed-pairs list for procedure %q", c.DiagnosisCode, c.ProcedureCode))
}

// outcomeFor builds an Outcome carrying the rule's identity fields. The
// chain stamps the duration.
func outcomeFor(r Rule, res Result, severity float64, msg string) Outcome {
	return Outcome{
		RuleID:   r.ID(),
		Priority: r.Priority(),
		Category: r.Category(),
		Result:   res,
		Severity: severity,
		Message:  msg,
	}
}
