package legality

import (
	"context"
	"log/slog"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/enrichment"
)

// Sub-check verdicts recorded in diagnostics.
const (
	checkPassed   = "passed"
	checkViolated = "violated"
	checkErrored  = "errored"
)

// Config contains the legality penalties.
type Config struct {
	// IncompatiblePenalty is subtracted when the diagnosis is not on the
	// procedure's allowed list. Default: 0.4
	IncompatiblePenalty float64 `yaml:"incompatible_penalty"`

	// UnbundlingPenalty is subtracted when a bundle partner of the
	// procedure was billed separately for the same patient on the same
	// service date. Default: 0.3
	UnbundlingPenalty float64 `yaml:"unbundling_penalty"`

	// FeeRangePenalty is subtracted when the billed amount falls outside
	// the procedure's fee-schedule range. Default: 0.3
	FeeRangePenalty float64 `yaml:"fee_range_penalty"`

	// CheckErrorPenalty is subtracted when a sub-check cannot run because
	// its reference data is unavailable. Default: 0.25
	CheckErrorPenalty float64 `yaml:"check_error_penalty"`
}

// DefaultConfig returns the default legality configuration.
func DefaultConfig() Config {
	return Config{
		IncompatiblePenalty: 0.4,
		UnbundlingPenalty:   0.3,
		FeeRangePenalty:     0.3,
		CheckErrorPenalty:   0.25,
	}
}

// Engine scores how legally a claim's codes were billed.
type Engine struct {
	config Config
	logger *slog.Logger
}

// New creates the code-legality engine.
func New(config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		config: config,
		logger: logger.With("component", "engines.legality"),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return engines.NameLegality }

// Score runs the three sub-checks and subtracts their penalties from 1.0,
// flooring at 0. The engine itself never becomes unavailable over missing
// reference data; degraded data shows up as error penalties and in the
// diagnostics instead.
func (e *Engine) Score(_ context.Context, c claim.Claim, ectx *enrichment.EnrichedContext) engines.Outcome {
	var codes enrichment.CodeReference
	var patient enrichment.PatientHistory
	if ectx != nil {
		codes = ectx.Codes
		patient = ectx.Patient
	}

	legal := 1.0
	diags := map[string]interface{}{}

	apply := func(name, verdict string, penalty float64) {
		diags[name] = verdict
		legal -= penalty
	}

	// Procedure/diagnosis compatibility.
	switch {
	case !codes.Available || !codes.PairsAvailable:
		apply("compatibility", checkErrored, e.config.CheckErrorPenalty)
	case codes.AllowedDiagnoses != nil && !containsCode(codes.AllowedDiagnoses, c.DiagnosisCode):
		apply("compatibility", checkViolated, e.config.IncompatiblePenalty)
	default:
		apply("compatibility", checkPassed, 0)
	}

	// Unbundling: a bundle partner billed separately on the same service
	// date means the components were split out of their bundle.
	switch {
	case !codes.Available || !patient.Available:
		apply("unbundling", checkErrored, e.config.CheckErrorPenalty)
	case codes.Procedure != nil && unbundled(codes.Procedure.BundledWith, patient.Claims, c):
		apply("unbundling", checkViolated, e.config.UnbundlingPenalty)
	default:
		apply("unbundling", checkPassed, 0)
	}

	// Fee-schedule range. A procedure without a fee schedule on record
	// passes; there is nothing to compare against.
	switch {
	case !codes.Available:
		apply("fee_range", checkErrored, e.config.CheckErrorPenalty)
	case codes.Procedure != nil && outsideFeeRange(codes.Procedure, c.BilledAmount):
		apply("fee_range", checkViolated, e.config.FeeRangePenalty)
	default:
		apply("fee_range", checkPassed, 0)
	}

	if legal < 0 {
		legal = 0
	}

	return engines.Outcome{
		Engine:      engines.NameLegality,
		Available:   true,
		Score:       legal,
		Diagnostics: diags,
	}
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func unbundled(partners []string, history []enrichment.HistoricalClaim, c claim.Claim) bool {
	if len(partners) == 0 {
		return false
	}
	y, m, d := c.ServiceDate.Date()
	for _, h := range history {
		hy, hm, hd := h.ServiceDate.Date()
		if hy != y || hm != m || hd != d {
			continue
		}
		if containsCode(partners, h.ProcedureCode) {
			return true
		}
	}
	return false
}

func outsideFeeRange(p *enrichment.ProcedureInfo, amount claim.Money) bool {
	if p.FeeMin == 0 && p.FeeMax == 0 {
		return false
	}
	return amount < p.FeeMin || amount > p.FeeMax
}
