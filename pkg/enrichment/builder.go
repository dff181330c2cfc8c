package enrichment

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"veritas-health/sentinel/pkg/claim"
)

// HistoryStore is the historical-statistics boundary. Implementations return
// prior claims up to (and excluding) the claim under evaluation: the claim
// named by excludeClaimID must never appear in its own history, or it would
// shift every baseline computed from it.
type HistoryStore interface {
	// ProviderClaims returns prior claims billed by the provider, ordered by
	// service date ascending, with service dates at or before until,
	// excluding the claim with excludeClaimID.
	ProviderClaims(ctx context.Context, providerID string, until time.Time, excludeClaimID string) ([]HistoricalClaim, error)

	// PatientClaims returns prior claims for the patient, ordered by service
	// date ascending, with service dates at or before until, excluding the
	// claim with excludeClaimID.
	PatientClaims(ctx context.Context, patientID string, until time.Time, excludeClaimID string) ([]HistoricalClaim, error)
}

// CodeReferenceStore is the code reference-set boundary.
type CodeReferenceStore interface {
	// Procedure returns the reference record for a procedure code, or
	// (nil, nil) if the code is not in the reference set.
	Procedure(ctx context.Context, code string) (*ProcedureInfo, error)

	// AllowedDiagnoses returns the diagnosis codes approved for a procedure.
	// A nil slice with a nil error means no pairing list exists for the code.
	AllowedDiagnoses(ctx context.Context, procedureCode string) ([]string, error)
}

// MembershipSource provides provider network membership facts. It is a thin
// read view over the relationship graph; graph algorithm results flow through
// the network engine instead.
type MembershipSource interface {
	ProviderMembership(ctx context.Context, providerID string) (facilityLinks, payerLinks int, err error)
}

// BuilderConfig contains configuration for the context builder.
type BuilderConfig struct {
	// LookupTimeout bounds each individual sub-lookup.
	// Default: 2s
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
}

// DefaultBuilderConfig returns the default builder configuration.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{LookupTimeout: 2 * time.Second}
}

// Builder constructs EnrichedContext values. The zero value is not usable;
// use NewBuilder.
type Builder struct {
	history HistoryStore
	codes   CodeReferenceStore
	members MembershipSource
	config  BuilderConfig
	logger  *slog.Logger
}

// NewBuilder creates a context builder. Any of the sources may be nil, in
// which case the corresponding context section is built as unavailable.
func NewBuilder(history HistoryStore, codes CodeReferenceStore, members MembershipSource, config BuilderConfig, logger *slog.Logger) *Builder {
	if config.LookupTimeout <= 0 {
		config.LookupTimeout = DefaultBuilderConfig().LookupTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		history: history,
		codes:   codes,
		members: members,
		config:  config,
		logger:  logger.With("component", "enrichment"),
	}
}

// Build gathers the auxiliary facts for one claim. Sub-lookups run
// concurrently; each failure is recovered into an unavailable section.
// Build never returns an error: a fully degraded context is still a context.
func (b *Builder) Build(ctx context.Context, c claim.Claim) *EnrichedContext {
	ectx := &EnrichedContext{ClaimID: c.ID}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ectx.Provider = b.buildProviderHistory(gctx, c)
		return nil
	})
	g.Go(func() error {
		ectx.Patient = b.buildPatientHistory(gctx, c)
		return nil
	})
	g.Go(func() error {
		ectx.Codes = b.buildCodeReference(gctx, c)
		return nil
	})
	g.Go(func() error {
		ectx.Network = b.buildMembership(gctx, c)
		return nil
	})

	// Goroutines only ever return nil; failures are values in the sections.
	_ = g.Wait()

	ectx.BuiltAt = time.Now()
	return ectx
}

func (b *Builder) buildProviderHistory(ctx context.Context, c claim.Claim) ProviderHistory {
	if b.history == nil {
		return ProviderHistory{Err: "history store not configured"}
	}

	lctx, cancel := context.WithTimeout(ctx, b.config.LookupTimeout)
	defer cancel()

	claims, err := b.history.ProviderClaims(lctx, c.ProviderID, c.ServiceDate, c.ID)
	if err != nil {
		b.logger.Warn("provider history lookup failed",
			"claim_id", c.ID,
			"error", err,
		)
		return ProviderHistory{Err: err.Error()}
	}

	h := ProviderHistory{
		Available:  true,
		ClaimCount: len(claims),
		Claims:     claims,
	}

	var total float64
	for _, hc := range claims {
		amount := hc.Amount.Float64()
		total += amount
		h.Amounts = append(h.Amounts, amount)
		h.EventTimes = append(h.EventTimes, hc.ServiceDate)
	}
	if len(claims) > 0 {
		h.AverageAmount = total / float64(len(claims))
	}
	sort.Slice(h.EventTimes, func(i, j int) bool { return h.EventTimes[i].Before(h.EventTimes[j]) })

	return h
}

func (b *Builder) buildPatientHistory(ctx context.Context, c claim.Claim) PatientHistory {
	if b.history == nil {
		return PatientHistory{Err: "history store not configured"}
	}

	lctx, cancel := context.WithTimeout(ctx, b.config.LookupTimeout)
	defer cancel()

	claims, err := b.history.PatientClaims(lctx, c.PatientID, c.ServiceDate, c.ID)
	if err != nil {
		b.logger.Warn("patient history lookup failed",
			"claim_id", c.ID,
			"error", err,
		)
		return PatientHistory{Err: err.Error()}
	}

	return PatientHistory{Available: true, Claims: claims}
}

func (b *Builder) buildCodeReference(ctx context.Context, c claim.Claim) CodeReference {
	if b.codes == nil {
		return CodeReference{Err: "code reference store not configured"}
	}

	lctx, cancel := context.WithTimeout(ctx, b.config.LookupTimeout)
	defer cancel()

	ref := CodeReference{}

	proc, err := b.codes.Procedure(lctx, c.ProcedureCode)
	if err != nil {
		b.logger.Warn("procedure reference lookup failed",
			"claim_id", c.ID,
			"procedure_code", c.ProcedureCode,
			"error", err,
		)
		ref.Err = err.Error()
		return ref
	}
	ref.Available = true
	ref.Procedure = proc

	// The pairing list is a separate lookup with its own failure mode: the
	// procedure record can be present while the pairing list is not.
	pairs, err := b.codes.AllowedDiagnoses(lctx, c.ProcedureCode)
	if err != nil {
		b.logger.Warn("allowed-pairs lookup failed",
			"claim_id", c.ID,
			"procedure_code", c.ProcedureCode,
			"error", err,
		)
		return ref
	}
	if pairs != nil {
		ref.PairsAvailable = true
		ref.AllowedDiagnoses = pairs
	}
	return ref
}

func (b *Builder) buildMembership(ctx context.Context, c claim.Claim) NetworkMembership {
	if b.members == nil {
		return NetworkMembership{Err: "membership source not configured"}
	}

	lctx, cancel := context.WithTimeout(ctx, b.config.LookupTimeout)
	defer cancel()

	facilities, payers, err := b.members.ProviderMembership(lctx, c.ProviderID)
	if err != nil {
		b.logger.Warn("membership lookup failed",
			"claim_id", c.ID,
			"provider_id", c.ProviderID,
			"error", err,
		)
		return NetworkMembership{Err: err.Error()}
	}

	return NetworkMembership{
		Available:     true,
		FacilityLinks: facilities,
		PayerLinks:    payers,
	}
}
