package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/rules"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	config := DefaultConfig()
	config.Path = filepath.Join(t.TempDir(), "claims.db")

	store, err := NewStore(config, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedClaim(id, providerID, patientID string, serviceDate time.Time, amount float64) claim.Claim {
	return claim.Claim{
		ID:            id,
		PatientID:     patientID,
		ProviderID:    providerID,
		PayerID:       "PAYER-1",
		ProcedureCode: "99213",
		DiagnosisCode: "E11.9",
		BilledAmount:  claim.FromFloat(amount),
		ServiceDate:   serviceDate,
		BillDate:      serviceDate.AddDate(0, 0, 1),
		Documentation: "routine visit",
	}
}

func TestStoreSaveAndLoadClaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	service := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	in := storedClaim("C-1", "PR-1", "P-1", service, 123.45)
	if err := store.SaveClaim(ctx, in); err != nil {
		t.Fatalf("SaveClaim() error: %v", err)
	}

	out, err := store.Claim(ctx, "C-1")
	if err != nil {
		t.Fatalf("Claim() error: %v", err)
	}
	if out.ID != in.ID || out.PatientID != in.PatientID || out.ProviderID != in.ProviderID {
		t.Errorf("Claim() = %+v, want %+v", out, in)
	}
	if out.BilledAmount != claim.FromFloat(123.45) {
		t.Errorf("BilledAmount = %v, want 123.45", out.BilledAmount)
	}
	if !out.ServiceDate.Equal(in.ServiceDate) {
		t.Errorf("ServiceDate = %v, want %v", out.ServiceDate, in.ServiceDate)
	}
}

func TestStoreClaimNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Claim(context.Background(), "C-missing")
	if !errors.Is(err, evaluation.ErrClaimNotFound) {
		t.Fatalf("Claim() error = %v, want ErrClaimNotFound", err)
	}
}

func TestStoreHistoryQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []claim.Claim{
		storedClaim("C-1", "PR-1", "P-1", base, 100),
		storedClaim("C-2", "PR-1", "P-2", base.AddDate(0, 0, 10), 150),
		storedClaim("C-3", "PR-1", "P-1", base.AddDate(0, 0, 40), 200),
		storedClaim("C-4", "PR-2", "P-1", base.AddDate(0, 0, 5), 300),
	}
	for _, c := range seed {
		if err := store.SaveClaim(ctx, c); err != nil {
			t.Fatalf("SaveClaim(%s) error: %v", c.ID, err)
		}
	}

	until := base.AddDate(0, 0, 20)

	provider, err := store.ProviderClaims(ctx, "PR-1", until, "C-current")
	if err != nil {
		t.Fatalf("ProviderClaims() error: %v", err)
	}
	if len(provider) != 2 {
		t.Fatalf("ProviderClaims() returned %d claims, want 2 (C-3 is after the cutoff)", len(provider))
	}
	if provider[0].ClaimID != "C-1" || provider[1].ClaimID != "C-2" {
		t.Errorf("ProviderClaims() order = %s, %s; want C-1, C-2", provider[0].ClaimID, provider[1].ClaimID)
	}

	patient, err := store.PatientClaims(ctx, "P-1", until, "C-current")
	if err != nil {
		t.Fatalf("PatientClaims() error: %v", err)
	}
	if len(patient) != 2 {
		t.Fatalf("PatientClaims() returned %d claims, want 2", len(patient))
	}
	if patient[1].ProviderID != "PR-2" {
		t.Errorf("PatientClaims()[1].ProviderID = %q, want PR-2", patient[1].ProviderID)
	}
}

func TestStoreHistoryExcludesClaimUnderEvaluation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []float64{100, 150, 120, 130, 140}
	for i, amount := range history {
		c := storedClaim(fmt.Sprintf("H-%d", i), "PR-1", "P-1", base.AddDate(0, 0, i), amount)
		if err := store.SaveClaim(ctx, c); err != nil {
			t.Fatalf("SaveClaim(%s) error: %v", c.ID, err)
		}
	}

	// The claim under evaluation is already stored, as it is after load or
	// a prior serve poll.
	target := storedClaim("C-outlier", "PR-1", "P-1", base.AddDate(0, 0, 30), 2000)
	if err := store.SaveClaim(ctx, target); err != nil {
		t.Fatalf("SaveClaim(target) error: %v", err)
	}

	provider, err := store.ProviderClaims(ctx, "PR-1", target.ServiceDate, target.ID)
	if err != nil {
		t.Fatalf("ProviderClaims() error: %v", err)
	}
	if len(provider) != len(history) {
		t.Fatalf("ProviderClaims() returned %d claims, want %d: the stored claim leaked into its own history", len(provider), len(history))
	}
	for _, h := range provider {
		if h.ClaimID == target.ID {
			t.Errorf("claim %q present in its own provider history", target.ID)
		}
	}

	patient, err := store.PatientClaims(ctx, "P-1", target.ServiceDate, target.ID)
	if err != nil {
		t.Fatalf("PatientClaims() error: %v", err)
	}
	for _, h := range patient {
		if h.ClaimID == target.ID {
			t.Errorf("claim %q present in its own patient history", target.ID)
		}
	}
}

func sampleResult(evaluationID string, evaluatedAt time.Time) *evaluation.EvaluationResult {
	return &evaluation.EvaluationResult{
		EvaluationID:    evaluationID,
		ClaimID:         "C-1",
		EvaluatedAt:     evaluatedAt,
		ComplianceScore: 0.9,
		RulesCompleted:  true,
		RuleOutcomes: []rules.Outcome{
			{RuleID: "diagnosis_format", Priority: 10, Category: rules.CategoryCoding,
				Result: rules.Passed, Severity: 1.0},
			{RuleID: "documentation_complete", Priority: 20, Category: rules.CategoryMedicalNecessity,
				Result: rules.Passed, Severity: 0.5, Warning: "documentation is brief"},
		},
		EngineOutcomes: []engines.Outcome{
			{Engine: engines.NameStats, Available: true, Score: 0.1},
			{Engine: engines.NameNetwork, Err: "graph down"},
		},
		CompositeScore: 0.2,
		ScoreAvailable: true,
		RiskLevel:      "low",
		Duration:       120 * time.Millisecond,
	}
}

func TestStoreSaveResultAndRetention(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := sampleResult("E-old", now.AddDate(0, 0, -90))
	fresh := sampleResult("E-fresh", now.AddDate(0, 0, -1))

	for _, result := range []*evaluation.EvaluationResult{old, fresh} {
		if err := store.SaveResult(ctx, result); err != nil {
			t.Fatalf("SaveResult(%s) error: %v", result.EvaluationID, err)
		}
	}

	count, err := store.ResultCount(ctx)
	if err != nil {
		t.Fatalf("ResultCount() error: %v", err)
	}
	if count != 2 {
		t.Fatalf("ResultCount() = %d, want 2", count)
	}

	deleted, err := store.DeleteResultsBefore(ctx, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteResultsBefore() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("DeleteResultsBefore() = %d, want 1", deleted)
	}

	count, err = store.ResultCount(ctx)
	if err != nil {
		t.Fatalf("ResultCount() error: %v", err)
	}
	if count != 1 {
		t.Errorf("ResultCount() after retention = %d, want 1", count)
	}
}

func TestStoreResultsBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := []*evaluation.EvaluationResult{
		sampleResult("E-1", now.AddDate(0, 0, -10)),
		sampleResult("E-2", now.AddDate(0, 0, -5)),
		sampleResult("E-3", now.AddDate(0, 0, -60)),
	}
	for _, result := range seed {
		if err := store.SaveResult(ctx, result); err != nil {
			t.Fatalf("SaveResult(%s) error: %v", result.EvaluationID, err)
		}
	}

	results, err := store.ResultsBetween(ctx, now.AddDate(0, 0, -30), now)
	if err != nil {
		t.Fatalf("ResultsBetween() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("ResultsBetween() returned %d results, want 2 (E-3 is outside the window)", len(results))
	}
	if results[0].EvaluationID != "E-1" || results[1].EvaluationID != "E-2" {
		t.Errorf("ResultsBetween() order = %s, %s; want E-1, E-2",
			results[0].EvaluationID, results[1].EvaluationID)
	}

	got := results[0]
	if len(got.RuleOutcomes) != 2 {
		t.Fatalf("rule outcomes did not round-trip: %+v", got.RuleOutcomes)
	}
	if got.RuleOutcomes[1].Warning != "documentation is brief" {
		t.Errorf("RuleOutcomes[1].Warning = %q", got.RuleOutcomes[1].Warning)
	}
	if len(got.EngineOutcomes) != 2 || got.EngineOutcomes[1].Err != "graph down" {
		t.Errorf("engine outcomes did not round-trip: %+v", got.EngineOutcomes)
	}
	if got.Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", got.Duration)
	}
}

func TestStorePendingClaimIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range []claim.Claim{
		storedClaim("C-1", "PR-1", "P-1", base, 100),
		storedClaim("C-2", "PR-1", "P-1", base.AddDate(0, 0, 1), 110),
		storedClaim("C-3", "PR-1", "P-1", base.AddDate(0, 0, 2), 120),
	} {
		if err := store.SaveClaim(ctx, c); err != nil {
			t.Fatalf("SaveClaim(%s) error: %v", c.ID, err)
		}
	}

	evaluated := sampleResult("E-1", base.AddDate(0, 0, 3))
	evaluated.ClaimID = "C-2"
	if err := store.SaveResult(ctx, evaluated); err != nil {
		t.Fatalf("SaveResult() error: %v", err)
	}

	pending, err := store.PendingClaimIDs(ctx, 10)
	if err != nil {
		t.Fatalf("PendingClaimIDs() error: %v", err)
	}
	if len(pending) != 2 || pending[0] != "C-1" || pending[1] != "C-3" {
		t.Errorf("PendingClaimIDs() = %v, want [C-1 C-3]", pending)
	}

	limited, err := store.PendingClaimIDs(ctx, 1)
	if err != nil {
		t.Fatalf("PendingClaimIDs() error: %v", err)
	}
	if len(limited) != 1 || limited[0] != "C-1" {
		t.Errorf("PendingClaimIDs(limit=1) = %v, want [C-1]", limited)
	}
}

func TestStoreDuplicateEvaluationIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveResult(ctx, sampleResult("E-1", at)); err != nil {
		t.Fatalf("SaveResult() error: %v", err)
	}
	if err := store.SaveResult(ctx, sampleResult("E-1", at)); err == nil {
		t.Fatalf("SaveResult() accepted a duplicate evaluation ID")
	}
}
