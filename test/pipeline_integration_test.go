//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/config"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/engines/ensemble"
	"veritas-health/sentinel/pkg/engines/legality"
	"veritas-health/sentinel/pkg/engines/network"
	"veritas-health/sentinel/pkg/engines/stats"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/evaluation"
	"veritas-health/sentinel/pkg/export"
	"veritas-health/sentinel/pkg/rules"
	"veritas-health/sentinel/pkg/storage"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPipelineOutlierThroughStores evaluates a gross billing outlier with
// its history loaded through the real claim store, the way load and serve
// run: the claim is already saved when evaluation starts. The statistical
// engine must still see it as an outlier against its prior history, and a
// provider sitting exactly at the frequency limit must still pass.
func TestPipelineOutlierThroughStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.Claims.Path = filepath.Join(dir, "claims.db")
	cfg.Storage.Reference.Path = filepath.Join(dir, "reference.db")
	cfg.Rules.ProviderFrequencyLimit = 5

	store, err := storage.NewStore(cfg.Storage.Claims, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer store.Close()
	refStore, err := storage.NewReferenceStore(cfg.Storage.Reference, nil)
	if err != nil {
		t.Fatalf("NewReferenceStore() error: %v", err)
	}
	defer refStore.Close()

	err = refStore.UpsertProcedure(ctx, storage.ProcedureRecord{
		Info: enrichment.ProcedureInfo{Code: "99213", Active: true},
	})
	if err != nil {
		t.Fatalf("UpsertProcedure() error: %v", err)
	}

	// Exactly ProviderFrequencyLimit prior claims inside the window.
	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	history := []float64{100, 150, 120, 130, 140}
	for i, amount := range history {
		c := claim.Claim{
			ID:            fmt.Sprintf("H-%d", i),
			PatientID:     "P-1",
			ProviderID:    "PR-1",
			PayerID:       "PAYER-1",
			ProcedureCode: "99213",
			DiagnosisCode: "E11.9",
			BilledAmount:  claim.FromFloat(amount),
			ServiceDate:   base.AddDate(0, 0, i+1),
			BillDate:      base.AddDate(0, 0, i+2),
			Documentation: "established patient visit, stable chronic conditions",
		}
		if err := store.SaveClaim(ctx, c); err != nil {
			t.Fatalf("SaveClaim(%s) error: %v", c.ID, err)
		}
	}
	outlier := claim.Claim{
		ID:            "C-outlier",
		PatientID:     "P-2",
		ProviderID:    "PR-1",
		PayerID:       "PAYER-1",
		ProcedureCode: "99213",
		DiagnosisCode: "E11.9",
		BilledAmount:  claim.FromFloat(2000),
		ServiceDate:   base.AddDate(0, 0, 20),
		BillDate:      base.AddDate(0, 0, 21),
		Documentation: "extended visit with multiple complex chronic conditions",
	}
	if err := store.SaveClaim(ctx, outlier); err != nil {
		t.Fatalf("SaveClaim(outlier) error: %v", err)
	}

	logger := testLogger(t)
	builder := enrichment.NewBuilder(store, refStore, refStore, cfg.Enrichment, logger)
	chain := rules.NewChain(cfg.Rules, logger)
	engineSet := []engines.Engine{
		stats.New(cfg.Engines.Statistical, logger),
		ensemble.New(nil, nil, cfg.Engines.Ensemble, logger),
		network.New(nil, cfg.Engines.Network, logger),
		legality.New(cfg.Engines.Legality, logger),
	}
	metrics := evaluation.NewMetrics(prometheus.NewRegistry())
	orch := evaluation.New(store, builder, chain, engineSet, cfg.Scoring,
		store, cfg.Evaluation, metrics, logger)

	result, err := orch.EvaluateByID(ctx, "C-outlier")
	if err != nil {
		t.Fatalf("EvaluateByID() error: %v", err)
	}

	var statsOutcome *engines.Outcome
	for i := range result.EngineOutcomes {
		if result.EngineOutcomes[i].Engine == engines.NameStats {
			statsOutcome = &result.EngineOutcomes[i]
		}
	}
	if statsOutcome == nil || !statsOutcome.Available {
		t.Fatalf("statistical engine outcome missing or unavailable: %+v", result.EngineOutcomes)
	}
	if statsOutcome.Score < 0.5 {
		t.Errorf("statistical score = %v for a 2000.00 claim against %v, want >= 0.5",
			statsOutcome.Score, history)
	}

	for _, out := range result.RuleOutcomes {
		if out.RuleID == "provider_frequency" && out.Result != rules.Passed {
			t.Errorf("provider_frequency = %s (%s), want passed at exactly the limit",
				out.Result, out.Message)
		}
	}
}

// TestPipelineIntegration drives the full flow against real SQLite
// stores: seed reference data and claim history, evaluate a claim,
// verify the persisted result, and export it.
func TestPipelineIntegration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.Claims.Path = filepath.Join(dir, "claims.db")
	cfg.Storage.Reference.Path = filepath.Join(dir, "reference.db")

	store, err := storage.NewStore(cfg.Storage.Claims, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer store.Close()

	refStore, err := storage.NewReferenceStore(cfg.Storage.Reference, nil)
	if err != nil {
		t.Fatalf("NewReferenceStore() error: %v", err)
	}
	defer refStore.Close()

	// Reference data: an active procedure with a fee schedule.
	err = refStore.UpsertProcedure(ctx, storage.ProcedureRecord{
		Info: enrichment.ProcedureInfo{
			Code:   "99213",
			Active: true,
			FeeMin: claim.FromFloat(50),
			FeeMax: claim.FromFloat(250),
		},
	})
	if err != nil {
		t.Fatalf("UpsertProcedure() error: %v", err)
	}
	if err := refStore.UpsertProviderLinks(ctx, "PR-1", 2, 3); err != nil {
		t.Fatalf("UpsertProviderLinks() error: %v", err)
	}

	// Provider history plus the claim under evaluation.
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	history := []float64{110, 120, 105, 130, 115, 125}
	for i, amount := range history {
		c := claim.Claim{
			ID:            fmt.Sprintf("H-%d", i),
			PatientID:     "P-hist",
			ProviderID:    "PR-1",
			PayerID:       "PAYER-1",
			ProcedureCode: "99213",
			DiagnosisCode: "E11.9",
			BilledAmount:  claim.FromFloat(amount),
			ServiceDate:   base.AddDate(0, 0, i*7),
			BillDate:      base.AddDate(0, 0, i*7+1),
			Documentation: "routine follow-up visit with stable findings",
		}
		if err := store.SaveClaim(ctx, c); err != nil {
			t.Fatalf("SaveClaim(%s) error: %v", c.ID, err)
		}
	}
	target := claim.Claim{
		ID:            "C-target",
		PatientID:     "P-2",
		ProviderID:    "PR-1",
		PayerID:       "PAYER-1",
		ProcedureCode: "99213",
		DiagnosisCode: "E11.9",
		BilledAmount:  claim.FromFloat(120),
		ServiceDate:   base.AddDate(0, 2, 0),
		BillDate:      base.AddDate(0, 2, 1),
		Documentation: "routine follow-up visit, medication refill, stable",
	}
	if err := store.SaveClaim(ctx, target); err != nil {
		t.Fatalf("SaveClaim(target) error: %v", err)
	}

	logger := testLogger(t)
	builder := enrichment.NewBuilder(store, refStore, refStore, cfg.Enrichment, logger)
	chain := rules.NewChain(cfg.Rules, logger)
	engineSet := []engines.Engine{
		stats.New(cfg.Engines.Statistical, logger),
		ensemble.New(nil, nil, cfg.Engines.Ensemble, logger),
		network.New(nil, cfg.Engines.Network, logger),
		legality.New(cfg.Engines.Legality, logger),
	}
	metrics := evaluation.NewMetrics(prometheus.NewRegistry())
	orch := evaluation.New(store, builder, chain, engineSet, cfg.Scoring,
		store, cfg.Evaluation, metrics, logger)

	result, err := orch.EvaluateByID(ctx, "C-target")
	if err != nil {
		t.Fatalf("EvaluateByID() error: %v", err)
	}
	if !result.RulesCompleted {
		t.Error("rule chain did not complete")
	}
	if !result.ScoreAvailable {
		t.Error("composite score unavailable with three engines up")
	}
	if result.RiskLevel == "" {
		t.Error("risk level not assigned")
	}
	if len(result.EngineOutcomes) != 4 {
		t.Fatalf("got %d engine outcomes, want 4", len(result.EngineOutcomes))
	}
	for _, out := range result.EngineOutcomes {
		if out.Engine == engines.NameNetwork && out.Available {
			t.Error("network engine reported available with no graph backend")
		}
		if out.Engine == engines.NameLegality && !out.Available {
			t.Errorf("legality engine unavailable: %s", out.Err)
		}
	}

	// The result must be persisted and re-loadable.
	stored, err := store.ResultsBetween(ctx, result.EvaluatedAt.Add(-time.Minute),
		result.EvaluatedAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("ResultsBetween() error: %v", err)
	}
	if len(stored) != 1 || stored[0].EvaluationID != result.EvaluationID {
		t.Fatalf("persisted results = %+v, want the one evaluation", stored)
	}
	if len(stored[0].RuleOutcomes) != len(result.RuleOutcomes) {
		t.Errorf("persisted %d rule outcomes, want %d",
			len(stored[0].RuleOutcomes), len(result.RuleOutcomes))
	}

	// Everything but the evaluated claim is still pending.
	pending, err := store.PendingClaimIDs(ctx, 100)
	if err != nil {
		t.Fatalf("PendingClaimIDs() error: %v", err)
	}
	if len(pending) != len(history) {
		t.Errorf("pending = %d claims, want %d", len(pending), len(history))
	}

	// Export the stored results as CSV.
	var buf bytes.Buffer
	if err := export.NewCSVExporter(true).Export(ctx, stored, &buf); err != nil {
		t.Fatalf("CSV export error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("exported %d CSV rows, want header plus one result", len(rows))
	}
}
