package legality

import (
	"context"
	"math"
	"testing"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

var serviceDate = time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC)

func legalityClaim() claim.Claim {
	return claim.Claim{
		ID:            "C-4001",
		PatientID:     "P-4",
		ProviderID:    "PR-4",
		ProcedureCode: "80053",
		DiagnosisCode: "E11.9",
		BilledAmount:  claim.FromFloat(45),
		ServiceDate:   serviceDate,
		BillDate:      serviceDate.AddDate(0, 0, 1),
	}
}

func cleanContext() *enrichment.EnrichedContext {
	return &enrichment.EnrichedContext{
		Codes: enrichment.CodeReference{
			Available: true,
			Procedure: &enrichment.ProcedureInfo{
				Code:        "80053",
				Active:      true,
				FeeMin:      claim.FromFloat(20),
				FeeMax:      claim.FromFloat(60),
				BundledWith: []string{"80048"},
			},
			PairsAvailable:   true,
			AllowedDiagnoses: []string{"E11.9", "E11.65"},
		},
		Patient: enrichment.PatientHistory{Available: true},
	}
}

func TestScoreCleanClaim(t *testing.T) {
	engine := New(DefaultConfig(), nil)

	out := engine.Score(context.Background(), legalityClaim(), cleanContext())

	if !out.Available {
		t.Fatalf("Score() unavailable: %s", out.Err)
	}
	if out.Score != 1.0 {
		t.Errorf("Score = %.2f, want 1.0 for a fully legal claim", out.Score)
	}
}

func TestScoreViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *claim.Claim, ectx *enrichment.EnrichedContext)
		want   float64
	}{
		{
			name: "incompatible diagnosis",
			mutate: func(c *claim.Claim, _ *enrichment.EnrichedContext) {
				c.DiagnosisCode = "Z00.0"
			},
			want: 0.6,
		},
		{
			name: "bundle partner billed same day",
			mutate: func(c *claim.Claim, ectx *enrichment.EnrichedContext) {
				ectx.Patient.Claims = []enrichment.HistoricalClaim{
					{ClaimID: "H-9", ProcedureCode: "80048", ServiceDate: serviceDate},
				}
			},
			want: 0.7,
		},
		{
			name: "bundle partner on a different day is fine",
			mutate: func(c *claim.Claim, ectx *enrichment.EnrichedContext) {
				ectx.Patient.Claims = []enrichment.HistoricalClaim{
					{ClaimID: "H-9", ProcedureCode: "80048", ServiceDate: serviceDate.AddDate(0, 0, -3)},
				}
			},
			want: 1.0,
		},
		{
			name: "amount above fee range",
			mutate: func(c *claim.Claim, _ *enrichment.EnrichedContext) {
				c.BilledAmount = claim.FromFloat(500)
			},
			want: 0.7,
		},
		{
			name: "empty allowed list rejects every diagnosis",
			mutate: func(_ *claim.Claim, ectx *enrichment.EnrichedContext) {
				ectx.Codes.AllowedDiagnoses = []string{}
			},
			want: 0.6,
		},
		{
			name: "no allowed list on record passes",
			mutate: func(_ *claim.Claim, ectx *enrichment.EnrichedContext) {
				ectx.Codes.AllowedDiagnoses = nil
			},
			want: 1.0,
		},
		{
			name: "all three violated floors at zero",
			mutate: func(c *claim.Claim, ectx *enrichment.EnrichedContext) {
				c.DiagnosisCode = "Z00.0"
				c.BilledAmount = claim.FromFloat(500)
				ectx.Patient.Claims = []enrichment.HistoricalClaim{
					{ClaimID: "H-9", ProcedureCode: "80048", ServiceDate: serviceDate},
				}
			},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(DefaultConfig(), nil)
			c := legalityClaim()
			ectx := cleanContext()
			tt.mutate(&c, ectx)

			out := engine.Score(context.Background(), c, ectx)
			if !out.Available {
				t.Fatalf("Score() unavailable: %s", out.Err)
			}
			if math.Abs(out.Score-tt.want) > 1e-9 {
				t.Errorf("Score = %.2f, want %.2f (diags %v)", out.Score, tt.want, out.Diagnostics)
			}
		})
	}
}

func TestScoreDegradedReferenceData(t *testing.T) {
	engine := New(DefaultConfig(), nil)

	t.Run("pairs list unavailable", func(t *testing.T) {
		ectx := cleanContext()
		ectx.Codes.PairsAvailable = false

		out := engine.Score(context.Background(), legalityClaim(), ectx)
		if !out.Available {
			t.Fatalf("Score() unavailable: %s", out.Err)
		}
		if math.Abs(out.Score-0.75) > 1e-9 {
			t.Errorf("Score = %.2f, want 0.75 after one errored sub-check", out.Score)
		}
		if out.Diagnostics["compatibility"] != checkErrored {
			t.Errorf("compatibility = %v, want %q", out.Diagnostics["compatibility"], checkErrored)
		}
	})

	t.Run("reference store down", func(t *testing.T) {
		ectx := cleanContext()
		ectx.Codes = enrichment.CodeReference{Err: "reference store down"}

		out := engine.Score(context.Background(), legalityClaim(), ectx)
		if !out.Available {
			t.Fatalf("Score() unavailable: %s", out.Err)
		}
		if math.Abs(out.Score-0.25) > 1e-9 {
			t.Errorf("Score = %.2f, want 0.25 after three errored sub-checks", out.Score)
		}
	})
}
