package rules

import (
	"strings"
	"testing"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

var serviceDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func baseClaim() claim.Claim {
	return claim.Claim{
		ID:            "CLM-1",
		PatientID:     "PAT-1",
		ProviderID:    "PRV-1",
		PayerID:       "PAY-1",
		ProcedureCode: "99214",
		DiagnosisCode: "I10",
		BilledAmount:  claim.FromFloat(150),
		ServiceDate:   serviceDate,
		BillDate:      serviceDate.AddDate(0, 0, 2),
		Documentation: strings.Repeat("Detailed clinical note. ", 10),
	}
}

func fullContext() *enrichment.EnrichedContext {
	return &enrichment.EnrichedContext{
		ClaimID: "CLM-1",
		Provider: enrichment.ProviderHistory{
			Available: true,
		},
		Patient: enrichment.PatientHistory{
			Available: true,
		},
		Codes: enrichment.CodeReference{
			Available:        true,
			Procedure:        &enrichment.ProcedureInfo{Code: "99214", Active: true, FeeMax: claim.FromFloat(400)},
			PairsAvailable:   true,
			AllowedDiagnoses: []string{"I10", "I11", "E11.9"},
		},
		Network: enrichment.NetworkMembership{Available: true, FacilityLinks: 1},
	}
}

func TestDiagnosisFormatRule(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    Result
		wantMsg string
	}{
		{"valid plain", "I10", Passed, "well formed"},
		{"valid with decimal", "E11.9", Passed, "well formed"},
		{"valid decimal two digits", "M54.50", Passed, "well formed"},
		// Scenario: letter O in place of a zero.
		{"letter O not zero", "I1O", Failed, "malformed"},
		{"lowercase letter", "i10", Failed, "malformed"},
		{"too many decimals", "E11.999", Failed, "malformed"},
		{"missing digits", "I1", Failed, "malformed"},
		{"absent code", "", Failed, "missing"},
	}

	rule := &diagnosisFormatRule{severity: 1.0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			c.DiagnosisCode = tt.code

			out := rule.Evaluate(c, fullContext())
			if out.Result != tt.want {
				t.Errorf("Result = %s, want %s", out.Result, tt.want)
			}
			if !strings.Contains(out.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want containing %q", out.Message, tt.wantMsg)
			}
		})
	}
}

func TestProcedureStatusRule(t *testing.T) {
	rule := &procedureStatusRule{severity: 1.0}

	t.Run("active code passes", func(t *testing.T) {
		out := rule.Evaluate(baseClaim(), fullContext())
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed: %s", out.Result, out.Message)
		}
	})

	t.Run("unknown code fails", func(t *testing.T) {
		ectx := fullContext()
		ectx.Codes.Procedure = nil
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed", out.Result)
		}
	})

	t.Run("inactive as of service date fails", func(t *testing.T) {
		ectx := fullContext()
		// Retired before the service date; the bill date is irrelevant.
		ectx.Codes.Procedure = &enrichment.ProcedureInfo{
			Code:        "99214",
			Active:      true,
			ActiveUntil: serviceDate.AddDate(0, -1, 0),
		}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed", out.Result)
		}
		if !strings.Contains(out.Message, "inactive on service date") {
			t.Errorf("Message = %q, want inactive-on-service-date", out.Message)
		}
	})

	t.Run("reference unavailable skips", func(t *testing.T) {
		ectx := fullContext()
		ectx.Codes = enrichment.CodeReference{Err: "reference store down"}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Skipped {
			t.Errorf("Result = %s, want skipped", out.Result)
		}
	})
}

func TestCodingPairRule(t *testing.T) {
	rule := &codingPairRule{severity: 0.5}

	t.Run("pair on list passes", func(t *testing.T) {
		out := rule.Evaluate(baseClaim(), fullContext())
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed", out.Result)
		}
	})

	t.Run("pair off list fails", func(t *testing.T) {
		c := baseClaim()
		c.DiagnosisCode = "J45.90"
		out := rule.Evaluate(c, fullContext())
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed", out.Result)
		}
	})

	t.Run("list unavailable skips not fails", func(t *testing.T) {
		ectx := fullContext()
		ectx.Codes.PairsAvailable = false
		ectx.Codes.AllowedDiagnoses = nil
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Skipped {
			t.Errorf("Result = %s, want skipped", out.Result)
		}
	})
}

func TestDocumentationRule(t *testing.T) {
	rule := &documentationRule{severity: 0.5, minLength: 25, briefLength: 100}

	tests := []struct {
		name        string
		doc         string
		want        Result
		wantWarning bool
	}{
		{"empty fails", "", Failed, false},
		{"below minimum fails", "short note", Failed, false},
		{"brief passes with warning", strings.Repeat("a", 40), Passed, true},
		{"complete passes clean", strings.Repeat("a", 150), Passed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseClaim()
			c.Documentation = tt.doc
			out := rule.Evaluate(c, nil)
			if out.Result != tt.want {
				t.Errorf("Result = %s, want %s", out.Result, tt.want)
			}
			if (out.Warning != "") != tt.wantWarning {
				t.Errorf("Warning = %q, want warning=%v", out.Warning, tt.wantWarning)
			}
		})
	}
}

func TestProviderFrequencyRule(t *testing.T) {
	rule := &providerFrequencyRule{severity: 0.5, limit: 3, windowDays: 30}

	history := func(n int, daysAgo int) []enrichment.HistoricalClaim {
		var claims []enrichment.HistoricalClaim
		for i := 0; i < n; i++ {
			claims = append(claims, enrichment.HistoricalClaim{
				ClaimID:       "H" + strings.Repeat("x", i+1),
				ProviderID:    "PRV-1",
				ProcedureCode: "99214",
				ServiceDate:   serviceDate.AddDate(0, 0, -daysAgo),
			})
		}
		return claims
	}

	t.Run("four prior claims against limit three fails", func(t *testing.T) {
		// Scenario: 4 prior claims in 30 days, configured limit 3.
		ectx := fullContext()
		ectx.Provider.Claims = history(4, 10)
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed: %s", out.Result, out.Message)
		}
	})

	t.Run("claims outside window ignored", func(t *testing.T) {
		ectx := fullContext()
		ectx.Provider.Claims = history(10, 45)
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed: %s", out.Result, out.Message)
		}
	})

	t.Run("at limit passes", func(t *testing.T) {
		ectx := fullContext()
		ectx.Provider.Claims = history(3, 10)
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed", out.Result)
		}
	})

	t.Run("history unavailable skips", func(t *testing.T) {
		ectx := fullContext()
		ectx.Provider = enrichment.ProviderHistory{Err: "store down"}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Skipped {
			t.Errorf("Result = %s, want skipped", out.Result)
		}
	})
}

func TestBillingAmountRule(t *testing.T) {
	rule := &billingAmountRule{severity: 1.0, defaultCeiling: claim.FromFloat(10000)}

	t.Run("within fee schedule passes", func(t *testing.T) {
		out := rule.Evaluate(baseClaim(), fullContext())
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed: %s", out.Result, out.Message)
		}
	})

	t.Run("above fee schedule ceiling fails", func(t *testing.T) {
		c := baseClaim()
		c.BilledAmount = claim.FromFloat(450) // fee max is 400
		out := rule.Evaluate(c, fullContext())
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed", out.Result)
		}
	})

	t.Run("non-positive amount fails", func(t *testing.T) {
		c := baseClaim()
		c.BilledAmount = 0
		out := rule.Evaluate(c, fullContext())
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed", out.Result)
		}
	})

	t.Run("falls back to default ceiling without reference", func(t *testing.T) {
		c := baseClaim()
		c.BilledAmount = claim.FromFloat(12000)
		ectx := fullContext()
		ectx.Codes = enrichment.CodeReference{}
		out := rule.Evaluate(c, ectx)
		if out.Result != Failed {
			t.Errorf("Result = %s, want failed against default ceiling", out.Result)
		}
		if !strings.Contains(out.Message, "default ceiling") {
			t.Errorf("Message = %q, want default-ceiling mention", out.Message)
		}
	})
}

func TestDuplicateRule(t *testing.T) {
	rule := &duplicateRule{severity: 1.0, nearPct: 0.05, windowDays: 7}

	exact := enrichment.HistoricalClaim{
		ClaimID:       "H1",
		PatientID:     "PAT-1",
		ProviderID:    "PRV-1",
		ProcedureCode: "99214",
		ServiceDate:   serviceDate,
		Amount:        claim.FromFloat(150),
	}

	t.Run("exact duplicate fails at full severity", func(t *testing.T) {
		ectx := fullContext()
		ectx.Provider.Claims = []enrichment.HistoricalClaim{exact}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Failed {
			t.Fatalf("Result = %s, want failed", out.Result)
		}
		if out.Severity != 1.0 {
			t.Errorf("Severity = %v, want 1.0", out.Severity)
		}
		if !strings.Contains(out.Message, "exact duplicate") {
			t.Errorf("Message = %q, want exact duplicate", out.Message)
		}
	})

	t.Run("near duplicate fails at reduced severity", func(t *testing.T) {
		nearClaim := exact
		nearClaim.ServiceDate = serviceDate.AddDate(0, 0, -2)
		nearClaim.Amount = claim.FromFloat(153) // 2% off
		ectx := fullContext()
		ectx.Provider.Claims = []enrichment.HistoricalClaim{nearClaim}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Failed {
			t.Fatalf("Result = %s, want failed", out.Result)
		}
		if out.Severity != 0.5 {
			t.Errorf("Severity = %v, want 0.5", out.Severity)
		}
		if !strings.Contains(out.Message, "near duplicate") {
			t.Errorf("Message = %q, want near duplicate", out.Message)
		}
	})

	t.Run("amount difference above threshold passes", func(t *testing.T) {
		other := exact
		other.ServiceDate = serviceDate.AddDate(0, 0, -2)
		other.Amount = claim.FromFloat(200)
		ectx := fullContext()
		ectx.Provider.Claims = []enrichment.HistoricalClaim{other}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed: %s", out.Result, out.Message)
		}
	})

	t.Run("current claim excluded from comparison", func(t *testing.T) {
		self := exact
		self.ClaimID = "CLM-1"
		ectx := fullContext()
		ectx.Provider.Claims = []enrichment.HistoricalClaim{self}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Passed {
			t.Errorf("Result = %s, want passed when only match is the claim itself", out.Result)
		}
	})

	t.Run("history unavailable skips", func(t *testing.T) {
		ectx := fullContext()
		ectx.Provider = enrichment.ProviderHistory{Err: "store down"}
		out := rule.Evaluate(baseClaim(), ectx)
		if out.Result != Skipped {
			t.Errorf("Result = %s, want skipped", out.Result)
		}
	})
}
