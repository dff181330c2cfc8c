package ensemble

import (
	"math"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// Features is the numeric view of a claim handed to the scorers. Sections
// of the enriched context that are unavailable contribute zeros; the
// scorers never see availability flags.
type Features struct {
	// Amount is the billed amount in dollars.
	Amount float64

	// AmountZ is the billed amount's standard score against the
	// provider's historical amounts, 0 when history is thin or absent.
	AmountZ float64

	// ProviderClaimCount is the size of the provider's claim history.
	ProviderClaimCount float64

	// ProviderAverageAmount is the mean historical billed amount.
	ProviderAverageAmount float64

	// DocumentationLength is the length of the attached clinical
	// documentation in characters.
	DocumentationLength float64

	// FacilityLinks is the provider's facility link count from the
	// network membership lookup.
	FacilityLinks float64

	// PatientProcedureCount is how many times this patient's history
	// contains the claim's procedure code.
	PatientProcedureCount float64
}

// Vector flattens the features in a fixed order for model input.
func (f Features) Vector() []float64 {
	return []float64{
		f.Amount,
		f.AmountZ,
		f.ProviderClaimCount,
		f.ProviderAverageAmount,
		f.DocumentationLength,
		f.FacilityLinks,
		f.PatientProcedureCount,
	}
}

// extractFeatures builds the feature vector from the claim and whatever
// context sections are available.
func extractFeatures(c claim.Claim, ectx *enrichment.EnrichedContext) Features {
	f := Features{
		Amount:              c.BilledAmount.Float64(),
		DocumentationLength: float64(len(c.Documentation)),
	}
	if ectx == nil {
		return f
	}

	if ectx.Provider.Available {
		f.ProviderClaimCount = float64(ectx.Provider.ClaimCount)
		f.ProviderAverageAmount = ectx.Provider.AverageAmount
		f.AmountZ = amountZ(f.Amount, ectx.Provider.Amounts)
	}
	if ectx.Network.Available {
		f.FacilityLinks = float64(ectx.Network.FacilityLinks)
	}
	if ectx.Patient.Available {
		for _, h := range ectx.Patient.Claims {
			if h.ProcedureCode == c.ProcedureCode {
				f.PatientProcedureCount++
			}
		}
	}
	return f
}

func amountZ(amount float64, history []float64) float64 {
	if len(history) < 2 {
		return 0
	}
	var sum float64
	for _, v := range history {
		sum += v
	}
	m := sum / float64(len(history))
	var ss float64
	for _, v := range history {
		d := v - m
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(history)))
	if sd == 0 {
		return 0
	}
	return (amount - m) / sd
}
