// Package evaluation orchestrates the full risk evaluation of a claim.
//
// One evaluation is: load and validate the claim, build its enriched
// context, fan the claim out to the rule chain and the four scoring
// engines concurrently, aggregate the surviving signals into a composite
// risk score, and persist the immutable result. Rules and engines fail
// independently; only input errors (a malformed claim), a missing claim,
// and caller cancellation abort an evaluation. A cancelled evaluation
// returns the context error and never a partial result.
package evaluation
