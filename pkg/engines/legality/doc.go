// Package legality implements the code-legality scoring engine.
//
// Three sub-checks run against the claim's cached code reference data:
// procedure/diagnosis compatibility, unbundling of bundled procedures, and
// fee-schedule range. Each starts from a legality of 1.0 and a violation
// subtracts its fixed penalty; a sub-check whose data could not be fetched
// subtracts a smaller error penalty instead of failing the engine. The
// outcome score is the LEGALITY of the claim, not its risk; the aggregator
// inverts it.
package legality
