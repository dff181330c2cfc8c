// Package scoring turns rule-chain compliance and engine outcomes into one
// composite risk score and a risk level.
//
// Aggregation is a pure function over its inputs: fixed weights per signal,
// renormalized across whichever signals are actually available, with the
// compliance and legality signals inverted so that every contribution
// points in the direction of risk. When no engine signal is available the
// composite is undefined and the risk level falls back to medium, which
// routes the claim to human review instead of silently clearing it.
package scoring
