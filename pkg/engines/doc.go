// Package engines defines the scoring engine contract shared by the four
// risk-assessment subsystems (statistical anomaly, predictive ensemble,
// network risk, code legality) and the bounded runner that executes them.
//
// An engine converts a claim plus its enriched context into a bounded risk
// contribution. Engines never throw: timeouts, unreachable dependencies and
// internal logic errors are all converted into an Outcome with
// Available=false and an error description. "Unavailable" is a first-class
// value, deliberately distinct from a zero score: an engine that could not
// assess risk must never look like an engine that found none.
package engines
