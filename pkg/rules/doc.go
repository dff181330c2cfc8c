// Package rules implements the compliance rule chain: a fixed, statically
// enumerated set of stateless predicates executed in strict priority order
// with early termination on critical failures.
//
// Every rule is a pure function of the claim and its enriched context. A
// rule never performs I/O and never returns an error: invalid input is a
// failed outcome, and data the rule needed but could not get from context is
// a skipped outcome. The chain aggregates outcomes into a compliance score
// in [0,1].
//
// The rule set is closed by design. Rules are constructed by NewChain from
// configuration, not registered at runtime, so the complete set of behaviors
// is statically known and exhaustively testable.
package rules
