// Package claim defines the immutable claim model that flows through the
// evaluation pipeline.
//
// A Claim describes a single billed medical service event: who was treated,
// who billed, what procedure and diagnosis were coded, how much was billed,
// and when the service occurred. Claims are validated once at the start of an
// evaluation and are never mutated afterwards; every downstream component
// (rules, scoring engines, the aggregator) reads the same value.
//
// Monetary amounts use Money, a fixed-point representation in cents, so that
// billed amounts survive storage round trips and comparisons without binary
// floating point drift.
package claim
