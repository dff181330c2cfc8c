// Package enrichment builds the read-only auxiliary context attached to a
// claim for the duration of one evaluation.
//
// The builder performs its sub-lookups (provider history, patient history,
// code reference data, network membership) concurrently and recovers every
// failure locally: a lookup that errors or times out marks its section of
// the EnrichedContext as unavailable instead of aborting the build. Build
// always returns a context, never an error.
//
// Availability is explicit on every section so that downstream rules and
// scoring engines can distinguish "checked, found nothing" from "could not
// check". An unavailable section is never represented as zero values.
//
// Once built, an EnrichedContext is never mutated and is safe to share
// across concurrent readers without locking.
package enrichment
