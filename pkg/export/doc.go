// Package export writes evaluation results to interchange formats for
// downstream review tooling. JSON preserves the full result including
// per-rule and per-engine outcomes; CSV flattens each result to one row
// for spreadsheet triage.
package export
