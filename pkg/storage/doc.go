// Package storage provides the SQLite persistence backends.
//
// Two stores live here. Store holds claims and evaluation results and
// backs the claim-loading, history-enrichment and result-sink boundaries.
// ReferenceStore holds the procedure reference set (code activity windows,
// fee schedules, bundling partners, allowed diagnosis pairings) and the
// provider link counts; it backs the code-reference and membership
// enrichment boundaries. Both are single-file SQLite databases in WAL
// mode, suitable for single-instance deployments.
package storage
