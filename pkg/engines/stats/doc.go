// Package stats implements the statistical anomaly scoring engine.
//
// Three detectors feed a single [0,1] score: a Z-score of the billed amount
// against the provider's historical amount distribution, a Benford's-Law
// goodness-of-fit over leading digits of the amount set, and a
// frequency-spike detector over rolling windows of historical service
// events. The engine degrades rather than errors when history is thin: with
// fewer than the minimum samples the Benford test is skipped and the
// diagnostics mark the score as low confidence.
package stats
