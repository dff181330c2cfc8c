// Package retention prunes stored evaluation results on a schedule.
//
// Evaluation results accumulate one row per evaluated claim plus one per
// rule outcome; without pruning the result tables grow without bound. The
// pruner deletes results older than the configured retention period, and
// the scheduler runs it on a cron expression.
package retention
