package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ResultStore is the slice of the result store the pruner needs.
type ResultStore interface {
	DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evaluation results.
	// 0 disables pruning entirely.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler; Prune can still be called directly.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() Config {
	return Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on stored evaluation results.
type Pruner struct {
	store  ResultStore
	config Config
	logger *slog.Logger
}

// NewPruner creates a retention pruner.
func NewPruner(store ResultStore, config Config, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: logger.With("component", "retention"),
	}
}

// Prune deletes results older than the retention period and returns how
// many were deleted. With retention disabled it is a no-op.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.store.DeleteResultsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention: prune results: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("evaluation results pruned",
			"deleted", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}
	return deleted, nil
}
