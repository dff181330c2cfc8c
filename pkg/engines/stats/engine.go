package stats

import (
	"context"
	"log/slog"
	"math"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/enrichment"
)

// Config contains the statistical engine thresholds.
type Config struct {
	// ZOutlier is the |z| above which the amount is a strong outlier.
	// Default: 3.0
	ZOutlier float64 `yaml:"z_outlier"`

	// ZModerate is the |z| above which the amount is a moderate outlier.
	// Default: 2.0
	ZModerate float64 `yaml:"z_moderate"`

	// BenfordAlpha is the p-value significance level for the Benford test.
	// Default: 0.05
	BenfordAlpha float64 `yaml:"benford_alpha"`

	// MinBenfordSamples is the minimum amount-sample size for the Benford
	// test to run. Default: 10
	MinBenfordSamples int `yaml:"min_benford_samples"`

	// SpikeWindow is the rolling window for frequency-spike detection.
	// Default: 10m
	SpikeWindow time.Duration `yaml:"spike_window"`

	// SpikeMultiplier is the z-score multiple above which a window counts
	// as a spike. Default: 3.0
	SpikeMultiplier float64 `yaml:"spike_multiplier"`
}

// DefaultConfig returns the default statistical engine configuration.
func DefaultConfig() Config {
	return Config{
		ZOutlier:          3.0,
		ZModerate:         2.0,
		BenfordAlpha:      0.05,
		MinBenfordSamples: 10,
		SpikeWindow:       10 * time.Minute,
		SpikeMultiplier:   3.0,
	}
}

// Engine is the statistical anomaly scoring engine.
type Engine struct {
	config Config
	logger *slog.Logger
}

// New creates the statistical anomaly engine.
func New(config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		config: config,
		logger: logger.With("component", "engines.stats"),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return engines.NameStats }

// Score computes the composite anomaly score for one claim:
//
//	+0.5 when |z| > ZOutlier, +0.3 when ZModerate < |z| <= ZOutlier,
//	+0.5 when the Benford test flags an anomaly, capped at 1.0.
//
// Frequency spikes are reported in diagnostics only. Thin history reduces
// confidence, not availability: with fewer than MinBenfordSamples amounts
// the Benford test is skipped and the outcome is marked low confidence.
func (e *Engine) Score(_ context.Context, c claim.Claim, ectx *enrichment.EnrichedContext) engines.Outcome {
	if ectx == nil || !ectx.Provider.Available {
		return engines.Outcome{
			Engine: engines.NameStats,
			Err:    "provider amount history unavailable",
		}
	}

	amount := c.BilledAmount.Float64()
	history := ectx.Provider.Amounts
	sample := append(append([]float64(nil), history...), amount)

	z := zScore(amount, history)
	benford := benfordTest(sample, e.config.MinBenfordSamples, e.config.BenfordAlpha)
	spikes := detectSpikes(ectx.Provider.EventTimes, e.config.SpikeWindow, e.config.SpikeMultiplier)

	score := 0.0
	absZ := math.Abs(z)
	switch {
	case absZ > e.config.ZOutlier:
		score += 0.5
	case absZ > e.config.ZModerate:
		score += 0.3
	}
	if benford.Anomalous {
		score += 0.5
	}
	if score > 1 {
		score = 1
	}

	diags := map[string]interface{}{
		"z_score":         z,
		"z_outlier":       absZ > e.config.ZOutlier,
		"sample_size":     len(sample),
		"benford_tested":  benford.Tested,
		"benford_p_value": benford.PValue,
		"benford_anomaly": benford.Anomalous,
		"spike_count":     len(spikes),
		"low_confidence":  !benford.Tested,
	}
	if len(spikes) > 0 {
		diags["spikes"] = spikes
	}

	return engines.Outcome{
		Engine:      engines.NameStats,
		Available:   true,
		Score:       score,
		Diagnostics: diags,
	}
}
