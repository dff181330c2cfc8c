package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/enrichment"
)

// ErrNotTrained is returned by a scorer whose underlying model has not been
// fitted yet. The engine substitutes a neutral value and stays available.
var ErrNotTrained = errors.New("model not trained")

// SupervisedScorer predicts the probability that a claim is fraudulent from
// its feature vector.
type SupervisedScorer interface {
	PredictProbability(ctx context.Context, features []float64) (float64, error)
}

// OutlierScorer rates how anomalous a feature vector is relative to the
// population the model was fitted on, in [0,1].
type OutlierScorer interface {
	OutlierScore(ctx context.Context, features []float64) (float64, error)
}

// Config contains the ensemble blend parameters.
type Config struct {
	// SupervisedWeight is the blend weight of the supervised probability.
	// Default: 0.7
	SupervisedWeight float64 `yaml:"supervised_weight"`

	// UnsupervisedWeight is the blend weight of the outlier score.
	// Default: 0.3
	UnsupervisedWeight float64 `yaml:"unsupervised_weight"`

	// NeutralProbability replaces the supervised probability when the
	// model is not trained. Default: 0.5
	NeutralProbability float64 `yaml:"neutral_probability"`
}

// DefaultConfig returns the default ensemble configuration.
func DefaultConfig() Config {
	return Config{
		SupervisedWeight:   0.7,
		UnsupervisedWeight: 0.3,
		NeutralProbability: 0.5,
	}
}

// Engine blends a supervised fraud-probability model with an unsupervised
// outlier model into one predictive score.
type Engine struct {
	supervised SupervisedScorer
	outlier    OutlierScorer
	config     Config
	logger     *slog.Logger
}

// New creates the predictive ensemble engine. Either scorer may be nil, in
// which case it is treated as permanently untrained.
func New(supervised SupervisedScorer, outlier OutlierScorer, config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		supervised: supervised,
		outlier:    outlier,
		config:     config,
		logger:     logger.With("component", "engines.ensemble"),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return engines.NameEnsemble }

// Score extracts the feature vector and blends the two model scores. An
// untrained model contributes its neutral value; a model that fails for any
// other reason marks the engine unavailable, since a partial blend would
// silently shift the meaning of the score.
func (e *Engine) Score(ctx context.Context, c claim.Claim, ectx *enrichment.EnrichedContext) engines.Outcome {
	features := extractFeatures(c, ectx)
	vec := features.Vector()

	prob := e.config.NeutralProbability
	probTrained := false
	if e.supervised != nil {
		p, err := e.supervised.PredictProbability(ctx, vec)
		switch {
		case err == nil:
			prob = p
			probTrained = true
		case errors.Is(err, ErrNotTrained):
		default:
			return engines.Unavailable(engines.NameEnsemble,
				fmt.Errorf("supervised model: %w", err))
		}
	}

	outlier := 0.0
	outlierTrained := false
	if e.outlier != nil {
		o, err := e.outlier.OutlierScore(ctx, vec)
		switch {
		case err == nil:
			outlier = o
			outlierTrained = true
		case errors.Is(err, ErrNotTrained):
		default:
			return engines.Unavailable(engines.NameEnsemble,
				fmt.Errorf("outlier model: %w", err))
		}
	}

	score := e.config.SupervisedWeight*prob + e.config.UnsupervisedWeight*outlier
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return engines.Outcome{
		Engine:    engines.NameEnsemble,
		Available: true,
		Score:     score,
		Diagnostics: map[string]interface{}{
			"supervised_probability": prob,
			"supervised_trained":     probTrained,
			"outlier_score":          outlier,
			"outlier_trained":        outlierTrained,
			"features":               vec,
		},
	}
}
