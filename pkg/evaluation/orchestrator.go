package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/enrichment"
	"veritas-health/sentinel/pkg/rules"
	"veritas-health/sentinel/pkg/scoring"
)

// ErrClaimNotFound is returned when the claim to evaluate does not exist.
var ErrClaimNotFound = errors.New("claim not found")

// ClaimStore loads claims for evaluation.
type ClaimStore interface {
	// Claim returns the claim with the given ID, or an error wrapping
	// ErrClaimNotFound.
	Claim(ctx context.Context, id string) (claim.Claim, error)
}

// ResultSink persists evaluation results. Persistence is best effort: a
// sink failure is logged, never surfaced to the evaluation caller.
type ResultSink interface {
	SaveResult(ctx context.Context, result *EvaluationResult) error
}

// Config contains orchestrator tunables.
type Config struct {
	// EngineTimeout bounds each scoring engine individually.
	// Default: 2s
	EngineTimeout time.Duration `yaml:"engine_timeout"`

	// BatchConcurrency caps how many claims a batch evaluates at once.
	// Default: 4
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		EngineTimeout:    2 * time.Second,
		BatchConcurrency: 4,
	}
}

// Orchestrator runs complete claim evaluations.
type Orchestrator struct {
	claims  ClaimStore
	builder *enrichment.Builder
	chain   *rules.Chain
	engines []engines.Engine
	scoring scoring.Config
	sink    ResultSink
	config  Config
	metrics *Metrics
	logger  *slog.Logger
}

// New creates an orchestrator. The claim store and sink may be nil when
// evaluations are driven with in-memory claims and results are not
// persisted; builder, chain and engine set are required.
func New(claims ClaimStore, builder *enrichment.Builder, chain *rules.Chain,
	engineSet []engines.Engine, scoringConfig scoring.Config, sink ResultSink,
	config Config, metrics *Metrics, logger *slog.Logger) *Orchestrator {

	if config.EngineTimeout <= 0 {
		config.EngineTimeout = DefaultConfig().EngineTimeout
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = DefaultConfig().BatchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		claims:  claims,
		builder: builder,
		chain:   chain,
		engines: engineSet,
		scoring: scoringConfig,
		sink:    sink,
		config:  config,
		metrics: metrics,
		logger:  logger.With("component", "evaluation"),
	}
}

// EvaluateByID loads a claim from the store and evaluates it.
func (o *Orchestrator) EvaluateByID(ctx context.Context, claimID string) (*EvaluationResult, error) {
	if o.claims == nil {
		return nil, errors.New("no claim store configured")
	}
	c, err := o.claims.Claim(ctx, claimID)
	if err != nil {
		o.recordFailure("claim_not_found")
		return nil, fmt.Errorf("load claim %q: %w", claimID, err)
	}
	return o.Evaluate(ctx, c)
}

// Evaluate runs the full pipeline against one claim: validate, enrich, fan
// out to the rule chain and every engine, aggregate, persist. Rule and
// engine failures are absorbed into the result; only a malformed claim or
// caller cancellation abort the evaluation.
func (o *Orchestrator) Evaluate(ctx context.Context, c claim.Claim) (*EvaluationResult, error) {
	start := time.Now()

	if err := c.Validate(); err != nil {
		o.recordFailure("invalid_claim")
		return nil, err
	}

	ectx := o.builder.Build(ctx, c)
	if err := ctx.Err(); err != nil {
		o.recordFailure("cancelled")
		return nil, err
	}

	var chainResult *rules.ChainResult
	engineOutcomes := make([]engines.Outcome, len(o.engines))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chainResult, err = o.chain.Execute(gctx, c, ectx)
		return err
	})
	for i, e := range o.engines {
		g.Go(func() error {
			engineOutcomes[i] = engines.Run(gctx, e, o.config.EngineTimeout, c, ectx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only the rule chain returns an error, and only on cancellation.
		o.recordFailure("cancelled")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		o.recordFailure("cancelled")
		return nil, err
	}

	ruleSignal := scoring.RuleSignal{}
	result := &EvaluationResult{
		EvaluationID:   uuid.NewString(),
		ClaimID:        c.ID,
		EngineOutcomes: engineOutcomes,
	}
	if chainResult != nil {
		ruleSignal = scoring.RuleSignal{Available: true, Compliance: chainResult.ComplianceScore}
		result.RuleOutcomes = chainResult.Outcomes
		result.ComplianceScore = chainResult.ComplianceScore
		result.RulesCompleted = true
		result.ChainTerminated = chainResult.Terminated
		result.Warnings = chainResult.Warnings
	}

	assessment := scoring.Aggregate(o.scoring, ruleSignal, engineOutcomes)
	result.CompositeScore = assessment.Composite
	result.ScoreAvailable = assessment.Available
	result.RiskLevel = assessment.RiskLevel
	result.Contributions = assessment.Contributions
	result.EvaluatedAt = time.Now()
	result.Duration = time.Since(start)

	o.logger.Info("claim evaluated",
		"claim_id", c.ID,
		"evaluation_id", result.EvaluationID,
		"risk_level", result.RiskLevel,
		"composite_score", result.CompositeScore,
		"score_available", result.ScoreAvailable,
		"duration", result.Duration,
	)
	if o.metrics != nil {
		o.metrics.RecordResult(result)
	}

	if o.sink != nil {
		if err := o.sink.SaveResult(ctx, result); err != nil {
			o.logger.Error("result persistence failed",
				"claim_id", c.ID,
				"evaluation_id", result.EvaluationID,
				"error", err,
			)
		}
	}

	return result, nil
}

// BatchItem pairs one claim ID with its evaluation outcome.
type BatchItem struct {
	// ClaimID is the claim that was evaluated.
	ClaimID string

	// Result is the evaluation result, nil when Err is set.
	Result *EvaluationResult

	// Err is the per-claim failure, nil when Result is set.
	Err error
}

// EvaluateBatch evaluates a set of claims with bounded concurrency.
// Per-claim failures are collected as items, not propagated; only caller
// cancellation aborts the batch. Items are returned in input order.
func (o *Orchestrator) EvaluateBatch(ctx context.Context, claimIDs []string) ([]BatchItem, error) {
	items := make([]BatchItem, len(claimIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.BatchConcurrency)
	for i, id := range claimIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := o.EvaluateByID(gctx, id)
			items[i] = BatchItem{ClaimID: id, Result: result, Err: err}
			if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (o *Orchestrator) recordFailure(reason string) {
	if o.metrics != nil {
		o.metrics.RecordFailure(reason)
	}
}
