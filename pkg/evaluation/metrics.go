package evaluation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for the evaluation pipeline.
type Metrics struct {
	evaluations        *prometheus.CounterVec
	evaluationFailures *prometheus.CounterVec
	engineOutcomes     *prometheus.CounterVec
	ruleOutcomes       *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	compositeScore     prometheus.Histogram
}

// NewMetrics creates the evaluation metrics, registered on reg. A nil
// registerer falls back to the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_evaluations_total",
				Help: "Total number of completed claim evaluations",
			},
			[]string{"risk_level"},
		),

		evaluationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_evaluation_failures_total",
				Help: "Total number of evaluations aborted before producing a result",
			},
			[]string{"reason"},
		),

		engineOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_engine_outcomes_total",
				Help: "Engine outcomes by engine and availability",
			},
			[]string{"engine", "outcome"},
		),

		ruleOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_rule_outcomes_total",
				Help: "Rule outcomes by rule and result",
			},
			[]string{"rule", "result"},
		),

		evaluationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentinel_evaluation_duration_seconds",
				Help:    "Duration of complete claim evaluations in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),

		compositeScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentinel_composite_score",
				Help:    "Distribution of composite risk scores",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}
}

// RecordResult records a completed evaluation.
func (m *Metrics) RecordResult(result *EvaluationResult) {
	m.evaluations.WithLabelValues(result.RiskLevel).Inc()
	m.evaluationDuration.Observe(result.Duration.Seconds())
	if result.ScoreAvailable {
		m.compositeScore.Observe(result.CompositeScore)
	}
	for _, out := range result.EngineOutcomes {
		outcome := "available"
		if !out.Available {
			outcome = "unavailable"
		}
		m.engineOutcomes.WithLabelValues(out.Engine, outcome).Inc()
	}
	for _, out := range result.RuleOutcomes {
		m.ruleOutcomes.WithLabelValues(out.RuleID, string(out.Result)).Inc()
	}
}

// RecordFailure records an evaluation aborted before producing a result.
func (m *Metrics) RecordFailure(reason string) {
	m.evaluationFailures.WithLabelValues(reason).Inc()
}
