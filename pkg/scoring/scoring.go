package scoring

import (
	"fmt"
	"math"

	"veritas-health/sentinel/pkg/engines"
)

// Risk levels assigned to evaluated claims.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Signal names used in assessment breakdowns. The engine-backed signals
// reuse the engine identifiers.
const (
	SignalRules = "rule_compliance"
)

// Weights assigns the relative weight of each risk signal. They must sum
// to 1.0.
type Weights struct {
	// Rules weights the inverted rule-chain compliance score.
	// Default: 0.25
	Rules float64 `yaml:"rules"`

	// Predictive weights the ensemble engine score. Default: 0.35
	Predictive float64 `yaml:"predictive"`

	// Network weights the network risk engine score. Default: 0.25
	Network float64 `yaml:"network"`

	// Legality weights the inverted code-legality score. Default: 0.15
	Legality float64 `yaml:"legality"`
}

// Config contains the aggregation weights and risk thresholds.
type Config struct {
	// Weights are the per-signal aggregation weights.
	Weights Weights `yaml:"weights"`

	// HighThreshold is the composite score at or above which the risk
	// level is high. Default: 0.70
	HighThreshold float64 `yaml:"high_threshold"`

	// MediumThreshold is the composite score at or above which the risk
	// level is medium. Default: 0.40
	MediumThreshold float64 `yaml:"medium_threshold"`
}

// DefaultConfig returns the default aggregation configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Rules:      0.25,
			Predictive: 0.35,
			Network:    0.25,
			Legality:   0.15,
		},
		HighThreshold:   0.70,
		MediumThreshold: 0.40,
	}
}

// Validate checks the weights and thresholds.
func (c Config) Validate() error {
	w := c.Weights
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"rules", w.Rules},
		{"predictive", w.Predictive},
		{"network", w.Network},
		{"legality", w.Legality},
	} {
		if v.value < 0 {
			return fmt.Errorf("scoring: weight %s is negative (%v)", v.name, v.value)
		}
	}
	sum := w.Rules + w.Predictive + w.Network + w.Legality
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring: weights sum to %v, must sum to 1.0", sum)
	}
	if c.MediumThreshold < 0 || c.HighThreshold > 1 || c.MediumThreshold >= c.HighThreshold {
		return fmt.Errorf("scoring: thresholds must satisfy 0 <= medium < high <= 1 (medium=%v high=%v)",
			c.MediumThreshold, c.HighThreshold)
	}
	return nil
}

// RuleSignal is the rule chain's contribution to aggregation.
type RuleSignal struct {
	// Available reports whether the rule chain completed.
	Available bool

	// Compliance is the chain's compliance score in [0,1]. The aggregator
	// inverts it.
	Compliance float64
}

// Contribution is one signal's share of the composite score.
type Contribution struct {
	// Signal names the signal.
	Signal string

	// Weight is the signal's configured weight before renormalization.
	Weight float64

	// Value is the risk-direction value of the signal in [0,1].
	Value float64

	// Available reports whether the signal participated in the composite.
	Available bool
}

// Assessment is the aggregated result.
type Assessment struct {
	// Composite is the weighted composite risk score in [0,1]. Only
	// meaningful when Available is true.
	Composite float64

	// Available reports whether any signal contributed. When false the
	// composite is undefined and RiskLevel is the review fallback.
	Available bool

	// RiskLevel is low, medium or high.
	RiskLevel string

	// Contributions breaks the composite down per signal, including the
	// signals that were unavailable.
	Contributions []Contribution
}

// Aggregate combines the rule signal and the engine outcomes into an
// assessment. The function is deterministic and order-independent: outcomes
// are matched by engine name, never by position. The statistical anomaly
// engine carries no composite weight; its outcome travels with the
// evaluation result as diagnostic evidence only.
func Aggregate(config Config, rules RuleSignal, outcomes []engines.Outcome) Assessment {
	byName := make(map[string]engines.Outcome, len(outcomes))
	for _, out := range outcomes {
		byName[out.Engine] = out
	}

	engineSignal := func(name string, weight float64, invert bool) Contribution {
		out, ok := byName[name]
		if !ok || !out.Available {
			return Contribution{Signal: name, Weight: weight}
		}
		value := clamp01(out.Score)
		if invert {
			value = 1 - value
		}
		return Contribution{Signal: name, Weight: weight, Value: value, Available: true}
	}

	ruleContribution := Contribution{Signal: SignalRules, Weight: config.Weights.Rules}
	if rules.Available {
		ruleContribution.Value = 1 - clamp01(rules.Compliance)
		ruleContribution.Available = true
	}

	contributions := []Contribution{
		ruleContribution,
		engineSignal(engines.NameEnsemble, config.Weights.Predictive, false),
		engineSignal(engines.NameNetwork, config.Weights.Network, false),
		engineSignal(engines.NameLegality, config.Weights.Legality, true),
	}

	var weightSum, weighted float64
	var enginesAvailable int
	for _, c := range contributions {
		if !c.Available {
			continue
		}
		if c.Signal != SignalRules {
			enginesAvailable++
		}
		weightSum += c.Weight
		weighted += c.Weight * c.Value
	}

	// Rule compliance on its own is not a risk assessment: with every
	// engine unavailable the composite stays undefined and the claim is
	// routed to review.
	if weightSum == 0 || enginesAvailable == 0 {
		return Assessment{
			Available:     false,
			RiskLevel:     RiskMedium,
			Contributions: contributions,
		}
	}

	composite := weighted / weightSum
	return Assessment{
		Composite:     composite,
		Available:     true,
		RiskLevel:     riskLevel(config, composite),
		Contributions: contributions,
	}
}

func riskLevel(config Config, composite float64) string {
	switch {
	case composite >= config.HighThreshold:
		return RiskHigh
	case composite >= config.MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
