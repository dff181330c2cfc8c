package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/engines"
	"veritas-health/sentinel/pkg/enrichment"
)

// GraphClient reads the provider billing graph. Implementations are remote
// or on-disk graph stores; every method honors the context deadline.
type GraphClient interface {
	// ProviderCentrality returns the provider's normalized degree
	// centrality in [0,1]. Providers absent from the graph score 0.
	ProviderCentrality(ctx context.Context, providerID string) (float64, error)

	// ComponentCount returns the number of connected components in the
	// billing graph.
	ComponentCount(ctx context.Context) (int, error)
}

// Config contains the network engine thresholds.
type Config struct {
	// HighCentrality is the centrality above which a provider is
	// considered suspiciously connected. Default: 0.8
	HighCentrality float64 `yaml:"high_centrality"`

	// Fragmentation is the component count above which the graph is
	// considered suspiciously fragmented. Default: 100
	Fragmentation int `yaml:"fragmentation"`
}

// DefaultConfig returns the default network engine configuration.
func DefaultConfig() Config {
	return Config{
		HighCentrality: 0.8,
		Fragmentation:  100,
	}
}

// Engine scores claims by the provider's position in the billing graph.
type Engine struct {
	graph  GraphClient
	config Config
	logger *slog.Logger
}

// New creates the network risk engine. A nil graph client makes every
// outcome unavailable.
func New(graph GraphClient, config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		graph:  graph,
		config: config,
		logger: logger.With("component", "engines.network"),
	}
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return engines.NameNetwork }

// Score adds 0.3 when the provider's centrality exceeds the high-centrality
// threshold and 0.2 when the graph's component count exceeds the
// fragmentation threshold. A graph that cannot be consulted yields an
// unavailable outcome, never a zero score.
func (e *Engine) Score(ctx context.Context, c claim.Claim, _ *enrichment.EnrichedContext) engines.Outcome {
	if e.graph == nil {
		return engines.Unavailable(engines.NameNetwork, errors.New("no graph client configured"))
	}

	centrality, err := e.graph.ProviderCentrality(ctx, c.ProviderID)
	if err != nil {
		return engines.Unavailable(engines.NameNetwork,
			fmt.Errorf("provider centrality: %w", err))
	}
	components, err := e.graph.ComponentCount(ctx)
	if err != nil {
		return engines.Unavailable(engines.NameNetwork,
			fmt.Errorf("component count: %w", err))
	}

	score := 0.0
	if centrality > e.config.HighCentrality {
		score += 0.3
	}
	if components > e.config.Fragmentation {
		score += 0.2
	}

	return engines.Outcome{
		Engine:    engines.NameNetwork,
		Available: true,
		Score:     score,
		Diagnostics: map[string]interface{}{
			"centrality":      centrality,
			"high_centrality": centrality > e.config.HighCentrality,
			"component_count": components,
			"fragmented":      components > e.config.Fragmentation,
		},
	}
}
