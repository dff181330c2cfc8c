package engines

import (
	"context"
	"fmt"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

// Engine names. The set of engines is fixed; the aggregator keys its
// weights on these.
const (
	NameStats    = "statistical_anomaly"
	NameEnsemble = "predictive_ensemble"
	NameNetwork  = "network_risk"
	NameLegality = "code_legality"
)

// Outcome is the result of one engine scoring one claim. Exactly one
// Outcome exists per configured engine per evaluation: failure is a value,
// not an absence.
type Outcome struct {
	// Engine identifies the engine that produced this outcome.
	Engine string

	// Available reports whether the engine produced a usable score. When
	// false, Score is meaningless and Err explains what went wrong.
	Available bool

	// Score is the engine's bounded [0,1] contribution. For most engines
	// higher means more fraud risk; the code-legality engine reports a
	// legality score that the aggregator inverts.
	Score float64

	// Err describes the failure when Available is false.
	Err string

	// Diagnostics carries engine-specific detail for auditability.
	Diagnostics map[string]interface{}

	// Duration is how long the engine ran.
	Duration time.Duration
}

// Engine is a single scoring subsystem. Implementations must stay within
// their context deadline and must not panic; the runner provides a second
// line of defense for both.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Score assesses one claim against its enriched context.
	Score(ctx context.Context, c claim.Claim, ectx *enrichment.EnrichedContext) Outcome
}

// Unavailable builds a failed outcome for an engine.
func Unavailable(name string, err error) Outcome {
	return Outcome{Engine: name, Available: false, Err: err.Error()}
}

// Run executes an engine under a timeout with panic isolation. A timeout or
// panic yields an unavailable outcome; sibling engines are unaffected.
func Run(ctx context.Context, e Engine, timeout time.Duration, c claim.Claim, ectx *enrichment.EnrichedContext) Outcome {
	start := time.Now()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Outcome{
					Engine: e.Name(),
					Err:    fmt.Sprintf("engine panicked: %v", r),
				}
			}
		}()
		done <- e.Score(ctx, c, ectx)
	}()

	var out Outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		// A timeout is an internal failure, not a system fault. The
		// goroutine is abandoned; its eventual send lands in the buffer.
		out = Outcome{
			Engine: e.Name(),
			Err:    fmt.Sprintf("engine did not complete: %v", ctx.Err()),
		}
	}

	out.Engine = e.Name()
	out.Duration = time.Since(start)
	return out
}
