package engines

import (
	"context"
	"strings"
	"testing"
	"time"

	"veritas-health/sentinel/pkg/claim"
	"veritas-health/sentinel/pkg/enrichment"
)

type scriptedEngine struct {
	name  string
	score func(ctx context.Context) Outcome
}

func (s scriptedEngine) Name() string { return s.name }

func (s scriptedEngine) Score(ctx context.Context, _ claim.Claim, _ *enrichment.EnrichedContext) Outcome {
	return s.score(ctx)
}

func TestRunStampsEngineAndDuration(t *testing.T) {
	e := scriptedEngine{name: "demo", score: func(context.Context) Outcome {
		return Outcome{Available: true, Score: 0.4}
	}}

	out := Run(context.Background(), e, time.Second, claim.Claim{}, nil)

	if out.Engine != "demo" {
		t.Errorf("Engine = %q, want demo", out.Engine)
	}
	if !out.Available || out.Score != 0.4 {
		t.Errorf("outcome = %+v, want available with score 0.4", out)
	}
	if out.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", out.Duration)
	}
}

func TestRunTimeout(t *testing.T) {
	e := scriptedEngine{name: "slow", score: func(ctx context.Context) Outcome {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return Outcome{Available: true, Score: 1}
	}}

	out := Run(context.Background(), e, 20*time.Millisecond, claim.Claim{}, nil)

	if out.Available {
		t.Fatalf("outcome available after timeout: %+v", out)
	}
	if !strings.Contains(out.Err, "did not complete") {
		t.Errorf("Err = %q, want a timeout description", out.Err)
	}
}

func TestRunPanicIsolation(t *testing.T) {
	e := scriptedEngine{name: "buggy", score: func(context.Context) Outcome {
		panic("index out of range")
	}}

	out := Run(context.Background(), e, time.Second, claim.Claim{}, nil)

	if out.Available {
		t.Fatalf("outcome available after panic: %+v", out)
	}
	if !strings.Contains(out.Err, "index out of range") {
		t.Errorf("Err = %q, want the panic value", out.Err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := scriptedEngine{name: "never", score: func(ctx context.Context) Outcome {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return Outcome{Available: true}
	}}

	out := Run(ctx, e, time.Second, claim.Claim{}, nil)
	if out.Available {
		t.Fatalf("outcome available under a cancelled context: %+v", out)
	}
}

func TestUnavailable(t *testing.T) {
	out := Unavailable("demo", context.DeadlineExceeded)
	if out.Available {
		t.Errorf("Available = true, want false")
	}
	if out.Engine != "demo" || out.Err == "" {
		t.Errorf("outcome = %+v, want engine name and error text", out)
	}
}
