package engine

import (
	"context"
	"errors"
	"testing"

	"noesis/internal/orchestrator"
)

type fakePipeline struct {
	resp  MasterResponse
	err   error
	panic bool
	ran   *bool
}

func (p fakePipeline) Run(ctx context.Context, query string, decision orchestrator.Decision) (MasterResponse, error) {
	if p.ran != nil {
		*p.ran = true
	}
	if p.panic {
		panic("pipeline exploded")
	}
	return p.resp, p.err
}

type fixedEnergy struct{ level float64 }

func (f fixedEnergy) Level() float64 { return f.level }

type passthroughArbiter struct{}

func (passthroughArbiter) Arbitrate(d orchestrator.Decision, level float64) orchestrator.Decision {
	if d.ChosenMode == "full" && level < 40 {
		d.ChosenMode = "simple"
	}
	return d
}

func TestRun_SubstitutesSimpleWhenModeUnknown(t *testing.T) {
	simpleRan := false
	e := New(map[string]Pipeline{
		"simple": fakePipeline{resp: MasterResponse{FinalAnswer: "ok"}, ran: &simpleRan},
	}, nil, nil)
	resp := e.Run(context.Background(), "q", orchestrator.Decision{ChosenMode: "nonexistent_mode"})
	if !simpleRan {
		t.Fatalf("expected fallback to simple pipeline")
	}
	if resp.FinalAnswer != "ok" {
		t.Fatalf("FinalAnswer = %q", resp.FinalAnswer)
	}
}

func TestRun_RecoversFromPipelinePanic(t *testing.T) {
	e := New(map[string]Pipeline{
		"full": fakePipeline{panic: true},
	}, nil, nil)
	resp := e.Run(context.Background(), "q", orchestrator.Decision{ChosenMode: "full"})
	if resp.FinalAnswer == "" {
		t.Fatalf("expected apology response, got empty")
	}
	if resp != apologyResponse {
		t.Fatalf("expected the canned apology response, got %+v", resp)
	}
}

func TestRun_CancelledContextShortCircuits(t *testing.T) {
	ran := false
	e := New(map[string]Pipeline{
		"simple": fakePipeline{ran: &ran},
	}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := e.Run(ctx, "q", orchestrator.Decision{ChosenMode: "simple"})
	if ran {
		t.Fatalf("expected pipeline to never run for an already-cancelled context")
	}
	if resp != cancellationResponse {
		t.Fatalf("expected cancellation response, got %+v", resp)
	}
}

func TestRun_ArbitratesHighCostDownUnderLowEnergy(t *testing.T) {
	fullRan, simpleRan := false, false
	e := New(map[string]Pipeline{
		"full":   fakePipeline{resp: MasterResponse{FinalAnswer: "full"}, ran: &fullRan},
		"simple": fakePipeline{resp: MasterResponse{FinalAnswer: "simple"}, ran: &simpleRan},
	}, passthroughArbiter{}, fixedEnergy{level: 10})
	resp := e.Run(context.Background(), "q", orchestrator.Decision{ChosenMode: "full"})
	if fullRan || !simpleRan {
		t.Fatalf("expected arbiter to downgrade full to simple under low energy")
	}
	if resp.FinalAnswer != "simple" {
		t.Fatalf("FinalAnswer = %q, want simple", resp.FinalAnswer)
	}
}

func TestRun_PipelineErrorYieldsApology(t *testing.T) {
	e := New(map[string]Pipeline{
		"simple": fakePipeline{err: errors.New("boom")},
	}, nil, nil)
	resp := e.Run(context.Background(), "q", orchestrator.Decision{ChosenMode: "simple"})
	if resp != apologyResponse {
		t.Fatalf("expected apology response on pipeline error, got %+v", resp)
	}
}
