package arbiter

import (
	"testing"

	"noesis/internal/orchestrator"
)

func TestArbitrate_DowngradesHighCostUnderThreshold(t *testing.T) {
	a := New(40)
	d := orchestrator.Decision{ChosenMode: "tree_of_thoughts", Reasoning: "complex query", ConfidenceScore: 0.9}
	got := a.Arbitrate(d, 10)
	if got.ChosenMode != "simple" {
		t.Fatalf("ChosenMode = %q, want simple", got.ChosenMode)
	}
	if got.ConfidenceScore > 0.6 {
		t.Fatalf("ConfidenceScore = %v, want capped at 0.6", got.ConfidenceScore)
	}
	if got.Reasoning == d.Reasoning {
		t.Fatalf("expected reasoning to mention the override")
	}
}

func TestArbitrate_PassesThroughAboveThreshold(t *testing.T) {
	a := New(40)
	d := orchestrator.Decision{ChosenMode: "tree_of_thoughts", ConfidenceScore: 0.9}
	got := a.Arbitrate(d, 80)
	if got.ChosenMode != "tree_of_thoughts" || got.ConfidenceScore != 0.9 {
		t.Fatalf("expected decision unchanged, got %+v", got)
	}
}

func TestArbitrate_LowCostPipelineUnaffected(t *testing.T) {
	a := New(40)
	d := orchestrator.Decision{ChosenMode: "simple", ConfidenceScore: 0.9}
	got := a.Arbitrate(d, 0)
	if got.ChosenMode != "simple" {
		t.Fatalf("expected low-cost pipeline to pass through unchanged")
	}
}
