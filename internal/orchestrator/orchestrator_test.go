package orchestrator

import (
	"context"
	"testing"
)

func TestClassifyEmphasis(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"give me the big picture strategy and vision here", EmphasisBirdsEyeView},
		{"show me the implementation details and raw data", EmphasisDetailOriented},
		{"what time is it", EmphasisUnset},
		{"I need both the strategy and the implementation details", EmphasisUnset},
	}
	for _, c := range cases {
		if got := classifyEmphasis(c.query); got != c.want {
			t.Errorf("classifyEmphasis(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestRoute_URLForcesFull(t *testing.T) {
	o := &Orchestrator{}
	d := o.Route(context.Background(), "please summarize https://example.com/article for me")
	if d.ChosenMode != "full" {
		t.Fatalf("ChosenMode = %q, want full", d.ChosenMode)
	}
	if d.ConfidenceScore != 1.0 {
		t.Fatalf("ConfidenceScore = %v, want 1.0", d.ConfidenceScore)
	}
}

func TestRoute_URLStillAppliesEmphasisOverlay(t *testing.T) {
	o := &Orchestrator{}
	d := o.Route(context.Background(), "give me the big picture strategy and vision for https://example.com/article")
	if d.ChosenMode != "full" {
		t.Fatalf("ChosenMode = %q, want full", d.ChosenMode)
	}
	if got := d.Parameters["reasoning_emphasis"]; got != EmphasisBirdsEyeView {
		t.Fatalf("reasoning_emphasis = %v, want %q (rule 1 must go through overlayEmphasis)", got, EmphasisBirdsEyeView)
	}
}
