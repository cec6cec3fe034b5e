package cognition

import (
	"context"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/llm"
)

// genProvider always offers the same two candidate continuations, "A" and
// "B", regardless of how far along the chain is.
type genProvider struct{}

func (genProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	return llm.Message{Content: "A\nB"}, nil
}
func (genProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

// scoreProvider hands out scores in a fixed sequence, one per call.
type scoreProvider struct {
	scores []string
	calls  int
}

func (p *scoreProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	s := p.scores[p.calls]
	p.calls++
	return llm.Message{Content: `{"score": ` + s + `}`}, nil
}
func (p *scoreProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

// TestTreeOfThoughts_K2T2B1_BBWins exercises the worked k=2/T=2/b=1 example:
// step one scores "A" below "B", so only "B" survives into step two; step
// two then scores "B\nB" above "B\nA", so the search returns "B\nB" as the
// single best chain across the whole tree.
func TestTreeOfThoughts_K2T2B1_BBWins(t *testing.T) {
	scorer := &scoreProvider{scores: []string{"0.5", "0.6", "0.7", "0.9"}}
	tot := &TreeOfThoughts{
		Generator:       &agents.ThoughtGenerator{Caller: &agents.Caller{Provider: genProvider{}}},
		Evaluator:       &agents.ThoughtEvaluatorAgent{Caller: &agents.Caller{Provider: scorer}},
		BranchingFactor: 2,
		Depth:           2,
		BeamWidth:       1,
	}
	got, err := tot.Run(context.Background(), "pick the best letter")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got != "B\nB" {
		t.Fatalf("expected winning chain %q, got %q", "B\nB", got)
	}
}

func TestTreeOfThoughts_NoChildren_ReturnsError(t *testing.T) {
	tot := &TreeOfThoughts{
		Generator:       &agents.ThoughtGenerator{Caller: &agents.Caller{Provider: emptyGenProvider{}}},
		Evaluator:       &agents.ThoughtEvaluatorAgent{Caller: &agents.Caller{Provider: emptyGenProvider{}}},
		BranchingFactor: 2,
		Depth:           1,
		BeamWidth:       1,
	}
	if _, err := tot.Run(context.Background(), "query"); err == nil {
		t.Fatalf("expected error when no candidate thought is ever generated")
	}
}

type emptyGenProvider struct{}

func (emptyGenProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	return llm.Message{Content: ""}, nil
}
func (emptyGenProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}
