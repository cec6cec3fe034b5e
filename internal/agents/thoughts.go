package agents

import (
	"context"
	"strings"
)

// ThoughtGenerator expands a node in the Tree of Thoughts search by
// producing k candidate continuations.
type ThoughtGenerator struct{ *Caller }

func (a *ThoughtGenerator) Generate(ctx context.Context, query, chainSoFar string, k int) ([]string, error) {
	system := a.prompt(ctx, "thought_generator", defaultThoughtGeneratorPrompt)
	user := "query: " + query + "\nreasoning so far:\n" + chainSoFar
	text, err := a.chat(ctx, system, user)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, k)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

const defaultThoughtGeneratorPrompt = `Given a query and the reasoning chain so far, propose several distinct next reasoning steps, one per line, each a short self-contained thought.`

// ThoughtEvaluatorAgent scores a single candidate thought in context of its
// ancestor chain, returning a value in [0,1].
type ThoughtEvaluatorAgent struct{ *Caller }

func (a *ThoughtEvaluatorAgent) Score(ctx context.Context, query, chain string) (float64, error) {
	system := a.prompt(ctx, "thought_evaluator", defaultThoughtEvaluatorPrompt)
	user := "query: " + query + "\nreasoning chain:\n" + chain
	var out struct {
		Score float64 `json:"score"`
	}
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return 0, err
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 1 {
		out.Score = 1
	}
	return out.Score, nil
}

const defaultThoughtEvaluatorPrompt = `Score how promising this reasoning chain is for correctly answering the query, on a scale from 0 to 1. Respond with JSON: {"score": <0-1>}.`
