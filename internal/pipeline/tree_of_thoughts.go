package pipeline

import (
	"context"

	"noesis/internal/cognition"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

const (
	defaultToTBranchFactor = 3
	defaultToTDepth        = 3
	defaultToTBeamWidth    = 3
)

// TreeOfThoughts runs cognition.TreeOfThoughts's BFS beam search and
// returns the winning chain as the final answer, per spec.md §4.7. k
// (branching), T (depth), and b (beam) come from decision.Parameters when
// present, else from configured defaults.
type TreeOfThoughts struct {
	Search *cognition.TreeOfThoughts

	BranchingFactor int
	Depth           int
	BeamWidth       int
}

func (p *TreeOfThoughts) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	search := *p.Search
	search.BranchingFactor = intParam(decision.Parameters, "k", firstNonZero(p.BranchingFactor, defaultToTBranchFactor))
	search.Depth = intParam(decision.Parameters, "T", firstNonZero(p.Depth, defaultToTDepth))
	search.BeamWidth = intParam(decision.Parameters, "b", firstNonZero(p.BeamWidth, defaultToTBeamWidth))

	chain, err := search.Run(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}
	return engine.MasterResponse{FinalAnswer: chain}, nil
}

func firstNonZero(vs ...int) int {
	for _, v := range vs {
		if v > 0 {
			return v
		}
	}
	return 0
}

func intParam(params map[string]any, key string, def int) int {
	if params == nil {
		return def
	}
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}
