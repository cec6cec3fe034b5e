package cognition

import (
	"context"
	"errors"
	"sort"

	"noesis/internal/agents"
)

// TreeOfThoughts runs a breadth-first, beam-limited search over candidate
// reasoning chains: at each step every surviving chain is expanded into k
// candidate continuations, all candidates are scored, and only the top b
// survive to the next step.
type TreeOfThoughts struct {
	Generator *agents.ThoughtGenerator
	Evaluator *agents.ThoughtEvaluatorAgent

	// BranchingFactor (k) is how many children each frontier thought
	// generates per step.
	BranchingFactor int
	// Depth (T) is how many expansion steps to run.
	Depth int
	// BeamWidth (b) is how many thoughts survive each step.
	BeamWidth int
}

type thought struct {
	chain string
	score float64
}

// Run performs the search and returns the chain with the single highest
// score seen anywhere in the tree, not merely the final frontier — a chain
// that scored highest early is still returned even if it has since fallen
// out of the beam.
func (a *TreeOfThoughts) Run(ctx context.Context, query string) (string, error) {
	k, steps, beam := a.BranchingFactor, a.Depth, a.BeamWidth
	if k <= 0 {
		k = 1
	}
	if steps <= 0 {
		steps = 1
	}
	if beam <= 0 {
		beam = 1
	}

	frontier := []thought{{chain: ""}}
	var best thought
	haveBest := false

	for step := 0; step < steps; step++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var children []thought
		for _, parent := range frontier {
			texts, err := a.Generator.Generate(ctx, query, parent.chain, k)
			if err != nil {
				return "", err
			}
			for _, t := range texts {
				chain := t
				if parent.chain != "" {
					chain = parent.chain + "\n" + t
				}
				children = append(children, thought{chain: chain})
			}
		}
		if len(children) == 0 {
			break
		}
		for i := range children {
			score, err := a.Evaluator.Score(ctx, query, children[i].chain)
			if err != nil {
				return "", err
			}
			children[i].score = score
			if !haveBest || children[i].score > best.score {
				best = children[i]
				haveBest = true
			}
		}

		sort.SliceStable(children, func(i, j int) bool { return children[i].score > children[j].score })
		if len(children) > beam {
			children = children[:beam]
		}
		frontier = children
	}

	if !haveBest {
		return "", errors.New("tree of thoughts: no candidate thought survived generation")
	}
	return best.chain, nil
}
