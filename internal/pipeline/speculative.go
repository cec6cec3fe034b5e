package pipeline

import (
	"context"
	"errors"
	"sync"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

// Speculative runs K drafter calls in parallel and lets a single verifier
// LLM pick and merge the best, per spec.md §4.5.
type Speculative struct {
	Drafter    *agents.DrafterAgent
	Verifier   *agents.VerifierAgent
	NumDrafts int
}

const defaultSpeculativeDrafts = 3

func (p *Speculative) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	k := p.NumDrafts
	if k <= 0 {
		k = defaultSpeculativeDrafts
	}

	drafts := make([]string, k)
	errs := make([]error, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			drafts[i], errs[i] = p.Drafter.Draft(ctx, query)
		}(i)
	}
	wg.Wait()

	var ok []string
	for i, d := range drafts {
		if errs[i] == nil {
			ok = append(ok, d)
		}
	}
	if len(ok) == 0 {
		return engine.MasterResponse{}, errors.New("speculative: all drafters failed")
	}

	_, merged, err := p.Verifier.PickBest(ctx, query, ok)
	if err != nil {
		merged = ok[0]
	}
	return engine.MasterResponse{FinalAnswer: merged}, nil
}
