package pipeline

import (
	"context"
	"sync"

	"noesis/internal/agents"
	"noesis/internal/cognition"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

// complexityRegimes are the three reasoning-instruction variants Parallel
// runs the cognitive loop under concurrently.
var complexityRegimes = []string{
	"Answer concisely, covering only the essentials.",
	"Answer at normal depth, covering the main considerations.",
	"Answer exhaustively, covering edge cases and caveats.",
}

// Parallel runs the cognitive loop at three complexity regimes
// concurrently and lets a verifier agent pick (and possibly merge) the
// best synthesis, per spec.md §4.5.
type Parallel struct {
	Planner  *agents.PlanningAgent
	Loop     *cognition.Loop
	Verifier *agents.VerifierAgent
}

func (p *Parallel) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	plan, err := p.Planner.Plan(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	results := make([]cognition.Result, len(complexityRegimes))
	errs := make([]error, len(complexityRegimes))
	var wg sync.WaitGroup
	for i, regime := range complexityRegimes {
		wg.Add(1)
		go func(i int, regime string) {
			defer wg.Done()
			results[i], errs[i] = p.Loop.Run(ctx, query, plan, regime)
		}(i, regime)
	}
	wg.Wait()

	var drafts []string
	var retrievedInfo string
	for i, r := range results {
		if errs[i] != nil {
			continue
		}
		drafts = append(drafts, r.Synthesis)
		if retrievedInfo == "" {
			retrievedInfo = r.RetrievedInfo
		}
	}
	if len(drafts) == 0 {
		return engine.MasterResponse{}, errs[0]
	}

	_, merged, err := p.Verifier.PickBest(ctx, query, drafts)
	if err != nil {
		merged = drafts[0]
	}
	return engine.MasterResponse{FinalAnswer: merged, RetrievedInfo: retrievedInfo}, nil
}
