package pipeline

import (
	"context"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

const defaultIterativeCorrectionMaxIter = 4

// IterativeCorrection alternates speculative correction (rewrite against
// feedback) and step-by-step verification until the verifier accepts the
// draft or max iterations is reached, per spec.md §4.5.
type IterativeCorrection struct {
	Drafter     *agents.DrafterAgent
	Verifier    *agents.VerifierAgent
	Corrector   *agents.CorrectionAgent
	MaxIterations int
}

func (p *IterativeCorrection) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultIterativeCorrectionMaxIter
	}

	draft, err := p.Drafter.Draft(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	for i := 0; i < maxIter; i++ {
		if ctx.Err() != nil {
			return engine.MasterResponse{}, ctx.Err()
		}
		verdict, err := p.Verifier.Verify(ctx, query, draft)
		if err != nil {
			break
		}
		if verdict.Accepted {
			break
		}
		corrected, err := p.Corrector.Correct(ctx, query, draft, verdict.Feedback)
		if err != nil || corrected == "" {
			break
		}
		draft = corrected
	}

	return engine.MasterResponse{FinalAnswer: draft}, nil
}
