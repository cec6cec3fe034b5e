package pipeline

import (
	"context"

	"noesis/internal/agents"
	"noesis/internal/cognition"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"

	"github.com/rs/zerolog/log"
)

// SelfDiscover asks the planning agent to choose an ordered subset of
// reasoning modules from {DECOMPOSE, CRITIQUE, SYNTHESIZE, RAG_SEARCH} and
// runs them in sequence, each module seeing the previous one's output, per
// spec.md §4.5. Unknown module names are skipped with a warning.
type SelfDiscover struct {
	Planner     *agents.PlanningAgent
	Decompose   *agents.DecomposeAgent
	Critique    *agents.StepCritiqueAgent
	Synthesize  *agents.SynthesizeStepAgent
	Retriever   cognition.Retriever
}

func (p *SelfDiscover) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	modules, err := p.Planner.SelectModules(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	output := query
	var retrievedInfo string
	for _, module := range modules {
		if !agents.SelfDiscoverModules[module] {
			log.Warn().Str("module", module).Msg("self_discover: unknown module, skipping")
			continue
		}
		var stepOut string
		var stepErr error
		switch module {
		case "DECOMPOSE":
			stepOut, stepErr = p.Decompose.Decompose(ctx, query)
		case "CRITIQUE":
			stepOut, stepErr = p.Critique.Critique(ctx, query, output)
		case "SYNTHESIZE":
			stepOut, stepErr = p.Synthesize.Synthesize(ctx, query, output)
		case "RAG_SEARCH":
			if p.Retriever == nil {
				continue
			}
			docs, err := p.Retriever.Retrieve(ctx, output)
			if err != nil {
				continue
			}
			stepOut = joinDocs(docs)
			retrievedInfo = stepOut
		}
		if stepErr != nil {
			log.Warn().Err(stepErr).Str("module", module).Msg("self_discover: module failed, keeping prior output")
			continue
		}
		if stepOut != "" {
			output = stepOut
		}
	}

	return engine.MasterResponse{FinalAnswer: output, RetrievedInfo: retrievedInfo}, nil
}
