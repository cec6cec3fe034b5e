package agents

import "context"

// DecomposeAgent breaks a query into sub-questions or sub-steps — the
// DECOMPOSE module in the self_discover pipeline's closed module set.
type DecomposeAgent struct{ *Caller }

func (a *DecomposeAgent) Decompose(ctx context.Context, query string) (string, error) {
	system := a.prompt(ctx, "self_discover_decompose", "Break this query down into its constituent sub-questions or sub-steps, one per line.")
	return a.chat(ctx, system, query)
}

// StepCritiqueAgent critiques the running output of a self_discover module
// chain — the CRITIQUE module.
type StepCritiqueAgent struct{ *Caller }

func (a *StepCritiqueAgent) Critique(ctx context.Context, query, priorOutput string) (string, error) {
	system := a.prompt(ctx, "self_discover_critique", "Critique the reasoning so far for gaps, errors, or missed considerations relative to the query.")
	user := "query: " + query + "\nreasoning so far:\n" + priorOutput
	return a.chat(ctx, system, user)
}

// SynthesizeStepAgent folds the running output into a more complete
// intermediate answer — the SYNTHESIZE module.
type SynthesizeStepAgent struct{ *Caller }

func (a *SynthesizeStepAgent) Synthesize(ctx context.Context, query, priorOutput string) (string, error) {
	system := a.prompt(ctx, "self_discover_synthesize", "Synthesize the reasoning so far into a more complete intermediate answer to the query.")
	user := "query: " + query + "\nreasoning so far:\n" + priorOutput
	return a.chat(ctx, system, user)
}
