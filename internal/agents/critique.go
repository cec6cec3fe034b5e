package agents

import "context"

// SelfCriticAgent is the MetaCognitiveEngine: it critiques a completed
// reasoning trace for the self-evolution subsystem's post-hoc analysis.
type SelfCriticAgent struct{ *Caller }

// Critique returns an empty string or the literal "問題なし" (no issues)
// when the trace needs no follow-up action.
func (a *SelfCriticAgent) Critique(ctx context.Context, query, plan, cognitiveLoopOutput, finalAnswer string) (string, error) {
	system := a.prompt(ctx, "meta_cognitive_engine", defaultMetaCognitivePrompt)
	user := "query: " + query + "\nplan:\n" + plan + "\ncognitive loop output:\n" + cognitiveLoopOutput + "\nfinal answer:\n" + finalAnswer
	return a.chat(ctx, system, user)
}

const defaultMetaCognitivePrompt = `Critique this completed reasoning trace for mistakes, omissions, or ways the runtime itself could improve its own prompts or capabilities. If nothing is wrong, respond with exactly "問題なし". Otherwise describe the issue concisely.`

// ProblemDiscoveryAgent surfaces potential problems with a final answer,
// run in parallel with the self-critic as part of the full pipeline's
// post-hoc critique step.
type ProblemDiscoveryAgent struct{ *Caller }

func (a *ProblemDiscoveryAgent) Discover(ctx context.Context, query, finalAnswer string) (string, error) {
	system := a.prompt(ctx, "problem_discovery_agent", "Identify any potential problems, risks, or unanswered aspects of this answer to the user's query. Be concise; if none, say so plainly.")
	user := "query: " + query + "\nanswer:\n" + finalAnswer
	return a.chat(ctx, system, user)
}
