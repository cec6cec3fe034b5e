package agents

import "context"

// PlanningAgent produces the step-by-step plan the CognitiveLoop executes,
// and (for self_discover) the ordered subset of reasoning modules to run.
type PlanningAgent struct{ *Caller }

// Plan returns a free-text plan for the full/parallel/conceptual_reasoning
// pipelines' CognitiveLoop invocation.
func (a *PlanningAgent) Plan(ctx context.Context, query string) (string, error) {
	system := a.prompt(ctx, "planner", "Produce a short step-by-step plan for answering the query thoroughly. Do not answer it yet.")
	return a.chat(ctx, system, query)
}

// SelfDiscoverModules is the closed set of reasoning modules self_discover
// may sequence.
var SelfDiscoverModules = map[string]bool{
	"DECOMPOSE":   true,
	"CRITIQUE":    true,
	"SYNTHESIZE":  true,
	"RAG_SEARCH":  true,
}

// SelectModules asks the planning agent which reasoning modules, in order,
// should run for this query. Any module name outside SelfDiscoverModules is
// dropped by the caller, not here.
func (a *PlanningAgent) SelectModules(ctx context.Context, query string) ([]string, error) {
	system := a.prompt(ctx, "self_discover_planner", defaultSelfDiscoverPrompt)
	var out struct {
		Modules []string `json:"modules"`
	}
	if err := a.chatJSON(ctx, system, query, &out); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

const defaultSelfDiscoverPrompt = `Given a query, choose an ordered sequence of reasoning modules from {DECOMPOSE, CRITIQUE, SYNTHESIZE, RAG_SEARCH} best suited to answering it. Respond with JSON: {"modules": ["..."]}.`

// MasterAgent produces the final answer in the full pipeline, combining the
// cognitive loop's synthesis with the plan that produced it.
type MasterAgent struct{ *Caller }

func (a *MasterAgent) Answer(ctx context.Context, query, plan, synthesis string) (string, error) {
	system := a.prompt(ctx, "master_agent", "You are the final answer-writer. Combine the plan and the synthesized findings below into one clear, direct answer to the user's query.")
	user := "query: " + query + "\n\nplan:\n" + plan + "\n\nsynthesis:\n" + synthesis
	return a.chat(ctx, system, user)
}
