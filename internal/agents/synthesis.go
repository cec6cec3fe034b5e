package agents

import "context"

// SynthesisAgent produces the CognitiveLoop's final synthesis from
// everything the loop gathered: the plan, retrieved info, recalled
// long-term memory, and any physical-simulation insights.
type SynthesisAgent struct{ *Caller }

// SynthesisInput mirrors cognition.SynthesisInput structurally so the
// cognitive loop can pass itself through without this package importing
// cognition (which would create an import cycle, since cognition is the
// consumer here).
type SynthesisInput struct {
	Query                  string
	Plan                   string
	LongTermMemoryContext  string
	FinalRetrievedInfo     string
	PhysicalInsights       string
	ReasoningInstruction   string
}

func (a *SynthesisAgent) Synthesize(ctx context.Context, in SynthesisInput) (string, error) {
	system := a.prompt(ctx, "synthesis_agent", defaultSynthesisPrompt)
	user := "query: " + in.Query +
		"\nplan:\n" + in.Plan +
		"\nlong-term memory context:\n" + in.LongTermMemoryContext +
		"\nretrieved info:\n" + in.FinalRetrievedInfo +
		"\nphysical-simulation insights:\n" + in.PhysicalInsights +
		"\nreasoning emphasis: " + in.ReasoningInstruction
	return a.chat(ctx, system, user)
}

const defaultSynthesisPrompt = `Synthesize everything gathered so far — the plan, retrieved information, recalled long-term context, and any physical-simulation insights — into a coherent set of findings that answers the query. Respect the reasoning emphasis if one is given.`
