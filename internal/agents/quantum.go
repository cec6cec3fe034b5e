package agents

import (
	"context"
	"strings"
)

// Persona is one fixed viewpoint the quantum pipeline fans a query out to.
type Persona struct {
	Name   string
	System string
}

// DefaultPersonas is the quantum pipeline's fixed persona set.
var DefaultPersonas = []Persona{
	{Name: "Analyst", System: "Answer analytically, grounded in data and precedent."},
	{Name: "Skeptic", System: "Answer by stress-testing assumptions and pointing out weaknesses in the obvious answer."},
	{Name: "Visionary", System: "Answer by considering long-range implications and unconventional framings."},
}

// PersonaAgent answers a query from a single fixed persona's viewpoint.
type PersonaAgent struct{ *Caller }

func (a *PersonaAgent) Answer(ctx context.Context, persona Persona, query string) (string, error) {
	return a.chat(ctx, persona.System, query)
}

// IntegratedInformationAgent synthesizes the quantum pipeline's
// per-persona answers into a single response, modeling integrated
// information across independently-reasoned viewpoints.
type IntegratedInformationAgent struct{ *Caller }

func (a *IntegratedInformationAgent) Synthesize(ctx context.Context, query string, personaAnswers map[string]string) (string, error) {
	system := a.prompt(ctx, "integrated_information_agent", "You are given several independent answers to the same query from distinct viewpoints. Synthesize them into one coherent answer, noting where the viewpoints agreed or diverged.")
	var b strings.Builder
	b.WriteString("query: " + query + "\n\n")
	for persona, answer := range personaAnswers {
		b.WriteString(persona + ":\n" + answer + "\n\n")
	}
	return a.chat(ctx, system, b.String())
}
