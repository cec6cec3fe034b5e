package pipeline

import (
	"context"
	"errors"
	"sync"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

// Quantum fans a query out to N fixed personas and synthesizes their
// independent answers via IntegratedInformationAgent, per spec.md §4.5. An
// empty persona list returns an explanatory response rather than an error.
type Quantum struct {
	Personas  []agents.Persona
	Answerer  *agents.PersonaAgent
	Integrate *agents.IntegratedInformationAgent
}

func (p *Quantum) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	personas := p.Personas
	if personas == nil {
		personas = agents.DefaultPersonas
	}
	if len(personas) == 0 {
		return engine.MasterResponse{
			FinalAnswer: "No personas are configured for quantum reasoning, so this query could not be answered through that mode.",
		}, nil
	}

	answers := make(map[string]string, len(personas))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, persona := range personas {
		wg.Add(1)
		go func(persona agents.Persona) {
			defer wg.Done()
			answer, err := p.Answerer.Answer(ctx, persona, query)
			if err != nil {
				return
			}
			mu.Lock()
			answers[persona.Name] = answer
			mu.Unlock()
		}(persona)
	}
	wg.Wait()

	if len(answers) == 0 {
		if err := ctx.Err(); err != nil {
			return engine.MasterResponse{}, err
		}
		return engine.MasterResponse{}, errors.New("quantum: all persona calls failed")
	}

	final, err := p.Integrate.Synthesize(ctx, query, answers)
	if err != nil {
		return engine.MasterResponse{}, err
	}
	return engine.MasterResponse{FinalAnswer: final}, nil
}
