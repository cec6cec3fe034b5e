package pipeline

import (
	"context"
	"strings"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

const defaultDialogueMaxTurns = 6

// InternalDialogue stages a turn-based discussion among fixed personas,
// moderated by a mediator agent who can end the dialogue early once a
// conclusion emerges, per spec.md §4.5.
type InternalDialogue struct {
	Personas  []agents.Persona
	Speaker   *agents.DialoguePersonaAgent
	Mediator  *agents.MediatorAgent
	MaxTurns  int
}

func (p *InternalDialogue) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	personas := p.Personas
	if personas == nil {
		personas = agents.DefaultPersonas
	}
	maxTurns := p.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultDialogueMaxTurns
	}
	if len(personas) == 0 {
		return engine.MasterResponse{FinalAnswer: "No personas are configured for internal dialogue."}, nil
	}

	var transcript strings.Builder
	var conclusion string
	for turn := 0; turn < maxTurns; turn++ {
		if ctx.Err() != nil {
			return engine.MasterResponse{}, ctx.Err()
		}
		persona := personas[turn%len(personas)]
		remark, err := p.Speaker.Speak(ctx, persona, query, transcript.String())
		if err != nil {
			continue
		}
		transcript.WriteString(persona.Name + ": " + remark + "\n")

		verdict, err := p.Mediator.Steer(ctx, query, transcript.String())
		if err != nil {
			continue
		}
		transcript.WriteString("Mediator: " + verdict.Message + "\n")
		if verdict.Conclude {
			conclusion = verdict.Message
			break
		}
	}
	if conclusion == "" {
		conclusion = transcript.String()
	}
	return engine.MasterResponse{FinalAnswer: conclusion}, nil
}
