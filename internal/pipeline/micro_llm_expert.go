package pipeline

import (
	"context"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
	"noesis/internal/toolregistry"
)

// fallbackResponse is returned when specialist selection fails or the
// chosen tool doesn't exist — spec.md §4.5 requires a fallback response,
// not re-orchestration.
const fallbackResponse = "I wasn't able to find a specialist capable of answering that; please try rephrasing or ask something more general."

// MicroLLMExpert selects a Specialist_* tool via ToolUsingAgent, runs it,
// and humanizes the raw result, per spec.md §4.5.
type MicroLLMExpert struct {
	ToolUser  *agents.ToolUsingAgent
	Tools     *toolregistry.Executor
	Formatter *agents.ResultFormatterAgent
}

func (p *MicroLLMExpert) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	available := ""
	if p.Tools != nil {
		available = p.Tools.Describe()
	}
	choice, err := p.ToolUser.Choose(ctx, query, available)
	if err != nil || choice.ToolName == "" {
		return engine.MasterResponse{FinalAnswer: fallbackResponse}, nil
	}
	known := false
	if p.Tools != nil {
		for _, s := range p.Tools.Registry.Schemas() {
			if s.Name == choice.ToolName {
				known = true
				break
			}
		}
	}
	if !known {
		return engine.MasterResponse{FinalAnswer: fallbackResponse}, nil
	}

	raw, err := p.Tools.Use(ctx, choice.ToolName, choice.Input)
	if err != nil {
		return engine.MasterResponse{FinalAnswer: fallbackResponse}, nil
	}

	answer, err := p.Formatter.Format(ctx, query, raw)
	if err != nil {
		answer = raw
	}
	return engine.MasterResponse{FinalAnswer: answer, RetrievedInfo: raw}, nil
}
