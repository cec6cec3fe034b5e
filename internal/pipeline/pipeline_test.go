package pipeline

import (
	"context"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/engine"
	"noesis/internal/llm"
	"noesis/internal/orchestrator"
)

type constProvider struct{ reply string }

func (p constProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	return llm.Message{Content: p.reply}, nil
}
func (p constProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

func TestSimple_FallsBackToDirectWhenRouteIsDirect(t *testing.T) {
	router := &agents.RouterAgent{Caller: &agents.Caller{Provider: constProvider{reply: `{"route":"DIRECT"}`}}}
	direct := &agents.DirectAnswerer{Caller: &agents.Caller{Provider: constProvider{reply: "a direct answer"}}}
	p := &Simple{Router: router, Direct: direct}

	resp, err := p.Run(context.Background(), "what is the capital of France", orchestrator.Decision{ChosenMode: "simple"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.FinalAnswer != "a direct answer" {
		t.Fatalf("FinalAnswer = %q", resp.FinalAnswer)
	}
}

func TestQuantum_EmptyPersonasReturnsExplanatoryResponse(t *testing.T) {
	p := &Quantum{Personas: []agents.Persona{}}
	resp, err := p.Run(context.Background(), "query", orchestrator.Decision{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if resp.FinalAnswer == "" {
		t.Fatalf("expected an explanatory response, got empty answer")
	}
}

func TestIntParam_FallsBackToDefaultOnMissingOrWrongType(t *testing.T) {
	if got := intParam(nil, "k", 3); got != 3 {
		t.Fatalf("intParam(nil) = %d", got)
	}
	params := map[string]any{"k": "not a number", "T": float64(5)}
	if got := intParam(params, "k", 3); got != 3 {
		t.Fatalf("intParam(wrong type) = %d", got)
	}
	if got := intParam(params, "T", 3); got != 5 {
		t.Fatalf("intParam(float64) = %d", got)
	}
}

func TestFirstNonZero(t *testing.T) {
	if got := firstNonZero(0, 0, 7, 9); got != 7 {
		t.Fatalf("firstNonZero = %d", got)
	}
}

var _ engine.Pipeline = (*Simple)(nil)
var _ engine.Pipeline = (*Quantum)(nil)
