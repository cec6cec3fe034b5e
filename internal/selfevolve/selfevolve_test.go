package selfevolve

import (
	"context"
	"path/filepath"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/llm"
	"noesis/internal/promptstore"
)

func TestNoIssuesMarker_MatchesTeacherContract(t *testing.T) {
	if noIssuesMarker != "問題なし" {
		t.Fatalf("noIssuesMarker changed unexpectedly: %q", noIssuesMarker)
	}
}

func TestCollectTrace_AppendsEachTrace(t *testing.T) {
	s := &System{}
	s.CollectTrace(ExecutionTrace{Query: "q1"})
	s.CollectTrace(ExecutionTrace{Query: "q2"})
	if len(s.traces) != 2 {
		t.Fatalf("expected 2 collected traces, got %d", len(s.traces))
	}
}

// scriptedProvider replies with canned text, advancing one line per call.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Chat(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string) (llm.Message, error) {
	reply := p.replies[p.calls%len(p.replies)]
	p.calls++
	return llm.Message{Role: "assistant", Content: reply}, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, model string, h llm.StreamHandler) error {
	return nil
}

type capturingSink struct{ got []analytics.Event }

func (s *capturingSink) Send(ctx context.Context, ev analytics.Event) error {
	s.got = append(s.got, ev)
	return nil
}

func (s *capturingSink) eventTypes() []string {
	out := make([]string, len(s.got))
	for i, ev := range s.got {
		out[i] = ev.Type
	}
	return out
}

func TestAnalyzeOwnPerformance_PublishesProcessFeedbackAndImprovementSuggestions(t *testing.T) {
	// Replies, in call order: reward score for the one step, then the
	// critique (non-empty, so it proceeds to the improver), then the
	// improvement suggestion.
	rewardProvider := &scriptedProvider{replies: []string{`{"reward_score": 0.4, "justification": "skipped a source"}`}}
	criticProvider := &scriptedProvider{replies: []string{"the answer omitted a citation"}}
	improverProvider := &scriptedProvider{replies: []string{`{"type": "PromptRefinement", "details": {"target_prompt_key": "k", "new_prompt_suggestion": "v"}}`}}

	bus := analytics.New()
	sink := &capturingSink{}
	bus.Subscribe("test", sink)

	prompts, err := promptstore.NewFileStore(filepath.Join(t.TempDir(), "prompts.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	s := New(
		&agents.SelfCriticAgent{Caller: &agents.Caller{Provider: criticProvider}},
		&agents.ProcessRewardAgent{Caller: &agents.Caller{Provider: rewardProvider}},
		&agents.SelfImprovementAgent{Caller: &agents.Caller{Provider: improverProvider}},
		prompts, nil, nil,
		bus,
	)

	s.CollectTrace(ExecutionTrace{
		Query:       "q",
		FinalAnswer: "a",
		Steps:       map[string]string{"plan": "did some planning"},
	})
	s.AnalyzeOwnPerformance(context.Background())

	types := sink.eventTypes()
	var sawFeedback, sawSuggestion bool
	for _, typ := range types {
		switch typ {
		case "process_feedback":
			sawFeedback = true
		case "improvement_suggestions":
			sawSuggestion = true
		}
	}
	if !sawFeedback {
		t.Fatalf("expected a process_feedback event, got %v", types)
	}
	if !sawSuggestion {
		t.Fatalf("expected an improvement_suggestions event, got %v", types)
	}
}

func TestAnalyzeOwnPerformance_NoIssuesSkipsImprovementSuggestion(t *testing.T) {
	rewardProvider := &scriptedProvider{replies: []string{`{"reward_score": 0.9, "justification": "solid"}`}}
	criticProvider := &scriptedProvider{replies: []string{noIssuesMarker}}

	bus := analytics.New()
	sink := &capturingSink{}
	bus.Subscribe("test", sink)

	s := New(
		&agents.SelfCriticAgent{Caller: &agents.Caller{Provider: criticProvider}},
		&agents.ProcessRewardAgent{Caller: &agents.Caller{Provider: rewardProvider}},
		nil,
		nil, nil, nil,
		bus,
	)

	s.CollectTrace(ExecutionTrace{
		Query:       "q",
		FinalAnswer: "a",
		Steps:       map[string]string{"plan": "did some planning"},
	})
	s.AnalyzeOwnPerformance(context.Background())

	for _, typ := range sink.eventTypes() {
		if typ == "improvement_suggestions" {
			t.Fatalf("expected no improvement_suggestions event when the critique found nothing wrong")
		}
	}
}
