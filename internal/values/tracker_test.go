package values

import (
	"context"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/llm"
)

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

func TestTracker_AssessAndUpdate_AppliesClampedAdjustments(t *testing.T) {
	provider := &scriptedProvider{replies: []string{`{"Helpfulness": 0.5, "Harmlessness": 0.0, "Honesty": 0.0, "Empathy": 0.0}`}}
	bus := analytics.New()
	sink := &capturingSink{}
	bus.Subscribe("test", sink)

	tr := New(&agents.ValueAssessmentAgent{Caller: &agents.Caller{Provider: provider}}, bus)
	tr.AssessAndUpdate(context.Background(), "a very helpful answer")

	current := tr.Current()
	if current["Helpfulness"] != 1.0 {
		t.Fatalf("Helpfulness = %v, want clamped to 1.0 (0.8 + 0.5)", current["Helpfulness"])
	}
	if len(sink.got) != 1 || sink.got[0].Type != "value_update" {
		t.Fatalf("expected one value_update event, got %+v", sink.got)
	}
}

func TestTracker_AssessAndUpdate_IgnoresUnknownValueNames(t *testing.T) {
	provider := &scriptedProvider{replies: []string{`{"Curiosity": 0.5}`}}
	tr := New(&agents.ValueAssessmentAgent{Caller: &agents.Caller{Provider: provider}}, analytics.New())
	before := tr.Current()
	tr.AssessAndUpdate(context.Background(), "irrelevant")
	after := tr.Current()
	for k := range before {
		if before[k] != after[k] {
			t.Fatalf("expected %q to remain unchanged for an unrecognized adjustment key", k)
		}
	}
}

func TestTracker_AssessAndUpdate_NilAssessorNoops(t *testing.T) {
	tr := New(nil, analytics.New())
	before := tr.Current()
	tr.AssessAndUpdate(context.Background(), "anything")
	after := tr.Current()
	for k := range before {
		if before[k] != after[k] {
			t.Fatalf("expected no change with a nil assessor")
		}
	}
}
