package integrity

import (
	"context"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/kgraph"
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

type fakeGraphStore struct {
	summary string
}

func (f fakeGraphStore) Merge(ctx context.Context, fragment kgraph.Fragment) error { return nil }
func (f fakeGraphStore) Save(ctx context.Context) error                           { return nil }
func (f fakeGraphStore) GetSummary(ctx context.Context, limit int) (string, error) {
	return f.summary, nil
}
func (f fakeGraphStore) AccessNode(ctx context.Context, id string) (kgraph.Node, bool, error) {
	return kgraph.Node{}, false, nil
}
func (f fakeGraphStore) Close() {}

func TestMonitor_Run_PublishesHealthyStatus(t *testing.T) {
	provider := &scriptedProvider{replies: []string{agents.NoInconsistenciesMarker}}
	bus := analytics.New()
	sink := &capturingSink{}
	bus.Subscribe("test", sink)

	m := New(&agents.IntegrityAgent{Caller: &agents.Caller{Provider: provider}}, fakeGraphStore{summary: "A knows B"}, bus)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	status, err := m.HealthStatus(context.Background())
	if err != nil {
		t.Fatalf("HealthStatus error: %v", err)
	}
	if !status.IsHealthy {
		t.Fatalf("expected healthy status, got %+v", status)
	}
	if sink.count() != 1 {
		t.Fatalf("expected one integrity_status event published, got %d", sink.count())
	}
}

func TestMonitor_Run_PublishesUnhealthyStatus(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"A contradicts B: both cannot be true"}}
	bus := analytics.New()
	m := New(&agents.IntegrityAgent{Caller: &agents.Caller{Provider: provider}}, fakeGraphStore{summary: "A knows B"}, bus)
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	status, err := m.HealthStatus(context.Background())
	if err != nil {
		t.Fatalf("HealthStatus error: %v", err)
	}
	if status.IsHealthy {
		t.Fatalf("expected unhealthy status, got %+v", status)
	}
	if len(status.Inconsistencies) != 1 {
		t.Fatalf("expected one recorded inconsistency, got %+v", status.Inconsistencies)
	}
}

func TestMonitor_Run_SkipsEmptyGraph(t *testing.T) {
	provider := &scriptedProvider{replies: []string{"should never be called"}}
	m := New(&agents.IntegrityAgent{Caller: &agents.Caller{Provider: provider}}, fakeGraphStore{summary: ""}, analytics.New())
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("expected the consistency check to be skipped on an empty graph")
	}
}

type capturingSink struct{ got []analytics.Event }

func (s *capturingSink) Send(ctx context.Context, ev analytics.Event) error {
	s.got = append(s.got, ev)
	return nil
}
func (s *capturingSink) count() int { return len(s.got) }
