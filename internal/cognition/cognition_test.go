package cognition

import (
	"context"
	"math"
	"testing"

	"noesis/internal/agents"
	"noesis/internal/llm"
)

func TestCombineAndNormalize_UnitLength(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	out := combineAndNormalize(a, b, 0.5, 0.5)
	var sumSq float64
	for _, v := range out {
		sumSq += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sumSq)-1.0) > 1e-6 {
		t.Fatalf("expected unit-length combined vector, got norm %v", math.Sqrt(sumSq))
	}
}

func TestFirstURL_ExtractsFromQuery(t *testing.T) {
	got := firstURL("please read https://example.com/page and summarize it")
	if got != "https://example.com/page" {
		t.Fatalf("firstURL = %q", got)
	}
	if firstURL("no links here") != "" {
		t.Fatalf("expected empty when no URL present")
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

func TestRunSymbolicReasoning_StopsOnConclusiveMarker(t *testing.T) {
	hypothesisProvider := &scriptedProvider{replies: []string{"A implies B", "B implies C"}}
	deductiveProvider := &scriptedProvider{replies: []string{"still working on it", "結論として it is proven"}}

	l := &Loop{
		Hypothesis: &agents.HypothesisAgent{Caller: &agents.Caller{Provider: hypothesisProvider}},
		Symbolic:   &agents.SymbolicVerifier{},
		Deductive:  &agents.DeductiveReasonerAgent{Caller: &agents.Caller{Provider: deductiveProvider}},
	}
	trace, err := l.runSymbolicReasoning(context.Background(), "is the sky blue")
	if err != nil {
		t.Fatalf("runSymbolicReasoning error: %v", err)
	}
	if !containsAny(trace, []string{"結論として"}) {
		t.Fatalf("expected trace to include conclusive marker, got %q", trace)
	}
	if deductiveProvider.calls != 2 {
		t.Fatalf("expected the loop to stop after the second conclusion, got %d deductive calls", deductiveProvider.calls)
	}
}

func TestFragmentFromTriples_DedupesNodesAndDropsIncompleteTriples(t *testing.T) {
	triples := []agents.KGTriple{
		{Subject: "Earth", Predicate: "orbits", Object: "Sun", Weight: 0.9},
		{Subject: "Moon", Predicate: "orbits", Object: "Earth"},
		{Subject: "", Predicate: "ignored", Object: "ignored"},
	}
	frag := fragmentFromTriples(triples)
	if len(frag.Nodes) != 3 {
		t.Fatalf("expected 3 deduped nodes (Earth, Sun, Moon), got %d: %+v", len(frag.Nodes), frag.Nodes)
	}
	if len(frag.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(frag.Edges))
	}
	if frag.Edges[0].Weight != 0.9 {
		t.Fatalf("expected explicit weight to be preserved, got %v", frag.Edges[0].Weight)
	}
	if frag.Edges[1].Weight != 1 {
		t.Fatalf("expected zero weight to default to 1, got %v", frag.Edges[1].Weight)
	}
}

func TestGenerateKGFragment_NilExtractorSkips(t *testing.T) {
	l := &Loop{}
	if frag := l.generateKGFragment(context.Background(), "some retrieved text"); frag != nil {
		t.Fatalf("expected nil fragment when KGExtractor is unset, got %+v", frag)
	}
}

func TestGenerateKGFragment_UsesExtractorOutput(t *testing.T) {
	provider := &scriptedProvider{replies: []string{`{"triples":[{"subject":"Earth","predicate":"orbits","object":"Sun","weight":0.8}]}`}}
	l := &Loop{KGExtractor: &agents.KnowledgeGraphAgent{Caller: &agents.Caller{Provider: provider}}}
	frag := l.generateKGFragment(context.Background(), "Earth orbits the Sun.")
	if frag == nil {
		t.Fatalf("expected a non-nil fragment")
	}
	if len(frag.Nodes) != 2 || len(frag.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %+v", frag)
	}
}
