package affect

import (
	"context"
	"testing"
)

type fakeHealth struct {
	status HealthStatus
	err    error
}

func (f fakeHealth) HealthStatus(ctx context.Context) (HealthStatus, error) { return f.status, f.err }

func TestAssessAndUpdate_FrustrationTakesPriority(t *testing.T) {
	e := NewEngine(fakeHealth{status: HealthStatus{IsHealthy: false, Inconsistencies: []string{"ledger mismatch"}}})
	got := e.AssessAndUpdate(context.Background(), "I feel exhausted", "問題があります", "emotional_support")
	if got.Emotion != Frustrated {
		t.Fatalf("Emotion = %q, want Frustrated (should take priority)", got.Emotion)
	}
}

func TestAssessAndUpdate_AnxietyFromSelfCriticism(t *testing.T) {
	e := NewEngine(fakeHealth{status: HealthStatus{IsHealthy: true}})
	got := e.AssessAndUpdate(context.Background(), "what's the weather", "この回答は限定的です", "")
	if got.Emotion != Anxious {
		t.Fatalf("Emotion = %q, want Anxious", got.Emotion)
	}
}

func TestAssessAndUpdate_EmpathyFromQuery(t *testing.T) {
	e := NewEngine(fakeHealth{status: HealthStatus{IsHealthy: true}})
	got := e.AssessAndUpdate(context.Background(), "疲れた、どうしたらいいか分からない", "", "")
	if got.Emotion != Empathetic {
		t.Fatalf("Emotion = %q, want Empathetic", got.Emotion)
	}
}

func TestAssessAndUpdate_DefaultsToCalm(t *testing.T) {
	e := NewEngine(fakeHealth{status: HealthStatus{IsHealthy: true}})
	got := e.AssessAndUpdate(context.Background(), "what's 2+2", "", "")
	if !got.IsNeutral() {
		t.Fatalf("expected neutral calm state, got %+v", got)
	}
}
