package energy

import (
	"testing"
	"time"
)

func TestConsume_SucceedsWithinBudgetAndFailsOverBudget(t *testing.T) {
	m := NewManager(100, 1)
	now := time.Now()
	m.now = func() time.Time { return now }
	if !m.Consume(40) {
		t.Fatalf("expected Consume(40) to succeed from full energy")
	}
	if m.Consume(1000) {
		t.Fatalf("expected Consume(1000) to fail")
	}
	if got := m.Level(); got != 60 {
		t.Fatalf("Level() = %v, want 60", got)
	}
}

func TestConsume_RecoversOverElapsedTime(t *testing.T) {
	start := time.Now()
	m := NewManager(100, 10) // 10/sec
	m.now = func() time.Time { return start }
	if !m.Consume(100) {
		t.Fatalf("expected initial full-budget Consume to succeed")
	}
	if m.Consume(1) {
		t.Fatalf("expected Consume to fail with zero energy")
	}
	m.now = func() time.Time { return start.Add(5 * time.Second) }
	// 5s * 10/sec = 50 recovered
	if !m.Consume(50) {
		t.Fatalf("expected Consume(50) to succeed after recovery")
	}
	if m.Consume(1) {
		t.Fatalf("expected energy to be exactly exhausted after recovering exactly 50")
	}
}

func TestConsume_CapsAtMax(t *testing.T) {
	start := time.Now()
	m := NewManager(100, 1000)
	m.now = func() time.Time { return start }
	m.now = func() time.Time { return start.Add(time.Hour) }
	if got := m.Level(); got != 100 {
		t.Fatalf("Level() = %v, want capped at 100", got)
	}
}

func TestRecover_Idempotent(t *testing.T) {
	m := NewManager(100, 5)
	now := time.Now()
	m.now = func() time.Time { return now }
	m.Consume(100)
	m.Recover()
	l1 := m.Level()
	m.Recover()
	l2 := m.Level()
	if l1 != l2 {
		t.Fatalf("expected back-to-back Recover calls to be idempotent, got %v then %v", l1, l2)
	}
}
