package governor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingEnergy struct{ n int32 }

func (c *countingEnergy) Recover() { atomic.AddInt32(&c.n, 1) }

type countingEvolver struct{ n int32 }

func (c *countingEvolver) AnalyzeOwnPerformance(ctx context.Context) { atomic.AddInt32(&c.n, 1) }

func TestTick_RunsSelfEvolutionOnlyWhenIdleAndGoalSet(t *testing.T) {
	energy := &countingEnergy{}
	evolver := &countingEvolver{}
	g := New(Config{SelfEvolutionDueAfterIdle: time.Millisecond}, energy, nil, evolver, nil, nil, nil, nil, nil, nil)
	g.goal = Goal{Type: PerformanceImprovement}

	// Busy: energy recovers, but the goal never dispatches.
	g.tick(context.Background())
	if atomic.LoadInt32(&energy.n) != 1 {
		t.Fatalf("expected energy to recover even while busy")
	}
	if atomic.LoadInt32(&evolver.n) != 0 {
		t.Fatalf("expected self-evolution to not run while busy")
	}

	g.SetIdle()
	g.tick(context.Background())
	if atomic.LoadInt32(&evolver.n) != 1 {
		t.Fatalf("expected self-evolution to run once while idle with a PerformanceImprovement goal")
	}
}

func TestDue_FirstCallAlwaysTrue(t *testing.T) {
	g := New(Config{}, &countingEnergy{}, nil, nil, nil, nil, nil, nil, nil, nil)
	if !g.due("anything", time.Hour) {
		t.Fatalf("expected a never-run task to be due")
	}
	g.markRun("anything")
	if g.due("anything", time.Hour) {
		t.Fatalf("expected a just-run task to not be due")
	}
}

func TestSafely_RecoversPanic(t *testing.T) {
	ran := false
	safely("test", func() {
		defer func() { ran = true }()
		panic("boom")
	})
	if !ran {
		t.Fatalf("expected deferred cleanup inside the panicking function to still run")
	}
}
