// Package governor implements the background System Governor: a single
// goroutine that recovers the energy pool every tick and, while the
// runtime is idle, steers self-evolution, knowledge acquisition, and
// exploration according to the EvolutionaryController's current goal.
package governor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EnergyRecoverer is the only way the Governor touches the energy budget.
type EnergyRecoverer interface {
	Recover()
}

// SelfEvolver runs the self-evolution analysis cycle.
type SelfEvolver interface {
	AnalyzeOwnPerformance(ctx context.Context)
}

// MicroLLMCreator runs a knowledge-acquisition creation cycle for a topic.
type MicroLLMCreator interface {
	RunCreationCycle(ctx context.Context, topic string) (string, error)
}

// MaintenanceRunner is implemented by the autonomous-exploration,
// consolidation, and wisdom-synthesis hooks; each is independently
// optional (a nil runner is simply skipped).
type MaintenanceRunner interface {
	Run(ctx context.Context) error
}

// RecentActivitySummarizer supplies the EvolutionaryController with a
// textual summary of recent interactions to benchmark against.
type RecentActivitySummarizer interface {
	Summarize(ctx context.Context) string
}

// Config parameterizes the Governor's scheduling. Zero-value durations are
// replaced with the spec's documented defaults in New.
type Config struct {
	TickInterval               time.Duration
	BenchmarkInterval          time.Duration
	SelfEvolutionDueAfterIdle  time.Duration
	KnowledgeAcqDueAfterTopic  time.Duration
	ExplorationDueAfterIdle    time.Duration
	MaintenanceInterval        time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.BenchmarkInterval <= 0 {
		c.BenchmarkInterval = 10 * time.Minute
	}
	if c.SelfEvolutionDueAfterIdle <= 0 {
		c.SelfEvolutionDueAfterIdle = 60 * time.Second
	}
	if c.KnowledgeAcqDueAfterTopic <= 0 {
		c.KnowledgeAcqDueAfterTopic = time.Hour
	}
	if c.ExplorationDueAfterIdle <= 0 {
		c.ExplorationDueAfterIdle = 120 * time.Second
	}
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = 15 * time.Minute
	}
	return c
}

// Governor is the runtime's single background goroutine.
type Governor struct {
	cfg        Config
	energy     EnergyRecoverer
	controller *EvolutionaryController
	evolver    SelfEvolver
	microLLMs  MicroLLMCreator
	autonomous MaintenanceRunner
	consolidate MaintenanceRunner
	wisdom     MaintenanceRunner
	integrityCheck MaintenanceRunner
	activity   RecentActivitySummarizer

	mu         sync.Mutex
	isIdle     bool
	lastActive time.Time
	lastRun    map[string]time.Time
	goal       Goal

	stop chan struct{}
	done chan struct{}
}

// New constructs a Governor. Any optional collaborator may be nil; its
// corresponding maintenance step is then skipped rather than erroring.
func New(cfg Config, energy EnergyRecoverer, controller *EvolutionaryController, evolver SelfEvolver, microLLMs MicroLLMCreator, autonomous, consolidate, wisdom, integrityCheck MaintenanceRunner, activity RecentActivitySummarizer) *Governor {
	return &Governor{
		cfg:            cfg.withDefaults(),
		energy:         energy,
		controller:     controller,
		evolver:        evolver,
		microLLMs:      microLLMs,
		autonomous:     autonomous,
		consolidate:    consolidate,
		wisdom:         wisdom,
		integrityCheck: integrityCheck,
		activity:       activity,
		isIdle:         false,
		lastActive:     time.Now(),
		lastRun:        map[string]time.Time{},
	}
}

// SetBusy marks the runtime as actively serving a request.
func (g *Governor) SetBusy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.isIdle = false
}

// SetIdle marks the runtime idle and resets the idle-duration clock.
func (g *Governor) SetIdle() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.isIdle = true
	g.lastActive = time.Now()
}

// Start launches the Governor's loop in its own goroutine. It is a no-op
// if already started.
func (g *Governor) Start(ctx context.Context) {
	g.mu.Lock()
	if g.stop != nil {
		g.mu.Unlock()
		return
	}
	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	g.mu.Unlock()

	go g.loop(ctx)
}

// Stop signals the loop to exit on its next tick and waits for it to do so.
func (g *Governor) Stop() {
	g.mu.Lock()
	stop, done := g.stop, g.done
	g.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (g *Governor) loop(ctx context.Context) {
	defer close(g.done)
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tick(ctx)
		}
	}
}

// tick runs exactly one iteration of the Governor's schedule: energy
// recovery unconditionally, then idle-only direction re-evaluation and
// goal dispatch, then unconditional maintenance. Every task is wrapped so
// a panic or error is logged and the loop continues.
func (g *Governor) tick(ctx context.Context) {
	g.energy.Recover()

	g.mu.Lock()
	idle := g.isIdle
	lastActive := g.lastActive
	g.mu.Unlock()

	if idle {
		g.maybeReevaluateDirection(ctx)
		g.dispatchGoal(ctx, lastActive)
	}

	g.maybeRunMaintenance(ctx, "consolidation", g.consolidate)
	g.maybeRunMaintenance(ctx, "wisdom_synthesis", g.wisdom)
	g.maybeRunMaintenance(ctx, "integrity_check", g.integrityCheck)
}

func (g *Governor) maybeReevaluateDirection(ctx context.Context) {
	if g.controller == nil {
		return
	}
	if !g.due("evolutionary_direction", g.cfg.BenchmarkInterval) {
		return
	}
	safely("evolutionary_direction", func() {
		summary := ""
		if g.activity != nil {
			summary = g.activity.Summarize(ctx)
		}
		goal := g.controller.DetermineDirection(ctx, summary)
		g.mu.Lock()
		g.goal = goal
		g.mu.Unlock()
	})
	g.markRun("evolutionary_direction")
}

func (g *Governor) dispatchGoal(ctx context.Context, lastActive time.Time) {
	g.mu.Lock()
	goal := g.goal
	g.mu.Unlock()

	switch goal.Type {
	case PerformanceImprovement:
		if g.evolver != nil && g.due("self_evolution", g.cfg.SelfEvolutionDueAfterIdle) {
			safely("self_evolution", func() { g.evolver.AnalyzeOwnPerformance(ctx) })
			g.markRun("self_evolution")
		}
	case KnowledgeAcquisition:
		if g.microLLMs != nil && goal.Topic != "" && g.due("knowledge_acquisition:"+goal.Topic, g.cfg.KnowledgeAcqDueAfterTopic) {
			safely("knowledge_acquisition", func() {
				if _, err := g.microLLMs.RunCreationCycle(ctx, goal.Topic); err != nil {
					log.Warn().Err(err).Str("topic", goal.Topic).Msg("governor: knowledge acquisition cycle failed")
				}
			})
			g.markRun("knowledge_acquisition:" + goal.Topic)
		}
	case Exploration:
		if g.autonomous != nil && g.due("exploration", g.cfg.ExplorationDueAfterIdle) {
			safely("exploration", func() {
				if err := g.autonomous.Run(ctx); err != nil {
					log.Warn().Err(err).Msg("governor: autonomous cycle failed")
				}
			})
			g.markRun("exploration")
		}
	}
}

func (g *Governor) maybeRunMaintenance(ctx context.Context, name string, runner MaintenanceRunner) {
	if runner == nil || !g.due(name, g.cfg.MaintenanceInterval) {
		return
	}
	safely(name, func() {
		if err := runner.Run(ctx); err != nil {
			log.Warn().Err(err).Str("task", name).Msg("governor: maintenance task failed")
		}
	})
	g.markRun(name)
}

// due reports whether name hasn't run within interval, or has never run.
func (g *Governor) due(name string, interval time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastRun[name]
	if !ok {
		return true
	}
	return time.Since(last) >= interval
}

func (g *Governor) markRun(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRun[name] = time.Now()
}

// safely runs fn, recovering from any panic so one misbehaving task never
// takes down the Governor's loop.
func safely(task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("task", task).Msg("governor: task panicked, continuing")
		}
	}()
	fn()
}
