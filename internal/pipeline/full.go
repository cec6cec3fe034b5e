package pipeline

import (
	"context"
	"sync"
	"time"

	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/cognition"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
	"noesis/internal/selfevolve"
	"noesis/internal/values"
)

// Full is the default, highest-cost general pipeline: plan, run the
// cognitive loop, compose a final answer, then run self-criticism and
// problem-discovery concurrently as a post-hoc step. It fires the
// resulting ExecutionTrace at the self-evolution subsystem in the
// background, never blocking the response on it.
type Full struct {
	Planner          *agents.PlanningAgent
	Loop             *cognition.Loop
	Master           *agents.MasterAgent
	Critic           *agents.SelfCriticAgent
	ProblemDiscovery *agents.ProblemDiscoveryAgent
	SelfEvolve       *selfevolve.System
	Values           *values.Tracker
	Analytics        *analytics.Bus

	// ReasoningInstruction is passed through to the cognitive loop
	// unmodified; conceptual_reasoning reuses this pipeline with a planner
	// tuned to emit conceptual-operation plan triggers.
	ReasoningInstruction string
}

func (p *Full) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	plan, err := p.Planner.Plan(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	result, err := p.Loop.Run(ctx, query, plan, p.ReasoningInstruction)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	finalAnswer, err := p.Master.Answer(ctx, query, plan, result.Synthesis)
	if err != nil {
		return engine.MasterResponse{}, err
	}

	var selfCriticism, potentialProblems string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if p.Critic != nil {
			selfCriticism, _ = p.Critic.Critique(ctx, query, plan, result.Synthesis, finalAnswer)
		}
	}()
	go func() {
		defer wg.Done()
		if p.ProblemDiscovery != nil {
			potentialProblems, _ = p.ProblemDiscovery.Discover(ctx, query, finalAnswer)
		}
	}()
	wg.Wait()

	resp := engine.MasterResponse{
		FinalAnswer:       finalAnswer,
		SelfCriticism:     selfCriticism,
		PotentialProblems: potentialProblems,
		RetrievedInfo:     result.RetrievedInfo,
	}

	if p.Analytics != nil {
		now := time.Now()
		if selfCriticism != "" {
			p.Analytics.Publish(ctx, analytics.Event{Type: "self_criticism", Payload: map[string]any{"query": query, "critique": selfCriticism}, Timestamp: now})
		}
		if potentialProblems != "" {
			p.Analytics.Publish(ctx, analytics.Event{Type: "potential_problems", Payload: map[string]any{"query": query, "problems": potentialProblems}, Timestamp: now})
		}
	}

	if p.Values != nil {
		go p.Values.AssessAndUpdate(context.Background(), finalAnswer)
	}

	if p.SelfEvolve != nil {
		trace := selfevolve.ExecutionTrace{
			Query:               query,
			Plan:                plan,
			CognitiveLoopOutput: result.Synthesis,
			FinalAnswer:         finalAnswer,
			Steps: map[string]string{
				"plan":           plan,
				"cognitive_loop": result.Synthesis,
				"final_answer":   finalAnswer,
			},
		}
		go p.SelfEvolve.CollectTrace(trace)
		if p.Analytics != nil {
			go p.Analytics.Publish(context.Background(), analytics.Event{
				Type: "execution_trace",
				Payload: map[string]any{
					"query":        query,
					"plan":         plan,
					"final_answer": finalAnswer,
					"steps":        trace.Steps,
				},
				Timestamp: time.Now(),
			})
		}
	}

	return resp, nil
}

// ConceptualReasoning reuses Full's exact skeleton; spec.md §4.5 describes
// it as identical to `full` except that the plan instructs conceptual
// vector operations, which is a planner-prompt difference the CognitiveLoop
// branch selection already handles by content, not a different pipeline
// shape.
type ConceptualReasoning struct {
	*Full
}

func (p *ConceptualReasoning) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	return p.Full.Run(ctx, query, decision)
}
