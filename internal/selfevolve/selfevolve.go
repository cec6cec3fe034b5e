// Package selfevolve implements the Self-Evolution subsystem: it collects
// execution traces from completed pipeline runs and, on the Governor's
// schedule, critiques the most recent one and acts on what it finds —
// spinning up a new micro-LLM or refining a prompt template.
package selfevolve

import (
	"context"
	"strings"
	"sync"
	"time"

	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/memorylog"
	"noesis/internal/microllm"
	"noesis/internal/promptstore"

	"github.com/rs/zerolog/log"
)

// ExecutionTrace is the fire-and-forget record a pipeline emits after
// answering a query, capturing enough of its own reasoning for the critic
// to grade.
type ExecutionTrace struct {
	Query               string
	Plan                string
	CognitiveLoopOutput string
	FinalAnswer         string
	Steps               map[string]string // named step -> step output, for ProcessRewardAgent
}

// System is the collector + analyzer. CollectTrace never blocks a request;
// AnalyzeOwnPerformance is invoked only from the Governor's own goroutine.
type System struct {
	mu     sync.Mutex
	traces []ExecutionTrace

	critic        *agents.SelfCriticAgent
	rewarder      *agents.ProcessRewardAgent
	improver      *agents.SelfImprovementAgent
	prompts       promptstore.PromptStore
	microLLMs     *microllm.Manager
	memory        memorylog.MemoryLog
	analytics     *analytics.Bus
}

// New constructs a System wired to its agent collaborators. analytics may
// be nil, in which case process_feedback and improvement_suggestions
// events are simply not published.
func New(
	critic *agents.SelfCriticAgent,
	rewarder *agents.ProcessRewardAgent,
	improver *agents.SelfImprovementAgent,
	prompts promptstore.PromptStore,
	microLLMs *microllm.Manager,
	memory memorylog.MemoryLog,
	bus *analytics.Bus,
) *System {
	return &System{
		critic:    critic,
		rewarder:  rewarder,
		improver:  improver,
		prompts:   prompts,
		microLLMs: microLLMs,
		memory:    memory,
		analytics: bus,
	}
}

// CollectTrace appends a trace for later analysis. Safe to call from any
// pipeline goroutine.
func (s *System) CollectTrace(trace ExecutionTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces = append(s.traces, trace)
}

// noIssuesMarker is the literal self-critic response meaning "nothing to
// improve", matched verbatim per the collaborator's documented contract.
const noIssuesMarker = "問題なし"

// AnalyzeOwnPerformance takes the most recently collected trace, scores its
// named steps, critiques the whole, and if the critique surfaces a real
// issue, asks for and applies one improvement. It always clears the trace
// buffer before returning. Called only from the Governor's loop.
func (s *System) AnalyzeOwnPerformance(ctx context.Context) {
	s.mu.Lock()
	if len(s.traces) == 0 {
		s.mu.Unlock()
		return
	}
	trace := s.traces[len(s.traces)-1]
	s.traces = nil
	s.mu.Unlock()

	scores := make(map[string]agents.RewardVerdict, len(trace.Steps))
	for step, output := range trace.Steps {
		if verdict, err := s.rewarder.Score(ctx, step, output); err != nil {
			log.Warn().Err(err).Str("step", step).Msg("selfevolve: process reward scoring failed")
		} else {
			log.Debug().Str("step", step).Float64("reward", verdict.RewardScore).Msg("selfevolve: step scored")
			scores[step] = verdict
		}
	}
	if s.analytics != nil && len(scores) > 0 {
		payload := make(map[string]any, len(scores))
		for step, v := range scores {
			payload[step] = map[string]any{"reward_score": v.RewardScore, "justification": v.Justification}
		}
		s.analytics.Publish(ctx, analytics.Event{Type: "process_feedback", Payload: payload, Timestamp: time.Now()})
	}

	critique, err := s.critic.Critique(ctx, trace.Query, trace.Plan, trace.CognitiveLoopOutput, trace.FinalAnswer)
	if err != nil {
		log.Warn().Err(err).Msg("selfevolve: self-critique failed")
		return
	}
	if strings.TrimSpace(critique) == "" || strings.Contains(critique, noIssuesMarker) {
		return
	}

	suggestion, err := s.improver.Suggest(ctx, critique)
	if err != nil {
		log.Warn().Err(err).Msg("selfevolve: improvement suggestion failed")
		return
	}
	if s.analytics != nil {
		s.analytics.Publish(ctx, analytics.Event{
			Type:      "improvement_suggestions",
			Payload:   map[string]any{"type": suggestion.Type, "details": suggestion.Details},
			Timestamp: time.Now(),
		})
	}
	s.applySuggestion(ctx, suggestion)
}

// applySuggestion mirrors SelfCorrectionAgent's dispatch: known types are
// executed, unknown types are logged and skipped.
func (s *System) applySuggestion(ctx context.Context, suggestion agents.ImprovementSuggestion) {
	switch suggestion.Type {
	case "CreateMicroLLM":
		topic, _ := suggestion.Details["topic"].(string)
		if topic == "" {
			log.Warn().Msg("selfevolve: CreateMicroLLM suggestion missing topic")
			return
		}
		model, err := s.microLLMs.RunCreationCycle(ctx, topic)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("selfevolve: micro-LLM creation failed")
			return
		}
		if model != "" && s.memory != nil {
			_ = s.memory.LogEvent(ctx, "micro_llm_created", map[string]any{"topic": topic, "model": model})
		}

	case "PromptRefinement":
		key, _ := suggestion.Details["target_prompt_key"].(string)
		newTemplate, _ := suggestion.Details["new_prompt_suggestion"].(string)
		if key == "" || newTemplate == "" {
			log.Warn().Msg("selfevolve: PromptRefinement suggestion missing target_prompt_key or new_prompt_suggestion")
			return
		}
		ok, err := s.prompts.Update(ctx, key, newTemplate)
		if err != nil {
			log.Warn().Err(err).Str("prompt", key).Msg("selfevolve: prompt update failed")
			return
		}
		if !ok {
			log.Warn().Str("prompt", key).Msg("selfevolve: prompt update rejected, key not registered")
			return
		}
		if s.memory != nil {
			_ = s.memory.LogEvent(ctx, "prompt_refined", map[string]any{"prompt": key})
		}

	default:
		log.Info().Str("type", suggestion.Type).Msg("selfevolve: unsupported improvement suggestion type, skipping")
	}
}
