package agents

import (
	"context"
	"strconv"
)

// ModeDecision is the structured output of the orchestration LLM call: the
// raw JSON shape, before defaults are applied by the caller.
type ModeDecision struct {
	ChosenMode      string         `json:"chosen_mode"`
	Reasoning       string         `json:"reasoning"`
	ConfidenceScore float64        `json:"confidence_score"`
	Parameters      map[string]any `json:"parameters"`
}

// ComplexityAnalyzer scores a query's cognitive complexity on a 1-4 scale
// before the orchestration LLM call picks a pipeline.
type ComplexityAnalyzer struct{ *Caller }

// Analyze returns an integer complexity score in [1,4]. Any LLM or parse
// failure degrades to the middle complexity (2) rather than propagating.
func (a *ComplexityAnalyzer) Analyze(ctx context.Context, query string) int {
	system := a.prompt(ctx, "complexity_analyzer", defaultComplexityPrompt)
	var out struct {
		Score int `json:"complexity_score"`
	}
	if err := a.chatJSON(ctx, system, query, &out); err != nil {
		return 2
	}
	if out.Score < 1 {
		return 1
	}
	if out.Score > 4 {
		return 4
	}
	return out.Score
}

const defaultComplexityPrompt = `You rate how cognitively demanding a user query is on a scale from 1 (trivial lookup) to 4 (requires deep multi-step reasoning). Respond with JSON: {"complexity_score": <int 1-4>}.`

// ModeSelector is the orchestration LLM call: given a query and its
// complexity score, choose which pipeline should handle it.
type ModeSelector struct{ *Caller }

// Select runs the orchestration prompt and applies the spec's documented
// defaults for any field the model omits. affectSummary is folded into the
// prompt as context only — it never deterministically overrides the
// model's chosen_mode.
func (a *ModeSelector) Select(ctx context.Context, query string, complexity int, affectSummary string) (ModeDecision, error) {
	system := a.prompt(ctx, "mode_selector", defaultModeSelectorPrompt)
	user := querySelectorInput(query, complexity, affectSummary)
	var out ModeDecision
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return ModeDecision{}, err
	}
	if out.ChosenMode == "" {
		out.ChosenMode = "simple"
	}
	if out.Reasoning == "" {
		out.Reasoning = "LLM did not provide a reasoning."
	}
	if out.ConfidenceScore == 0 {
		out.ConfidenceScore = 0.5
	}
	if out.Parameters == nil {
		out.Parameters = map[string]any{}
	}
	return out, nil
}

func querySelectorInput(query string, complexity int, affectSummary string) string {
	input := "complexity_score: " + strconv.Itoa(complexity) + "\nquery: " + query
	if affectSummary != "" {
		input += "\naffective_state: " + affectSummary
	}
	return input
}

const defaultModeSelectorPrompt = `You choose which cognitive pipeline should answer a query. Available modes: simple, full, parallel, quantum, speculative, self_discover, internal_dialogue, conceptual_reasoning, micro_llm_expert, tree_of_thoughts, iterative_correction. Respond with JSON: {"chosen_mode": "<mode>", "reasoning": "<why>", "confidence_score": <0-1>, "parameters": {}}.`

// DomainMatcher asks whether a Specialist_* tool's declared domain covers a
// query, used by the orchestrator's step 2 micro_llm_expert routing rule.
type DomainMatcher struct{ *Caller }

// Matches returns true if the specialist tool described by description is a
// good fit for answering query.
func (a *DomainMatcher) Matches(ctx context.Context, query, toolName, description string) bool {
	system := a.prompt(ctx, "domain_matcher", defaultDomainMatcherPrompt)
	user := "tool: " + toolName + "\ndescription: " + description + "\nquery: " + query
	var out struct {
		Matches bool `json:"matches"`
	}
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return false
	}
	return out.Matches
}

const defaultDomainMatcherPrompt = `Given a specialist tool's description and a user query, answer whether the tool's domain covers the query. Respond with JSON: {"matches": true|false}.`
