package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"noesis/internal/affect"
	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/tools"

	"github.com/rs/zerolog/log"
)

// urlPattern matches an absolute http(s) URL anywhere in the query.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// birdsEyeKeywords and detailKeywords back the reasoning_emphasis overlay
// (orchestrator rule 4): a tie, or no keyword hit at all, yields "unset".
var birdsEyeKeywords = []string{"全体像", "strategy", "vision", "abstract"}
var detailKeywords = []string{"具体例", "details", "data", "implementation"}

// Orchestrator is the request-time router. It never invokes a pipeline and
// never consults the energy budget.
type Orchestrator struct {
	Complexity *agents.ComplexityAnalyzer
	Selector   *agents.ModeSelector
	Domain     *agents.DomainMatcher
	Tools      tools.Registry
	// Affect supplies the affective-state summary folded into the
	// orchestration LLM call as context (rule 3). It is never consulted to
	// deterministically override a routing decision.
	Affect *affect.Engine
	// Analytics, if set, receives an affective_state event each time rule 3
	// assesses the runtime's affective state.
	Analytics *analytics.Bus
}

// Route runs the orchestrator's ordered rules against query and returns a
// routing Decision. It never panics outward: any step-2/3 failure falls
// back to chosen_mode=full per the spec.
func (o *Orchestrator) Route(ctx context.Context, query string) Decision {
	// Rule 1: a URL in the query forces the full pipeline.
	if urlPattern.MatchString(query) {
		return o.overlayEmphasis(query, Decision{
			ChosenMode:      "full",
			Reasoning:       "query references a URL",
			ConfidenceScore: 1.0,
			Parameters:      map[string]any{},
		})
	}

	// Rule 2: a matching Specialist_* tool forces micro_llm_expert.
	if d, ok := o.routeToSpecialist(ctx, query); ok {
		return o.overlayEmphasis(query, d)
	}

	// Rule 3: complexity-scored orchestration LLM call.
	d, err := o.routeByComplexity(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("orchestrator: complexity routing failed, falling back to full")
		return o.overlayEmphasis(query, Decision{ChosenMode: "full", Reasoning: "fallback after orchestration error", ConfidenceScore: 0.5, Parameters: map[string]any{}})
	}
	return o.overlayEmphasis(query, d)
}

func (o *Orchestrator) routeToSpecialist(ctx context.Context, query string) (Decision, bool) {
	if o.Tools == nil || o.Domain == nil {
		return Decision{}, false
	}
	for _, schema := range o.Tools.Schemas() {
		if !strings.HasPrefix(schema.Name, "Specialist_") {
			continue
		}
		if o.Domain.Matches(ctx, query, schema.Name, schema.Description) {
			return Decision{
				ChosenMode:      "micro_llm_expert",
				Reasoning:       "matched specialist tool " + schema.Name,
				ConfidenceScore: 0.95,
				Parameters:      map[string]any{"specialist_tool": schema.Name},
			}, true
		}
	}
	return Decision{}, false
}

func (o *Orchestrator) routeByComplexity(ctx context.Context, query string) (Decision, error) {
	complexity := o.Complexity.Analyze(ctx, query)
	affectSummary := ""
	if o.Affect != nil {
		state := o.Affect.AssessAndUpdate(ctx, query, "", "")
		if o.Analytics != nil {
			o.Analytics.Publish(ctx, analytics.Event{
				Type: "affective_state",
				Payload: map[string]any{
					"emotion":   string(state.Emotion),
					"intensity": state.Intensity,
					"reason":    state.Reason,
				},
				Timestamp: time.Now(),
			})
		}
		if !state.IsNeutral() {
			affectSummary = string(state.Emotion) + ": " + state.Reason
		}
	}
	md, err := o.Selector.Select(ctx, query, complexity, affectSummary)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		ChosenMode:      md.ChosenMode,
		Reasoning:       md.Reasoning,
		ConfidenceScore: md.ConfidenceScore,
		Parameters:      md.Parameters,
	}, nil
}

// overlayEmphasis applies rule 4 independently of which earlier rule fired.
func (o *Orchestrator) overlayEmphasis(query string, d Decision) Decision {
	if d.Parameters == nil {
		d.Parameters = map[string]any{}
	}
	d.Parameters["reasoning_emphasis"] = classifyEmphasis(query)
	return d
}

func classifyEmphasis(query string) string {
	q := strings.ToLower(query)
	birdsEye := containsAny(q, birdsEyeKeywords)
	detail := containsAny(q, detailKeywords)
	switch {
	case birdsEye && !detail:
		return EmphasisBirdsEyeView
	case detail && !birdsEye:
		return EmphasisDetailOriented
	default:
		return EmphasisUnset
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
