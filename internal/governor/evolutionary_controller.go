package governor

import (
	"context"
	"strings"

	"noesis/internal/agents"
	"noesis/internal/kgraph"
	"noesis/internal/memorylog"

	"github.com/rs/zerolog/log"
)

// PerformanceScoreThreshold is the overall_score below which the
// controller always chooses PerformanceImprovement, regardless of any
// knowledge gap.
const PerformanceScoreThreshold = 0.7

// EvolutionaryController decides what the idle Governor should spend its
// cycles on next. It never blocks a user request — it is only ever invoked
// from the Governor's own goroutine.
type EvolutionaryController struct {
	Benchmark     *agents.PerformanceBenchmarkAgent
	Mapper        *agents.CapabilityMapperAgent
	GapAnalyzer   *agents.KnowledgeGapAnalyzerAgent
	Graph         kgraph.KnowledgeGraphStore
	Memory        memorylog.MemoryLog
}

// DetermineDirection runs a benchmark, folds the result into the capability
// knowledge graph, checks for a knowledge gap, and picks the next goal.
func (c *EvolutionaryController) DetermineDirection(ctx context.Context, recentInteractionsSummary string) Goal {
	report, err := c.Benchmark.Run(ctx, recentInteractionsSummary)
	if err != nil {
		log.Warn().Err(err).Msg("evolutionary controller: benchmark failed, defaulting to exploration")
		return c.logGoal(ctx, Goal{Type: Exploration})
	}

	if c.Mapper != nil && c.Graph != nil {
		if capabilitySummary, err := c.Mapper.Map(ctx, report.Narrative); err == nil {
			if frag := parseCapabilityFragment(capabilitySummary); len(frag.Edges) > 0 || len(frag.Nodes) > 0 {
				if err := c.Graph.Merge(ctx, frag); err != nil {
					log.Warn().Err(err).Msg("evolutionary controller: capability fragment merge failed")
				}
			}
		} else {
			log.Warn().Err(err).Msg("evolutionary controller: capability mapping failed")
		}
	}

	if report.OverallScore < PerformanceScoreThreshold {
		return c.logGoal(ctx, Goal{Type: PerformanceImprovement})
	}

	if c.GapAnalyzer != nil {
		if topic, err := c.GapAnalyzer.FindGap(ctx, report.Narrative); err == nil && strings.TrimSpace(topic) != "" {
			return c.logGoal(ctx, Goal{Type: KnowledgeAcquisition, Topic: topic})
		}
	}

	return c.logGoal(ctx, Goal{Type: Exploration})
}

func (c *EvolutionaryController) logGoal(ctx context.Context, goal Goal) Goal {
	if c.Memory != nil {
		_ = c.Memory.LogEvent(ctx, "evolutionary_direction_changed", map[string]any{
			"goal_type": string(goal.Type),
			"topic":     goal.Topic,
		})
	}
	return goal
}

// parseCapabilityFragment turns the mapper's "subject predicate object"
// lines into a knowledge-graph fragment. Lines it can't parse into at
// least three tokens are dropped rather than erroring.
func parseCapabilityFragment(summary string) kgraph.Fragment {
	var frag kgraph.Fragment
	seen := map[string]bool{}
	for _, line := range strings.Split(summary, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		subject, predicate := fields[0], fields[1]
		object := strings.Join(fields[2:], " ")
		for _, id := range []string{subject, object} {
			if !seen[id] {
				seen[id] = true
				frag.Nodes = append(frag.Nodes, kgraph.Node{ID: id})
			}
		}
		frag.Edges = append(frag.Edges, kgraph.Edge{Source: subject, Label: predicate, Target: object, Weight: 1})
	}
	return frag
}
