// Package arbiter implements the ResourceArbiter: a pure function that
// downgrades a chosen cognitive pipeline when the runtime's energy budget
// is too low to afford it. The arbiter never touches the energy pool
// itself — it only reads a level the Engine supplies.
package arbiter

import "noesis/internal/orchestrator"

// HighCostPipelines is the closed set of pipeline names the arbiter
// considers expensive enough to gate on energy.
var HighCostPipelines = map[string]bool{
	"tree_of_thoughts": true,
	"full":             true,
	"self_discover":    true,
}

// DefaultThreshold is the energy level below which a high-cost pipeline
// choice is overridden to "simple".
const DefaultThreshold = 40.0

// Arbiter downgrades high-cost pipeline decisions when energy is low.
type Arbiter struct {
	Threshold float64
}

// New constructs an Arbiter with the given threshold, or DefaultThreshold
// if threshold <= 0.
func New(threshold float64) *Arbiter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Arbiter{Threshold: threshold}
}

// Arbitrate applies the low-energy downgrade rule to decision given the
// current energy level. It is a pure transform: the same (decision, level)
// pair always yields the same result, and it never mutates decision.
func (a *Arbiter) Arbitrate(decision orchestrator.Decision, level float64) orchestrator.Decision {
	if !HighCostPipelines[decision.ChosenMode] || level >= a.Threshold {
		return decision
	}
	out := decision
	out.ChosenMode = "simple"
	if out.Reasoning != "" {
		out.Reasoning += " (overridden by arbiter due to low cognitive energy)"
	} else {
		out.Reasoning = "overridden by arbiter due to low cognitive energy"
	}
	if out.ConfidenceScore > 0.6 {
		out.ConfidenceScore = 0.6
	}
	return out
}
