// Package engine implements the Engine: the only component allowed to
// invoke a pipeline. It arbitrates the orchestrator's routing decision
// against the energy budget, looks up the chosen pipeline, and shields the
// caller from any panic a pipeline raises.
package engine

import (
	"context"

	"noesis/internal/orchestrator"

	"github.com/rs/zerolog/log"
)

// MasterResponse is returned to the HTTP caller and to the self-evolution
// subsystem's trace collector.
type MasterResponse struct {
	FinalAnswer       string
	SelfCriticism     string
	PotentialProblems string
	RetrievedInfo     string
}

// Pipeline is the contract every cognitive pipeline implements. It must
// respect ctx cancellation internally.
type Pipeline interface {
	Run(ctx context.Context, query string, decision orchestrator.Decision) (MasterResponse, error)
}

// Arbiter downgrades a routing decision based on the current energy level.
type Arbiter interface {
	Arbitrate(decision orchestrator.Decision, level float64) orchestrator.Decision
}

// EnergyReader is the read-only slice of the energy manager the Engine
// needs to arbitrate; it never calls Consume itself.
type EnergyReader interface {
	Level() float64
}

const simpleMode = "simple"

// apologyResponse is returned verbatim whenever a pipeline panics or the
// requested mode can't be found and even "simple" is unavailable.
var apologyResponse = MasterResponse{
	FinalAnswer: "I'm sorry, something went wrong while working on that and I wasn't able to complete it. Please try again.",
}

// cancellationResponse is returned when ctx is already done at entry.
var cancellationResponse = MasterResponse{
	FinalAnswer: "The request was cancelled before it could be completed.",
}

// Engine holds the closed set of named pipelines and dispatches to them.
type Engine struct {
	pipelines map[string]Pipeline
	arbiter   Arbiter
	energy    EnergyReader
}

// New constructs an Engine over the given pipeline registry.
func New(pipelines map[string]Pipeline, arbiter Arbiter, energy EnergyReader) *Engine {
	return &Engine{pipelines: pipelines, arbiter: arbiter, energy: energy}
}

// Run arbitrates decision, dispatches to the resulting pipeline, and
// recovers from any panic the pipeline raises.
func (e *Engine) Run(ctx context.Context, query string, decision orchestrator.Decision) (resp MasterResponse) {
	if err := ctx.Err(); err != nil {
		return cancellationResponse
	}

	final := decision
	if e.arbiter != nil && e.energy != nil {
		final = e.arbiter.Arbitrate(decision, e.energy.Level())
	}

	p, ok := e.pipelines[final.ChosenMode]
	if !ok {
		log.Warn().Str("requested_mode", final.ChosenMode).Msg("engine: unknown pipeline, substituting simple")
		p, ok = e.pipelines[simpleMode]
		if !ok {
			return apologyResponse
		}
		final.ChosenMode = simpleMode
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("mode", final.ChosenMode).Msg("engine: pipeline panicked")
			resp = apologyResponse
		}
	}()

	out, err := p.Run(ctx, query, final)
	if err != nil {
		if ctx.Err() != nil {
			return cancellationResponse
		}
		log.Error().Err(err).Str("mode", final.ChosenMode).Msg("engine: pipeline returned an error")
		return apologyResponse
	}
	return out
}

// PipelineNames returns the set of modes this Engine can dispatch to, for
// diagnostics.
func (e *Engine) PipelineNames() []string {
	out := make([]string, 0, len(e.pipelines))
	for name := range e.pipelines {
		out = append(out, name)
	}
	return out
}
