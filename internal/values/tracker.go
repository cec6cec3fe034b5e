// Package values implements the ValueEvaluator: a running set of the
// runtime's core values, nudged by an LLM assessment of each final answer
// and published to the analytics bus, grounded on the original program's
// value_evolution/value_evaluator.py.
package values

import (
	"context"
	"sync"
	"time"

	"noesis/internal/agents"
	"noesis/internal/analytics"
)

// defaultCoreValues mirrors the original program's starting weights.
func defaultCoreValues() map[string]float64 {
	return map[string]float64{
		"Helpfulness":  0.8,
		"Harmlessness": 0.9,
		"Honesty":      0.85,
		"Empathy":      0.7,
	}
}

// Tracker holds the runtime's core values and updates them after each
// answer, clamping every value to [0, 1].
type Tracker struct {
	Assessor  *agents.ValueAssessmentAgent
	Analytics *analytics.Bus

	mu     sync.Mutex
	values map[string]float64
}

// New constructs a Tracker seeded with the original program's default
// core values.
func New(assessor *agents.ValueAssessmentAgent, bus *analytics.Bus) *Tracker {
	return &Tracker{Assessor: assessor, Analytics: bus, values: defaultCoreValues()}
}

// Current returns a copy of the current core values.
func (t *Tracker) Current() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// AssessAndUpdate scores finalAnswer against the current core values,
// applies the suggested adjustments clamped to [0, 1], and publishes a
// value_update event with the resulting set. Never blocks the caller on
// failure; an assessment error leaves the values unchanged.
func (t *Tracker) AssessAndUpdate(ctx context.Context, finalAnswer string) {
	if t.Assessor == nil {
		return
	}
	current := t.Current()
	adjustments, err := t.Assessor.Assess(ctx, current, finalAnswer)
	if err != nil {
		return
	}

	t.mu.Lock()
	for name, delta := range adjustments {
		if _, ok := t.values[name]; !ok {
			continue
		}
		t.values[name] = clamp01(t.values[name] + delta)
	}
	snapshot := make(map[string]float64, len(t.values))
	for k, v := range t.values {
		snapshot[k] = v
	}
	t.mu.Unlock()

	if t.Analytics != nil {
		payload := make(map[string]any, len(snapshot))
		for k, v := range snapshot {
			payload[k] = v
		}
		t.Analytics.Publish(ctx, analytics.Event{Type: "value_update", Payload: payload, Timestamp: time.Now()})
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
