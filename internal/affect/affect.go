// Package affect implements the AffectiveState classifier: a small,
// deterministic state machine that assesses the runtime's own "emotional"
// state from system health, self-criticism, and the user's query. It does
// not publish anything itself; the orchestrator publishes each assessment
// onto the analytics bus as an affective_state event. It never gates pipeline
// routing — it is an observability signal, not a control one.
package affect

import (
	"context"
	"strings"
)

// Emotion is the closed set of affective states the runtime can report.
type Emotion string

const (
	Calm              Emotion = "平静"
	Anxious           Emotion = "不安・疑念"
	Empathetic        Emotion = "共感・配慮"
	Frustrated        Emotion = "不満・苛立ち"
	FocusedOnFailure  Emotion = "失敗への集中"
)

// State is the runtime's current affective reading.
type State struct {
	Emotion   Emotion
	Intensity float64
	Reason    string
}

// IsNeutral reports whether the state is indistinguishable from baseline
// calm, per the spec's documented threshold.
func (s State) IsNeutral() bool {
	return s.Emotion == Calm && s.Intensity < 0.1
}

// HealthStatus is the minimal shape the engine needs from the integrity
// monitor to assess frustration.
type HealthStatus struct {
	IsHealthy       bool
	Inconsistencies []string
}

// HealthSource reports the runtime's current logical-consistency health.
type HealthSource interface {
	HealthStatus(ctx context.Context) (HealthStatus, error)
}

var empatheticKeywords = []string{"辛い", "悲しい", "疲れた", "どうしたらいいか分からない", "struggling", "overwhelmed"}

var selfCriticismWarningMarkers = []string{"問題", "限定的", "失敗", "issue", "limited", "failed"}

// Engine holds the current affective state and recomputes it from the
// available signals, mirroring the teacher's assess-then-cache idiom.
type Engine struct {
	health  HealthSource
	current State
}

func NewEngine(health HealthSource) *Engine {
	return &Engine{health: health, current: State{Emotion: Calm}}
}

// AssessAndUpdate evaluates frustration, anxiety, and empathy in that
// priority order and updates the cached state, returning it.
func (e *Engine) AssessAndUpdate(ctx context.Context, userQuery, selfCriticism, userProfile string) State {
	if e.health != nil {
		if status, err := e.health.HealthStatus(ctx); err == nil && !status.IsHealthy {
			e.current = State{
				Emotion:   Frustrated,
				Intensity: 0.8,
				Reason:    "system integrity issue detected: " + strings.Join(status.Inconsistencies, "; "),
			}
			return e.current
		}
	}

	if containsAny(selfCriticism, selfCriticismWarningMarkers) {
		e.current = State{
			Emotion:   Anxious,
			Intensity: 0.6,
			Reason:    "self-criticism raised concerns about answer quality: " + selfCriticism,
		}
		return e.current
	}

	if containsAny(userQuery, empatheticKeywords) || strings.Contains(userProfile, "emotional_support") {
		e.current = State{
			Emotion:   Empathetic,
			Intensity: 0.7,
			Reason:    "query or profile signals a need for emotional support",
		}
		return e.current
	}

	e.current = State{Emotion: Calm}
	return e.current
}

// Current returns the most recently computed state without recomputing it.
func (e *Engine) Current() State { return e.current }

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
