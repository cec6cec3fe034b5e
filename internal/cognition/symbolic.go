package cognition

import (
	"context"
	"strings"

	"noesis/internal/agents"
)

const maxSymbolicIterations = 5

// runSymbolicReasoning maintains a growing set of known facts: each
// iteration a hypothesis agent proposes one new fact, a deterministic
// symbolic verifier derives anything that follows from the set, and a
// deductive reasoner states the current conclusion. It stops early once
// the conclusion is marked conclusive.
func (l *Loop) runSymbolicReasoning(ctx context.Context, query string) (string, error) {
	var knownFacts []string
	var trace strings.Builder

	for iter := 0; iter < maxSymbolicIterations; iter++ {
		if ctx.Err() != nil {
			return trace.String(), ctx.Err()
		}
		fact, err := l.Hypothesis.Propose(ctx, query, knownFacts)
		if err != nil {
			return trace.String(), err
		}
		fact = strings.TrimSpace(fact)
		if fact != "" {
			knownFacts = append(knownFacts, fact)
			trace.WriteString("hypothesis: " + fact + "\n")
		}

		if l.Symbolic != nil {
			for _, derived := range l.Symbolic.Deduce(knownFacts) {
				knownFacts = append(knownFacts, derived)
				trace.WriteString("deduced: " + derived + "\n")
			}
		}

		conclusion, err := l.Deductive.Conclude(ctx, query, knownFacts)
		if err != nil {
			return trace.String(), err
		}
		trace.WriteString("conclusion: " + conclusion + "\n")

		if agents.IsConclusive(conclusion) {
			break
		}
	}
	return trace.String(), nil
}
