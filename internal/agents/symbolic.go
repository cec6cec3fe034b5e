package agents

import (
	"context"
	"strings"
)

// HypothesisAgent proposes exactly one new candidate fact per iteration of
// the symbolic reasoning loop.
type HypothesisAgent struct{ *Caller }

func (a *HypothesisAgent) Propose(ctx context.Context, query string, knownFacts []string) (string, error) {
	system := a.prompt(ctx, "hypothesis_agent", "Given the query and the facts already established, propose exactly one new fact that would help prove or resolve the query. Respond with the fact alone, one sentence.")
	user := "query: " + query + "\nknown facts:\n" + strings.Join(knownFacts, "\n")
	return a.chat(ctx, system, user)
}

// SymbolicVerifier performs pattern-driven deductive closure: given the
// known facts, it returns any additional facts that follow directly from
// them by transitivity over "X implies Y" facts, without calling an LLM — this is
// a deterministic symbolic pass, not a generative one.
type SymbolicVerifier struct{}

// Deduce returns newly-derivable facts not already present in known.
func (v *SymbolicVerifier) Deduce(known []string) []string {
	seen := make(map[string]bool, len(known))
	for _, f := range known {
		seen[strings.ToLower(strings.TrimSpace(f))] = true
	}
	var derived []string
	// Transitive closure over "X implies Y" style facts.
	implies := map[string]string{}
	for _, f := range known {
		if parts := strings.SplitN(f, "implies", 2); len(parts) == 2 {
			implies[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	for a, b := range implies {
		if c, ok := implies[b]; ok {
			candidate := a + " implies " + c
			key := strings.ToLower(candidate)
			if !seen[key] {
				derived = append(derived, candidate)
				seen[key] = true
			}
		}
	}
	return derived
}

// DeductiveReasonerAgent summarizes the current conclusion reachable from
// the known facts, used to decide whether the symbolic loop should stop.
type DeductiveReasonerAgent struct{ *Caller }

// conclusionMarkers are the phrases the spec treats as signaling the
// symbolic reasoning loop has reached a terminal conclusion.
var conclusionMarkers = []string{"結論として", "証明された"}

func (a *DeductiveReasonerAgent) Conclude(ctx context.Context, query string, knownFacts []string) (string, error) {
	system := a.prompt(ctx, "deductive_reasoner", "Given the query and known facts, state the current conclusion. If the facts constitute a complete proof, begin your answer with \"結論として\" (as a conclusion) or state \"証明された\" (proven).")
	user := "query: " + query + "\nknown facts:\n" + strings.Join(knownFacts, "\n")
	return a.chat(ctx, system, user)
}

// IsConclusive reports whether text contains one of the loop-terminating
// conclusion markers.
func IsConclusive(text string) bool {
	for _, m := range conclusionMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
