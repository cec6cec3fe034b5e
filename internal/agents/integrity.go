package agents

import (
	"context"
	"strconv"
	"strings"
)

// IntegrityAgent checks a knowledge-graph digest for logical inconsistencies,
// grounded on the original program's integrity_monitor.py consistency check.
type IntegrityAgent struct{ *Caller }

// NoInconsistenciesMarker is the literal reply meaning "nothing wrong",
// matched verbatim per the collaborator's documented contract.
const NoInconsistenciesMarker = "問題なし"

func (a *IntegrityAgent) CheckConsistency(ctx context.Context, graphSnippet string) (string, error) {
	system := a.prompt(ctx, "integrity_agent", `You are a logical consistency auditor. Examine this knowledge-graph fragment for contradictions or incoherent relations. If you find any, describe them concretely. If there are none, respond with exactly: `+NoInconsistenciesMarker)
	result, err := a.chat(ctx, system, graphSnippet)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}

// ValueAssessmentAgent scores how a final answer moved the runtime's core
// values, grounded on the original program's value_evaluator.py.
type ValueAssessmentAgent struct{ *Caller }

// ValueAdjustment is a per-value delta in [-0.1, 0.1].
type ValueAdjustment map[string]float64

func (a *ValueAssessmentAgent) Assess(ctx context.Context, coreValues map[string]float64, finalAnswer string) (ValueAdjustment, error) {
	system := a.prompt(ctx, "value_assessment_agent", defaultValueAssessmentPrompt)
	user := "current core values: " + formatValues(coreValues) + "\nfinal answer:\n" + finalAnswer
	var out ValueAdjustment
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func formatValues(values map[string]float64) string {
	var b strings.Builder
	for k, v := range values {
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		b.WriteString(" ")
	}
	return b.String()
}

const defaultValueAssessmentPrompt = `Given the runtime's current core values and its final answer to a user, propose an adjustment for each value in the range -0.1 to +0.1 reflecting how much the answer reinforced or undermined it. Respond with JSON mapping each value name to its adjustment, e.g. {"Helpfulness": 0.1, "Harmlessness": 0.0, "Honesty": 0.0, "Empathy": 0.0}.`
