package agents

import (
	"context"
	"strconv"
	"strings"
)

// DrafterAgent produces one candidate answer for the speculative and
// iterative_correction pipelines.
type DrafterAgent struct{ *Caller }

func (a *DrafterAgent) Draft(ctx context.Context, query string) (string, error) {
	system := a.prompt(ctx, "drafter_agent", "Draft a candidate answer to the query. Favor a complete answer over a cautious one; a verifier will check your work.")
	return a.chat(ctx, system, query)
}

// VerifierAgent picks the best of several drafts, or checks a single draft
// for correctness (iterative_correction's step-verification mode).
type VerifierAgent struct{ *Caller }

// VerifierVerdict is a single-draft verification result.
type VerifierVerdict struct {
	Accepted bool   `json:"accepted"`
	Feedback string `json:"feedback"`
}

func (a *VerifierAgent) PickBest(ctx context.Context, query string, drafts []string) (int, string, error) {
	system := a.prompt(ctx, "verifier_agent_merge", defaultVerifierMergePrompt)
	var b strings.Builder
	b.WriteString("query: " + query + "\n\n")
	for i, d := range drafts {
		b.WriteString("draft " + strconv.Itoa(i) + ":\n" + d + "\n\n")
	}
	var out struct {
		BestIndex int    `json:"best_index"`
		Merged    string `json:"merged"`
	}
	if err := a.chatJSON(ctx, system, b.String(), &out); err != nil {
		return 0, "", err
	}
	return out.BestIndex, out.Merged, nil
}

const defaultVerifierMergePrompt = `Several drafts answer the same query. Pick the best index (0-based) and, if useful, merge the strongest parts of the others into it. Respond with JSON: {"best_index": <int>, "merged": "<final merged answer>"}.`

func (a *VerifierAgent) Verify(ctx context.Context, query, draft string) (VerifierVerdict, error) {
	system := a.prompt(ctx, "verifier_agent_step", `Check this draft answer for correctness and completeness against the query. Respond with JSON: {"accepted": true|false, "feedback": "<what to fix, if anything>"}.`)
	user := "query: " + query + "\ndraft:\n" + draft
	var out VerifierVerdict
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return VerifierVerdict{}, err
	}
	return out, nil
}

// CorrectionAgent rewrites a draft in response to verifier feedback, used
// by iterative_correction's speculative-correction mode.
type CorrectionAgent struct{ *Caller }

func (a *CorrectionAgent) Correct(ctx context.Context, query, draft, feedback string) (string, error) {
	system := a.prompt(ctx, "correction_agent", "Revise the draft answer to address the feedback, keeping everything that was already correct.")
	user := "query: " + query + "\ndraft:\n" + draft + "\nfeedback:\n" + feedback
	return a.chat(ctx, system, user)
}
