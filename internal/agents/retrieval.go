package agents

import (
	"context"
	"strings"
)

// RetrievalEvaluatorAgent scores a batch of retrieved documents against the
// query for the CognitiveLoop's iterative retrieval loop.
type RetrievalEvaluatorAgent struct{ *Caller }

// Evaluation is the retrieval evaluator's structured verdict.
type Evaluation struct {
	RelevanceScore     int    `json:"relevance_score"`
	CompletenessScore  int    `json:"completeness_score"`
	Summary            string `json:"summary"`
	Suggestions        string `json:"suggestions"`
}

func (a *RetrievalEvaluatorAgent) Evaluate(ctx context.Context, query, retrieved string) (Evaluation, error) {
	system := a.prompt(ctx, "retrieval_evaluator", defaultRetrievalEvaluatorPrompt)
	user := "query: " + query + "\n\nretrieved:\n" + retrieved
	var out Evaluation
	if err := a.chatJSON(ctx, system, user, &out); err != nil {
		return Evaluation{}, err
	}
	return out, nil
}

const defaultRetrievalEvaluatorPrompt = `Score how well the retrieved documents answer the query. Respond with JSON: {"relevance_score": <0-10>, "completeness_score": <0-10>, "summary": "<short summary of what was found>", "suggestions": "<what's missing>"}.`

// QueryRefinementAgent rewrites a query for another retrieval pass when the
// retrieval evaluator judged the current results insufficient.
type QueryRefinementAgent struct{ *Caller }

func (a *QueryRefinementAgent) Refine(ctx context.Context, query, suggestions string) (string, error) {
	system := a.prompt(ctx, "query_refiner", "Rewrite the search query to address the suggestions below, staying faithful to the original intent.")
	user := "original query: " + query + "\nsuggestions: " + suggestions
	return a.chat(ctx, system, user)
}

// ToolUsingAgent picks a single tool to invoke, in the
// "ToolName: tool_input" format the CognitiveLoop and micro_llm_expert
// pipeline both parse.
type ToolUsingAgent struct{ *Caller }

// ToolChoice is a parsed "ToolName: tool_input" selection.
type ToolChoice struct {
	ToolName string
	Input    string
}

func (a *ToolUsingAgent) Choose(ctx context.Context, query, availableTools string) (ToolChoice, error) {
	system := a.prompt(ctx, "tool_using_agent", defaultToolUsingPrompt)
	user := "available tools:\n" + availableTools + "\n\nquery: " + query
	text, err := a.chat(ctx, system, user)
	if err != nil {
		return ToolChoice{}, err
	}
	return parseToolChoice(text), nil
}

const defaultToolUsingPrompt = `Choose exactly one tool to invoke to make progress on the query. Respond on a single line in the exact format "ToolName: tool_input".`

// parseToolChoice parses the first "Name: input" line it finds, trimming
// whitespace on both sides.
func parseToolChoice(text string) ToolChoice {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.Index(line, ":"); i > 0 {
			return ToolChoice{
				ToolName: strings.TrimSpace(line[:i]),
				Input:    strings.TrimSpace(line[i+1:]),
			}
		}
	}
	return ToolChoice{}
}
