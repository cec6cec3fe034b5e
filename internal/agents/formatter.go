package agents

import "context"

// ResultFormatterAgent humanizes a raw specialist tool result into a
// natural-language answer for micro_llm_expert.
type ResultFormatterAgent struct{ *Caller }

func (a *ResultFormatterAgent) Format(ctx context.Context, query, toolOutput string) (string, error) {
	system := a.prompt(ctx, "result_formatter", "Rewrite this raw tool output as a clear, direct natural-language answer to the user's query.")
	user := "query: " + query + "\nraw tool output:\n" + toolOutput
	return a.chat(ctx, system, user)
}
