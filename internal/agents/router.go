package agents

import "context"

// RouterAgent is the simple pipeline's gatekeeper: it decides whether a
// query needs retrieval at all.
type RouterAgent struct{ *Caller }

// Route returns "RAG" or "DIRECT". Any failure degrades to "DIRECT" so the
// simple pipeline can still answer without retrieval.
func (a *RouterAgent) Route(ctx context.Context, query string) string {
	system := a.prompt(ctx, "router", defaultRouterPrompt)
	var out struct {
		Route string `json:"route"`
	}
	if err := a.chatJSON(ctx, system, query, &out); err != nil {
		return "DIRECT"
	}
	if out.Route != "RAG" {
		return "DIRECT"
	}
	return out.Route
}

const defaultRouterPrompt = `Decide whether answering this query requires retrieving external documents ("RAG") or can be answered directly from the model's own knowledge ("DIRECT"). Respond with JSON: {"route": "RAG"|"DIRECT"}.`

// DirectAnswerer answers a query with no retrieved context.
type DirectAnswerer struct{ *Caller }

func (a *DirectAnswerer) Answer(ctx context.Context, query string) (string, error) {
	system := a.prompt(ctx, "direct_answer", "Answer the user's query directly and concisely.")
	return a.chat(ctx, system, query)
}

// RAGAnswerer answers a query using retrieved context; the caller supplies
// the already-retrieved text.
type RAGAnswerer struct{ *Caller }

func (a *RAGAnswerer) Answer(ctx context.Context, query, retrieved string) (string, error) {
	system := a.prompt(ctx, "rag_answer", "Answer the user's query using the retrieved context below. If the context is irrelevant, answer from your own knowledge instead.")
	user := "retrieved context:\n" + retrieved + "\n\nquery: " + query
	return a.chat(ctx, system, user)
}

// SummarizerAgent condenses fetched page text with a generic summarization
// prompt. It does not look up a specialist summarizer tool.
type SummarizerAgent struct{ *Caller }

func (a *SummarizerAgent) Summarize(ctx context.Context, text string) (string, error) {
	system := a.prompt(ctx, "summarizer", "Summarize the following text for use as retrieved context in answering a user's query. Preserve concrete facts, numbers, and names.")
	return a.chat(ctx, system, text)
}
