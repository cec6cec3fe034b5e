// Package cognition implements the CognitiveLoop — the retrieval,
// tool-use, and symbolic/conceptual reasoning engine every multi-step
// pipeline delegates to — and the Tree of Thoughts search used by the
// tree_of_thoughts pipeline.
package cognition

import (
	"context"

	"noesis/internal/agents"
	"noesis/internal/kgraph"
)

// Document is a single retrieved or fetched unit of text.
type Document struct {
	ID      string
	Text    string
	Source  string
}

// Retriever is the iterative retrieval loop's document source, wrapping
// whatever vector/full-text backend the runtime is configured with.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// Embedder turns text into the vector space ConceptualMemory is queried in.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ConceptualMemory is the k-nearest-neighbor concept store used by the
// conceptual operation flow.
type ConceptualMemory interface {
	Query(ctx context.Context, vector []float32, k int) ([]kgraph.VectorResult, error)
}

// ToolExecutor dispatches a named tool call and reports its text result.
// UseAsync is the entry point for tools that report SupportsAsync; the loop
// still waits for its result before continuing.
type ToolExecutor interface {
	Use(ctx context.Context, toolName, input string) (string, error)
	SupportsAsync(toolName string) bool
	UseAsync(ctx context.Context, toolName, input string) (string, error)
}

// BrowserFetcher fetches the text of a URL mentioned directly in a query,
// used by the iterative retrieval loop's URL short-circuit (the loop
// summarizes the text itself).
type BrowserFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Synthesizer produces the loop's final synthesis text from everything
// gathered during the loop.
type Synthesizer interface {
	Synthesize(ctx context.Context, in agents.SynthesisInput) (string, error)
}
