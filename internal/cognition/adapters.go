package cognition

import (
	"context"

	"noesis/internal/kgraph"
	"noesis/internal/llm"
	"noesis/internal/tools/web"
)

// WebBrowserFetcher adapts web.Fetcher into BrowserFetcher for the
// iterative retrieval loop's direct-URL short-circuit.
type WebBrowserFetcher struct {
	Fetcher *web.Fetcher
}

func (f WebBrowserFetcher) FetchText(ctx context.Context, url string) (string, error) {
	res, err := f.Fetcher.FetchMarkdown(ctx, url)
	if err != nil {
		return "", err
	}
	return res.Markdown, nil
}

// HTTPEmbedder implements Embedder against an OpenAI-compatible embeddings
// endpoint, grounded on the teacher's internal/llm/embeddings.go.
type HTTPEmbedder struct {
	Config llm.EmbeddingConfig
}

func (e HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return llm.GenerateEmbedding(ctx, e.Config, text)
}

// VectorRetriever adapts a kgraph.VectorStore + Embedder pair into a
// Retriever, embedding the query and returning its nearest neighbors as
// Documents.
type VectorRetriever struct {
	Store    kgraph.VectorStore
	Embedder Embedder
	TopK     int
}

func (r VectorRetriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	vec, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	k := r.TopK
	if k <= 0 {
		k = 5
	}
	hits, err := r.Store.SimilaritySearch(ctx, vec, k, nil)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, Document{ID: h.ID, Text: h.Metadata["text"], Source: h.Metadata["source"]})
	}
	return docs, nil
}

// VectorConceptualMemory adapts a kgraph.VectorStore into ConceptualMemory,
// the k-NN lookup the conceptual-operation branch queries combined concept
// vectors against.
type VectorConceptualMemory struct {
	Store kgraph.VectorStore
}

func (m VectorConceptualMemory) Query(ctx context.Context, vector []float32, k int) ([]kgraph.VectorResult, error) {
	return m.Store.SimilaritySearch(ctx, vector, k, nil)
}
