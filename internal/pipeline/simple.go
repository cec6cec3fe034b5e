package pipeline

import (
	"context"

	"noesis/internal/agents"
	"noesis/internal/cognition"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

// Simple routes to RAG or direct answer depending on RouterAgent's verdict,
// grounded on spec.md §4.5's `simple` row: RAG falls back to DIRECT when
// retrieval is empty or erroring, and any exception also falls back to
// DIRECT.
type Simple struct {
	Router    *agents.RouterAgent
	Direct    *agents.DirectAnswerer
	RAG       *agents.RAGAnswerer
	Retriever cognition.Retriever
}

func (p *Simple) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	if p.Router != nil && p.Router.Route(ctx, query) == "RAG" && p.Retriever != nil {
		if docs, err := p.Retriever.Retrieve(ctx, query); err == nil && len(docs) > 0 {
			retrieved := joinDocs(docs)
			if answer, err := p.RAG.Answer(ctx, query, retrieved); err == nil {
				return engine.MasterResponse{FinalAnswer: answer, RetrievedInfo: retrieved}, nil
			}
		}
	}
	answer, err := p.Direct.Answer(ctx, query)
	if err != nil {
		return engine.MasterResponse{}, err
	}
	return engine.MasterResponse{FinalAnswer: answer}, nil
}
