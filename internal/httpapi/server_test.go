package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"noesis/internal/analytics"
	"noesis/internal/engine"
	"noesis/internal/orchestrator"
)

type fakePipeline struct {
	resp engine.MasterResponse
}

func (p fakePipeline) Run(ctx context.Context, query string, decision orchestrator.Decision) (engine.MasterResponse, error) {
	return p.resp, nil
}

func newTestServer() *Server {
	// A URL in the query short-circuits the Orchestrator's rule 1 without
	// touching any LLM-backed collaborator, so the zero-value Orchestrator
	// is safe to exercise here.
	orch := &orchestrator.Orchestrator{}
	eng := engine.New(map[string]engine.Pipeline{
		"full": fakePipeline{resp: engine.MasterResponse{FinalAnswer: "answered"}},
	}, nil, nil)
	return NewServer(orch, eng, analytics.New())
}

func TestHandleChat_GoldenPath(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(ChatRequest{Query: "summarize http://example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.FinalAnswer != "answered" {
		t.Fatalf("FinalAnswer = %q, want %q", resp.FinalAnswer, "answered")
	}
}

func TestHandleChat_EmptyQueryRejected(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(ChatRequest{Query: "   "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleChat_MalformedBodyRejected(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
