package kgraph

import "testing"

func TestQdrantStore_PointIDIsDeterministic(t *testing.T) {
	q := &qdrantStore{collection: "test", dimension: 4}
	a := q.pointID("doc-42")
	b := q.pointID("doc-42")
	if a != b {
		t.Fatalf("expected deterministic point id, got %q and %q", a, b)
	}
	if a == "doc-42" {
		t.Fatalf("expected non-uuid id to be rewritten")
	}
}

func TestQdrantStore_PointIDPassesThroughUUIDs(t *testing.T) {
	q := &qdrantStore{collection: "test", dimension: 4}
	uuidLike := "550e8400-e29b-41d4-a716-446655440000"
	if got := q.pointID(uuidLike); got != uuidLike {
		t.Fatalf("expected uuid to pass through unchanged, got %q", got)
	}
}
