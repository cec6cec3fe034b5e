package kgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is the Postgres-backed KnowledgeGraphStore. Merge runs inside a
// single transaction per call so each Merge is atomic even though there is
// no separate Save step doing the heavy lifting; Save is therefore a flush
// point rather than the place durability is won.
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens (and migrates) a Postgres-backed KnowledgeGraphStore.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (KnowledgeGraphStore, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kg_nodes (
			id TEXT PRIMARY KEY,
			labels TEXT[] NOT NULL DEFAULT '{}',
			props JSONB NOT NULL DEFAULT '{}'::jsonb,
			access_count BIGINT NOT NULL DEFAULT 0,
			last_accessed TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS kg_edges (
			source TEXT NOT NULL,
			label  TEXT NOT NULL,
			target TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL DEFAULT 1,
			PRIMARY KEY (source, label, target)
		)`,
		`CREATE INDEX IF NOT EXISTS kg_edges_source_label ON kg_edges(source, label)`,
		`CREATE INDEX IF NOT EXISTS kg_edges_weight ON kg_edges(weight DESC)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return nil, fmt.Errorf("migrate kgraph schema: %w", err)
		}
	}
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) Merge(ctx context.Context, fragment Fragment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, n := range fragment.Nodes {
		props := n.Props
		if props == nil {
			props = map[string]any{}
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO kg_nodes(id, labels, props) VALUES($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET labels = kg_nodes.labels, props = kg_nodes.props
`, n.ID, n.Labels, props); err != nil {
			return fmt.Errorf("merge node %s: %w", n.ID, err)
		}
	}

	for _, e := range fragment.Edges {
		weight := e.Weight
		if weight == 0 {
			weight = 1
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO kg_edges(source, label, target, weight) VALUES($1, $2, $3, $4)
ON CONFLICT (source, label, target) DO UPDATE SET weight = kg_edges.weight + EXCLUDED.weight
`, e.Source, e.Label, e.Target, weight); err != nil {
			return fmt.Errorf("merge edge %s-%s->%s: %w", e.Source, e.Label, e.Target, err)
		}
	}

	return tx.Commit(ctx)
}

// Save is a no-op beyond the transaction already committed by Merge; each
// fragment is already durable by the time Merge returns.
func (s *pgStore) Save(ctx context.Context) error {
	return nil
}

func (s *pgStore) GetSummary(ctx context.Context, limit int) (string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
SELECT source, label, target, weight FROM kg_edges ORDER BY weight DESC LIMIT $1
`, limit)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var src, label, dst string
		var weight float64
		if err := rows.Scan(&src, &label, &dst, &weight); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s -[%s w=%.1f]-> %s\n", src, label, weight, dst)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if b.Len() == 0 {
		return "(knowledge graph is empty)", nil
	}
	return b.String(), nil
}

func (s *pgStore) AccessNode(ctx context.Context, id string) (Node, bool, error) {
	row := s.pool.QueryRow(ctx, `
UPDATE kg_nodes SET access_count = access_count + 1, last_accessed = now()
WHERE id = $1
RETURNING labels, props
`, id)
	var labels []string
	var props map[string]any
	if err := row.Scan(&labels, &props); err != nil {
		return Node{}, false, nil
	}
	return Node{ID: id, Labels: labels, Props: props}, true, nil
}

func (s *pgStore) Close() {
	s.pool.Close()
}
