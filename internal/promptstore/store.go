// Package promptstore implements the PromptStore collaborator: a shared,
// read-heavy name→template map that SelfCorrectionAgent may mutate at
// runtime. Reads share a read lock; writers serialize behind the same
// mutex and persist durably before releasing it, so a read waits while a
// write is in progress.
package promptstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// notFoundTemplate is returned by Get instead of an error when a name is
// unknown, matching the "ERROR: Prompt not found" contract so callers can
// compose it directly into an LLM prompt without special-casing a miss.
func notFoundTemplate(name string) string {
	return fmt.Sprintf("ERROR: Prompt '%s' not found.", name)
}

// PromptStore is the shared template repository consumed by every agent.
type PromptStore interface {
	Get(ctx context.Context, name string) (string, error)
	Update(ctx context.Context, name, newTemplate string) (bool, error)
}

// Store is a Postgres-backed PromptStore with a full in-memory read cache.
// If pool is nil, Store degrades to a file-backed mode: the JSON map is the
// source of truth and every Update does an fsync-then-rename replace.
type Store struct {
	mu       sync.RWMutex
	cache    map[string]string
	pool     *pgxpool.Pool // nil => file-backed mode
	filePath string        // used in file-backed mode, and as a seed file otherwise
}

// NewStore constructs a Postgres-backed PromptStore, seeding the cache from
// the database (and, if the table is empty, from an optional seed JSON
// file at filePath).
func NewStore(ctx context.Context, pool *pgxpool.Pool, filePath string) (*Store, error) {
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS prompts (
	name TEXT PRIMARY KEY,
	template TEXT NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("migrate prompts table: %w", err)
	}

	s := &Store{cache: map[string]string{}, pool: pool, filePath: filePath}
	if err := s.loadFromDB(ctx); err != nil {
		return nil, err
	}
	if len(s.cache) == 0 && filePath != "" {
		if seed, err := loadJSONFile(filePath); err == nil {
			for name, tmpl := range seed {
				if _, err := pool.Exec(ctx, `INSERT INTO prompts(name, template) VALUES($1,$2) ON CONFLICT DO NOTHING`, name, tmpl); err == nil {
					s.cache[name] = tmpl
				}
			}
		}
	}
	return s, nil
}

// NewFileStore constructs a file-backed PromptStore for environments without
// Postgres configured (e.g. local development). Updates use a
// write-temp-then-rename sequence for crash safety.
func NewFileStore(filePath string) (*Store, error) {
	cache, err := loadJSONFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load prompts file: %w", err)
	}
	if cache == nil {
		cache = map[string]string{}
	}
	return &Store{cache: cache, filePath: filePath}, nil
}

func loadJSONFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return m, nil
}

func (s *Store) loadFromDB(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT name, template FROM prompts`)
	if err != nil {
		return fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, tmpl string
		if err := rows.Scan(&name, &tmpl); err != nil {
			return err
		}
		s.cache[name] = tmpl
	}
	return rows.Err()
}

// Get returns the template registered under name, or a synthetic
// "ERROR: Prompt not found" template (never an error) if it isn't present —
// so a caller composing a prompt from a missing template fails loud in the
// LLM's eyes rather than crashing the pipeline.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}
	return notFoundTemplate(name), nil
}

// Update replaces an existing prompt's template and persists it durably.
// It returns false (not an error) if name was never registered, mirroring
// the read side's never-throw contract.
func (s *Store) Update(ctx context.Context, name, newTemplate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[name]; !ok {
		return false, nil
	}
	if s.pool != nil {
		if _, err := s.pool.Exec(ctx, `
UPDATE prompts SET template = $2 WHERE name = $1
`, name, newTemplate); err != nil {
			return false, fmt.Errorf("persist prompt %s: %w", name, err)
		}
	}
	s.cache[name] = newTemplate
	if s.filePath != "" {
		if err := s.flushFile(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Register adds a new prompt if absent; used at startup to seed built-in
// prompts that the spec's agents expect to find.
func (s *Store) Register(ctx context.Context, name, template string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[name]; ok {
		return nil
	}
	if s.pool != nil {
		if _, err := s.pool.Exec(ctx, `INSERT INTO prompts(name, template) VALUES($1,$2) ON CONFLICT DO NOTHING`, name, template); err != nil {
			return fmt.Errorf("register prompt %s: %w", name, err)
		}
	}
	s.cache[name] = template
	if s.filePath != "" {
		return s.flushFile()
	}
	return nil
}

// flushFile durably replaces the JSON seed/snapshot file using a
// write-temp-then-rename sequence, assuming the caller holds s.mu.
func (s *Store) flushFile() error {
	data, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prompts: %w", err)
	}
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prompts-*.json")
	if err != nil {
		return fmt.Errorf("create temp prompts file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp prompts file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync temp prompts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.filePath)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
