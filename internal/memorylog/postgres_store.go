package memorylog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// recentEventsKey caps the Redis-backed sliding window of recent events so
// GetRecentEvents can answer without a round trip to Postgres in the common
// case of the Governor polling for idle-cycle context.
const recentEventsKey = "noesis:memorylog:recent_events"
const recentWindow = 200

// pgMemoryLog persists entries to Postgres for querying and mirrors every
// write to an append-only JSONL sidecar file, matching the durability shape
// of a flat log file without giving up indexed recent-entry lookups.
type pgMemoryLog struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	jsonlMu sync.Mutex
	jsonlFH *os.File
}

// NewPostgresMemoryLog opens (and migrates) a Postgres + Redis backed
// MemoryLog, appending every entry to a JSONL file at jsonlPath as well.
func NewPostgresMemoryLog(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client, jsonlPath string) (MemoryLog, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memory_entries (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			topic TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS memory_entries_type_created ON memory_entries(type, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS memory_entries_topic_created ON memory_entries(topic, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS working_memory_sessions (
			session_id TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			consumed BOOLEAN NOT NULL DEFAULT false
		)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return nil, fmt.Errorf("migrate memorylog schema: %w", err)
		}
	}

	var fh *os.File
	if jsonlPath != "" {
		if err := os.MkdirAll(filepath.Dir(jsonlPath), 0o755); err != nil {
			return nil, fmt.Errorf("create memorylog dir: %w", err)
		}
		f, err := os.OpenFile(jsonlPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open memorylog jsonl: %w", err)
		}
		fh = f
	}

	return &pgMemoryLog{pool: pool, rdb: rdb, jsonlFH: fh}, nil
}

func (m *pgMemoryLog) appendJSONL(e Entry) {
	if m.jsonlFH == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	m.jsonlMu.Lock()
	defer m.jsonlMu.Unlock()
	m.jsonlFH.Write(append(b, '\n'))
}

func (m *pgMemoryLog) insert(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, err := m.pool.Exec(ctx, `
INSERT INTO memory_entries(id, type, topic, text, metadata, created_at) VALUES($1,$2,$3,$4,$5,$6)
`, e.ID, e.Type, e.Topic, e.Text, metadata, e.CreatedAt); err != nil {
		return fmt.Errorf("insert memory entry: %w", err)
	}
	m.appendJSONL(e)

	if m.rdb != nil {
		if b, err := json.Marshal(e); err == nil {
			pipe := m.rdb.Pipeline()
			pipe.RPush(ctx, recentEventsKey, b)
			pipe.LTrim(ctx, recentEventsKey, -recentWindow, -1)
			_, _ = pipe.Exec(ctx)
		}
	}
	return nil
}

func (m *pgMemoryLog) LogEvent(ctx context.Context, eventType string, metadata map[string]any) error {
	return m.insert(ctx, Entry{Type: "event", Topic: eventType, Metadata: metadata})
}

func (m *pgMemoryLog) LogInteraction(ctx context.Context, query, answer string) error {
	return m.insert(ctx, Entry{
		Type: "interaction",
		Text: answer,
		Metadata: map[string]any{
			"query":  query,
			"answer": answer,
		},
	})
}

func (m *pgMemoryLog) LogAutonomousThought(ctx context.Context, topic, text string) error {
	return m.insert(ctx, Entry{Type: "autonomous_thought", Topic: topic, Text: text})
}

func (m *pgMemoryLog) GetRecentInsights(ctx context.Context, topic string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := m.pool.Query(ctx, `
SELECT id, type, topic, text, metadata, created_at FROM memory_entries
WHERE type = 'autonomous_thought' AND topic = $1
ORDER BY created_at DESC LIMIT $2
`, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	return scanEntries(rows)
}

func (m *pgMemoryLog) GetRecentEvents(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	if m.rdb != nil {
		raw, err := m.rdb.LRange(ctx, recentEventsKey, int64(-limit), -1).Result()
		if err == nil && len(raw) > 0 {
			out := make([]Entry, 0, len(raw))
			for i := len(raw) - 1; i >= 0; i-- {
				var e Entry
				if json.Unmarshal([]byte(raw[i]), &e) == nil {
					out = append(out, e)
				}
			}
			return out, nil
		}
	}
	rows, err := m.pool.Query(ctx, `
SELECT id, type, topic, text, metadata, created_at FROM memory_entries
ORDER BY created_at DESC LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return scanEntries(rows)
}

func (m *pgMemoryLog) SaveWorkingMemoryForConsolidation(ctx context.Context, session WorkingMemorySession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal working memory session: %w", err)
	}
	_, err = m.pool.Exec(ctx, `
INSERT INTO working_memory_sessions(session_id, payload) VALUES($1, $2)
ON CONFLICT (session_id) DO UPDATE SET payload = EXCLUDED.payload, consumed = false
`, session.SessionID, payload)
	if err != nil {
		return fmt.Errorf("save working memory session: %w", err)
	}
	return nil
}

func (m *pgMemoryLog) Close() {
	if m.jsonlFH != nil {
		m.jsonlFH.Close()
	}
	if m.rdb != nil {
		m.rdb.Close()
	}
	m.pool.Close()
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanEntries(rows pgxRows) ([]Entry, error) {
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		var metadata map[string]any
		if err := rows.Scan(&e.ID, &e.Type, &e.Topic, &e.Text, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Metadata = metadata
		out = append(out, e)
	}
	return out, rows.Err()
}
