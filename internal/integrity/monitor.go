// Package integrity implements the IntegrityMonitor: a background check of
// the knowledge graph's logical consistency, grounded on the original
// program's digital_homeostasis/integrity_monitor.py. It feeds both the
// AffectiveState engine (as a HealthSource) and the analytics bus (as an
// integrity_status event), and runs on the Governor's maintenance schedule.
package integrity

import (
	"context"
	"strings"
	"sync"
	"time"

	"noesis/internal/affect"
	"noesis/internal/agents"
	"noesis/internal/analytics"
	"noesis/internal/kgraph"

	"github.com/rs/zerolog/log"
)

// graphSnippetLimit bounds how much of the graph digest is handed to the
// consistency-checking agent per run.
const graphSnippetLimit = 4000

// Status is the runtime's most recently computed intellectual-health
// reading.
type Status struct {
	IsHealthy       bool
	Inconsistencies []string
	CheckedAt       time.Time
}

// Monitor checks the knowledge graph for logical inconsistencies on the
// Governor's schedule, caching the result for the AffectiveState engine and
// publishing it to the analytics bus.
type Monitor struct {
	Checker   *agents.IntegrityAgent
	Graph     kgraph.KnowledgeGraphStore
	Analytics *analytics.Bus

	mu      sync.Mutex
	current Status
}

// New constructs a Monitor ready to Run on the Governor's schedule.
func New(checker *agents.IntegrityAgent, graph kgraph.KnowledgeGraphStore, bus *analytics.Bus) *Monitor {
	return &Monitor{Checker: checker, Graph: graph, Analytics: bus}
}

// Run checks logical consistency, updates the cached Status, and publishes
// an integrity_status event. It satisfies governor.MaintenanceRunner.
func (m *Monitor) Run(ctx context.Context) error {
	if m.Graph == nil || m.Checker == nil {
		return nil
	}
	snippet, err := m.Graph.GetSummary(ctx, 50)
	if err != nil {
		return err
	}
	if strings.TrimSpace(snippet) == "" {
		log.Debug().Msg("integrity monitor: knowledge graph empty, skipping consistency check")
		return nil
	}
	if len(snippet) > graphSnippetLimit {
		snippet = snippet[:graphSnippetLimit]
	}

	result, err := m.Checker.CheckConsistency(ctx, snippet)
	if err != nil {
		return err
	}

	status := Status{CheckedAt: time.Now()}
	if result == "" || strings.Contains(result, agents.NoInconsistenciesMarker) {
		status.IsHealthy = true
	} else {
		status.Inconsistencies = []string{result}
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()

	if m.Analytics != nil {
		m.Analytics.Publish(ctx, analytics.Event{
			Type: "integrity_status",
			Payload: map[string]any{
				"is_healthy":      status.IsHealthy,
				"inconsistencies": status.Inconsistencies,
				"checked_at":      status.CheckedAt,
			},
			Timestamp: status.CheckedAt,
		})
	}
	return nil
}

// HealthStatus satisfies affect.HealthSource, reporting the most recently
// cached reading without triggering a fresh check. Before the first Run has
// completed it reports healthy, matching the Engine's own Calm default.
func (m *Monitor) HealthStatus(ctx context.Context) (affect.HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return affect.HealthStatus{
		IsHealthy:       m.current.IsHealthy || m.current.CheckedAt.IsZero(),
		Inconsistencies: m.current.Inconsistencies,
	}, nil
}
