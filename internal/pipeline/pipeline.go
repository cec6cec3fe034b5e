// Package pipeline implements the closed set of cognitive pipelines named
// in orchestrator.Decision.ChosenMode. Every pipeline satisfies
// engine.Pipeline's Run(ctx, query, decision) contract and is registered
// into the Engine's pipeline map under its mode name by cmd/runtime.
package pipeline

import (
	"strings"

	"noesis/internal/cognition"
)

// joinDocs renders retrieved documents as one block of text, newline
// separated — duplicated here rather than imported from cognition since
// each package treats document rendering as its own small concern.
func joinDocs(docs []cognition.Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Text)
		b.WriteString("\n")
	}
	return b.String()
}
