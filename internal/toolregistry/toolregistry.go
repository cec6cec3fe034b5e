// Package toolregistry adapts the flat tools.Registry (name→Tool,
// JSON-in/JSON-out Dispatch) to the plain string-in/string-out contract the
// cognitive loop, micro_llm_expert pipeline, and ToolUsingAgent expect, and
// adds the Specialist_* discovery the Orchestrator's second routing rule
// consults.
package toolregistry

import (
	"context"
	"encoding/json"
	"strings"

	"noesis/internal/tools"
)

// asyncPrefix marks tools registered as supporting asynchronous execution
// (e.g. long-running sandbox commands); the cognitive loop calls UseAsync
// for these instead of Use, and still waits for the result.
const asyncPrefix = "Async_"

// SpecialistPrefix marks tools the Orchestrator treats as domain
// specialists routable to the micro_llm_expert pipeline.
const SpecialistPrefix = "Specialist_"

// Executor adapts a tools.Registry to the string-in/string-out ToolExecutor
// contract used throughout the cognitive loop and agents package.
type Executor struct {
	Registry tools.Registry
}

// New wraps an existing tools.Registry.
func New(reg tools.Registry) *Executor {
	return &Executor{Registry: reg}
}

// Use dispatches toolName with input wrapped as {"input": input} and
// returns the tool's raw response body as text.
func (e *Executor) Use(ctx context.Context, toolName, input string) (string, error) {
	raw, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return "", err
	}
	payload, err := e.Registry.Dispatch(ctx, toolName, raw)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// SupportsAsync reports whether toolName is registered under the
// async-capable naming convention.
func (e *Executor) SupportsAsync(toolName string) bool {
	return strings.HasPrefix(toolName, asyncPrefix)
}

// UseAsync invokes the same dispatch path as Use; the async distinction is
// advisory to callers that want to avoid blocking a request-serving
// goroutine on a long-running tool and fire it from a worker instead, not a
// different wire contract.
func (e *Executor) UseAsync(ctx context.Context, toolName, input string) (string, error) {
	return e.Use(ctx, toolName, input)
}

// Describe renders the registry's schemas as the "Name: description" lines
// ToolUsingAgent.Choose expects for its available-tools listing.
func (e *Executor) Describe() string {
	var b strings.Builder
	for _, s := range e.Registry.Schemas() {
		b.WriteString(s.Name + ": " + s.Description + "\n")
	}
	return b.String()
}

// FindSpecialist returns the name of the first Specialist_* tool whose
// description domainMatch judges a match for query, or "" if none matches.
func FindSpecialist(reg tools.Registry, domainMatch func(name, description string) bool) string {
	for _, s := range reg.Schemas() {
		if !strings.HasPrefix(s.Name, SpecialistPrefix) {
			continue
		}
		if domainMatch(s.Name, s.Description) {
			return s.Name
		}
	}
	return ""
}
