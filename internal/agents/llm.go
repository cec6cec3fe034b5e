// Package agents provides the typed, single-purpose LLM-backed helpers the
// pipelines and cognitive loop are built from: a complexity analyzer, a
// router, a planner, a retrieval evaluator, a tool-using agent, a thought
// evaluator, a self-critic, and the rest of the cast spec'd by the
// cognitive orchestration runtime. Each is a thin wrapper around an
// llm.Provider call shaped by a PromptStore template, with JSON-structured
// output where the caller needs one.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"noesis/internal/llm"
	"noesis/internal/promptstore"
)

// Caller is the minimal shape every agent in this package needs from the
// LLM layer: a single request/response exchange with an optional model
// override.
type Caller struct {
	Provider llm.Provider
	Prompts  promptstore.PromptStore
	Model    string
}

// chat runs a one-shot system+user exchange and returns the assistant's
// text content.
func (c *Caller) chat(ctx context.Context, system, user string) (string, error) {
	msgs := []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	resp, err := c.Provider.Chat(ctx, msgs, nil, c.Model)
	if err != nil {
		return "", fmt.Errorf("llm chat: %w", err)
	}
	return resp.Content, nil
}

// prompt fetches a named template from the PromptStore, falling back to a
// default string when the store can't reach an LLM-meaningful prompt (the
// store itself never errors on a miss — it returns a dummy template that
// the caller can still pass through, which is what happens here).
func (c *Caller) prompt(ctx context.Context, name, fallback string) string {
	if c.Prompts == nil {
		return fallback
	}
	tmpl, err := c.Prompts.Get(ctx, name)
	if err != nil || tmpl == "" {
		return fallback
	}
	return tmpl
}

// chatJSON runs a one-shot exchange and unmarshals the response (after
// stripping a possible ```json fenced block) into out.
func (c *Caller) chatJSON(ctx context.Context, system, user string, out any) error {
	text, err := c.chat(ctx, system, user)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(extractJSON(text)), out)
}

// extractJSON strips Markdown code fences a model commonly wraps JSON in.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	if i := strings.IndexByte(text, '{'); i > 0 {
		text = text[i:]
	}
	if i := strings.LastIndexByte(text, '}'); i >= 0 && i < len(text)-1 {
		text = text[:i+1]
	}
	return text
}
