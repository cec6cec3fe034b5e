// Package microllm implements the MicroLLMManager: it distills a knowledge
// graph topic into a small fine-tuned "expert" model definition and asks
// the LLM provider to materialize it, giving the micro_llm_expert pipeline
// a growing roster of Specialist_* models to route to.
package microllm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"noesis/internal/kgraph"
)

// ModelProvider is the narrow slice of the LLMProvider collaborator
// interface microllm needs: the ability to materialize and enumerate
// locally-hosted models (e.g. an Ollama-backed provider), distinct from
// the chat-completion Provider interface used everywhere else.
type ModelProvider interface {
	CreateModel(ctx context.Context, modelName, modelfilePath string) (bool, error)
	ListModels(ctx context.Context) ([]string, error)
}

// SpecializedModel is a previously-created expert model.
type SpecializedModel struct {
	Name  string
	Topic string
}

const modelNamePrefix = "noesis-micro-"

// Manager runs the create-from-topic lifecycle for micro-LLMs.
type Manager struct {
	provider  ModelProvider
	graph     kgraph.KnowledgeGraphStore
	baseModel string
	modelDir  string
}

// NewManager constructs a Manager. modelDir is where generated Modelfiles
// are written; baseModel is the model every micro-LLM is derived FROM.
func NewManager(provider ModelProvider, graph kgraph.KnowledgeGraphStore, baseModel, modelDir string) *Manager {
	return &Manager{provider: provider, graph: graph, baseModel: baseModel, modelDir: modelDir}
}

// ListSpecialized returns every previously-created micro-LLM, parsed out of
// the provider's full model listing by name prefix.
func (m *Manager) ListSpecialized(ctx context.Context) ([]SpecializedModel, error) {
	names, err := m.provider.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	out := make([]SpecializedModel, 0, len(names))
	for _, n := range names {
		if !strings.HasPrefix(n, modelNamePrefix) {
			continue
		}
		topic := strings.ReplaceAll(strings.TrimPrefix(n, modelNamePrefix), "-", " ")
		out = append(out, SpecializedModel{Name: n, Topic: titleCase(topic)})
	}
	return out, nil
}

// RunCreationCycle extracts topic's knowledge from the graph, writes a
// Modelfile describing an expert persona grounded in it, and asks the
// provider to build the model. It returns "", nil (not an error) if the
// graph holds nothing relevant to topic.
func (m *Manager) RunCreationCycle(ctx context.Context, topic string) (string, error) {
	summary, err := m.graph.GetSummary(ctx, 500)
	if err != nil {
		return "", fmt.Errorf("read knowledge graph: %w", err)
	}
	knowledge := extractRelevant(summary, topic)
	if knowledge == "" {
		return "", nil
	}

	modelName := modelNamePrefix + slugify(topic)
	if err := os.MkdirAll(m.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	modelfilePath := filepath.Join(m.modelDir, "Modelfile."+modelName)
	content := buildModelfile(m.baseModel, topic, knowledge)
	if err := os.WriteFile(modelfilePath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write modelfile: %w", err)
	}

	ok, err := m.provider.CreateModel(ctx, modelName, modelfilePath)
	if err != nil {
		return "", fmt.Errorf("create model: %w", err)
	}
	if !ok {
		return "", nil
	}
	return modelName, nil
}

// extractRelevant keeps only the summary lines that mention topic, mirroring
// the teacher's per-node topic filter over a flatter, line-oriented
// knowledge-graph summary format.
func extractRelevant(summary, topic string) string {
	var kept []string
	for _, line := range strings.Split(summary, "\n") {
		if strings.Contains(line, topic) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func slugify(topic string) string {
	s := strings.ToLower(strings.TrimSpace(topic))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "　", "-")
	return s
}

func buildModelfile(baseModel, topic, knowledge string) string {
	return fmt.Sprintf(`FROM %s
TEMPLATE """{{ .System }}

### Instruction:
{{ .Prompt }}

### Response:
"""
SYSTEM """You are the world's foremost expert on %s. Answer concisely and precisely, grounded in the knowledge below.

Known facts:
%s
"""
PARAMETER temperature 0.3
PARAMETER top_k 20
`, baseModel, topic, knowledge)
}
