package microllm

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// OllamaModelProvider shells out to the `ollama` CLI to materialize and
// enumerate locally-hosted micro-LLMs, grounded on the same os/exec
// command-runner idiom as internal/tools/cli.ExecutorImpl.
type OllamaModelProvider struct {
	binary string
}

// NewOllamaModelProvider returns a ModelProvider backed by the local
// ollama binary. binary defaults to "ollama" on the PATH when empty.
func NewOllamaModelProvider(binary string) *OllamaModelProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "ollama"
	}
	return &OllamaModelProvider{binary: binary}
}

func (p *OllamaModelProvider) CreateModel(ctx context.Context, modelName, modelfilePath string) (bool, error) {
	cmd := exec.CommandContext(ctx, p.binary, "create", modelName, "-f", modelfilePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *OllamaModelProvider) ListModels(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, p.binary, "list")
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	var names []string
	for i, line := range strings.Split(string(out), "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue // header row
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names, nil
}
