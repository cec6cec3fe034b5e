package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKDIR", dir)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing-config.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "anthropic", cfg.LLMClient.Provider)
	require.Equal(t, 100.0, cfg.Energy.MaxEnergy)
	require.Equal(t, 40.0, cfg.Energy.LowEnergyThreshold)
	require.Equal(t, 8, cfg.MaxSteps)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKDIR", dir)
	t.Setenv("LLM_PROVIDER", "not-a-provider")
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing-config.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresWorkdir(t *testing.T) {
	t.Setenv("WORKDIR", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadYAMLOverlayAppliesMCPServers(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORKDIR", dir)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
mcp:
  servers:
    - name: tools
      command: mcp-tools-server
`), 0o644))
	t.Setenv("CONFIG_FILE", yamlPath)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.MCP.Servers, 1)
	require.Equal(t, "tools", cfg.MCP.Servers[0].Name)
}
