package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconcile.yml", `
agentEndpoint: http://localhost:8831/rpc
disableAI: true
languages:
  - python
  - typescript
concurrency: 4
verbose: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8831/rpc", cfg.AgentEndpoint)
	assert.True(t, cfg.DisableAI)
	assert.Equal(t, []string{"python", "typescript"}, cfg.Languages)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.Verbose)
}

func TestLoad_YAMLFallback(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconcile.yaml", "concurrency: 2\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Concurrency)
}

func TestLoad_YMLTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconcile.yml", "concurrency: 1\n")
	writeConfig(t, dir, "reconcile.yaml", "concurrency: 9\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconcile.yml", "agentEndpoint: [unclosed\n")

	_, err := Load(dir)
	assert.Error(t, err)
}
