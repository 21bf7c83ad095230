package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout())
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 4, cfg.Runner.MaxConcurrent)
	assert.Equal(t, "output", cfg.Paths.Output)
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
language: en
llm:
  model: mixtral-8x7b
  timeout_sec: 30
runner:
  max_concurrent: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "mixtral-8x7b", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout())
	// Unset fields keep their defaults.
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, 2, cfg.Runner.MaxConcurrent)
	assert.Equal(t, "output", cfg.Paths.Output)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
