package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmap-go/agentmap/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "csv_path: graph.csv\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "graph.csv", cfg.CSVPath)
	assert.Equal(t, "./bundles", cfg.BundleDir)
	assert.Equal(t, "./scaffold", cfg.ScaffoldDir)
	assert.Equal(t, "./skills", cfg.SkillsDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "memory", cfg.Checkpoint.Kind)
	assert.Equal(t, "direct", cfg.LLM.Mode)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.DefaultModel)
}

func TestLoadParsesNestedSections(t *testing.T) {
	path := writeConfig(t, `
csv_path: graph.csv
checkpoint:
  kind: sqlite
  sqlite:
    path: ./state.db
llm:
  mode: direct
  default_model: gpt-4o
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Kind)
	assert.Equal(t, "./state.db", cfg.Checkpoint.SQLite.Path)
	assert.Equal(t, "checkpoints", cfg.Checkpoint.SQLite.TableName)
	assert.Equal(t, "gpt-4o", cfg.LLM.DefaultModel)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestOverrideEnvVarsWinOverFileValues(t *testing.T) {
	path := writeConfig(t, "csv_path: graph.csv\nllm:\n  api_key: file-key\n")

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("AGENTMAP_CSV_PATH", "override.csv")
	t.Setenv("AGENTMAP_SKILLS_DIR", "/opt/skills")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "override.csv", cfg.CSVPath)
	assert.Equal(t, "/opt/skills", cfg.SkillsDir)
}

func TestValidateRejectsUnknownCheckpointKind(t *testing.T) {
	cfg := config.Config{Checkpoint: config.CheckpointConfig{Kind: "mongo"}}
	err := config.Validate(cfg)
	require.Error(t, err)
}

func TestValidateRequiresSQLitePathForSQLiteKind(t *testing.T) {
	cfg := config.Config{Checkpoint: config.CheckpointConfig{Kind: "sqlite"}, LLM: config.LLMConfig{Mode: "routed"}}
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite.path")
}

func TestValidateRequiresAPIKeyForDirectLLMMode(t *testing.T) {
	cfg := config.Config{Checkpoint: config.CheckpointConfig{Kind: "memory"}, LLM: config.LLMConfig{Mode: "direct"}}
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestValidateAcceptsFullyConfiguredSetup(t *testing.T) {
	cfg := config.Config{
		Checkpoint: config.CheckpointConfig{Kind: "redis", Redis: config.RedisConfig{Addr: "localhost:6379"}},
		LLM:        config.LLMConfig{Mode: "routed"},
	}
	assert.NoError(t, config.Validate(cfg))
}
