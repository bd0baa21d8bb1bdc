package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/search"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "store.db"), cfg.DBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "embeddings"), cfg.Embeddings.CacheDir)

	assert.Equal(t, embedding.ModeNone, cfg.Embeddings.Mode)
	assert.Equal(t, embedding.DefaultBatchSize, cfg.Embeddings.BatchSize)
	assert.Equal(t, embedding.DefaultMaxTextLen, cfg.Embeddings.MaxTextLen)

	assert.Equal(t, search.DefaultChunkSize, cfg.Search.ChunkSize)
	assert.Equal(t, search.DefaultChunkOverlap, cfg.Search.ChunkOverlap)
	assert.Equal(t, search.DefaultPrefilterLimit, cfg.Search.PrefilterLimit)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
data_dir: /tmp/taskknow-test
vault_dir: /tmp/vault
log:
  debug: true
  format: json
embeddings:
  mode: local
  dims: 64
search:
  prefilter_limit: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/taskknow-test", cfg.DataDir)
	assert.Equal(t, "/tmp/vault", cfg.VaultDir)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, embedding.ModeLocal, cfg.Embeddings.Mode)
	assert.Equal(t, 64, cfg.Embeddings.Dims)
	assert.Equal(t, 10, cfg.Search.PrefilterLimit)

	// Unset file keys keep their defaults.
	assert.Equal(t, search.DefaultChunkSize, cfg.Search.ChunkSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TASKKNOW_EMBEDDINGS_MODE", "local")
	t.Setenv("TASKKNOW_VAULT_DIR", "/srv/vault")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, embedding.ModeLocal, cfg.Embeddings.Mode)
	assert.Equal(t, "/srv/vault", cfg.VaultDir)
}

func TestDerivedDefaultsPerMode(t *testing.T) {
	t.Setenv("TASKKNOW_EMBEDDINGS_MODE", "local")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, embedding.DefaultLocalModel, cfg.Embeddings.Model)
	assert.Equal(t, embedding.DefaultLocalDims, cfg.Embeddings.Dims)

	t.Setenv("TASKKNOW_EMBEDDINGS_MODE", "openai")
	t.Setenv("TASKKNOW_EMBEDDINGS_API_KEY", "sk-test")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, embedding.DefaultOpenAIModel, cfg.Embeddings.Model)
	assert.Equal(t, embedding.DefaultOpenAIDims, cfg.Embeddings.Dims)
}

func TestValidateWarnings(t *testing.T) {
	cfg := &Config{}
	cfg.Embeddings.Mode = embedding.ModeOpenAI
	cfg.Search.ChunkSize = 100
	cfg.Search.ChunkOverlap = 100

	warnings := cfg.Validate()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "api_key is empty")
	assert.Contains(t, warnings[1], "chunk_overlap")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := &Config{}
	cfg.Embeddings.Mode = "quantum"
	cfg.Search.ChunkSize = 100

	warnings := cfg.Validate()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unknown embeddings mode")
}

func TestEmbeddingConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Embeddings = EmbeddingsConfig{
		Mode:              embedding.ModeLocal,
		Model:             "hashing-v1",
		Dims:              128,
		CacheDir:          "/tmp/cache",
		MemoryBudgetBytes: 1 << 24,
		BatchSize:         4,
		MaxTextLen:        512,
	}

	ec := cfg.EmbeddingConfig()
	assert.Equal(t, embedding.ModeLocal, ec.Mode)
	assert.Equal(t, 128, ec.Dims)
	assert.Equal(t, int64(1<<24), ec.MemoryBudgetBytes)
}
