// Package config loads application configuration from an optional YAML file
// and TASKKNOW_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedcache"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/search"
)

// EnvPrefix namespaces the environment variables read by Load
// (e.g. TASKKNOW_EMBEDDINGS_MODE, TASKKNOW_VAULT_DIR).
const EnvPrefix = "TASKKNOW"

// Config holds all application configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	VaultDir string `mapstructure:"vault_dir"`

	Log        LogConfig        `mapstructure:"log"`
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Search     SearchConfig     `mapstructure:"search"`
}

type LogConfig struct {
	Debug  bool   `mapstructure:"debug"`
	Format string `mapstructure:"format"` // "text", "json" or "pretty"
}

type EmbeddingsConfig struct {
	Mode              string `mapstructure:"mode"` // "none", "local" or "openai"
	Model             string `mapstructure:"model"`
	Dims              int    `mapstructure:"dims"`
	CacheDir          string `mapstructure:"cache_dir"`
	MemoryBudgetBytes int64  `mapstructure:"memory_budget_bytes"`
	BatchSize         int    `mapstructure:"batch_size"`
	MaxTextLen        int    `mapstructure:"max_text_len"`
	APIKey            string `mapstructure:"api_key"`
	BaseURL           string `mapstructure:"base_url"`
}

type SearchConfig struct {
	ChunkSize      int `mapstructure:"chunk_size"`
	ChunkOverlap   int `mapstructure:"chunk_overlap"`
	PrefilterLimit int `mapstructure:"prefilter_limit"`
}

// DBPath returns the SQLite database location under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "store.db")
}

// EmbeddingConfig translates the embeddings section into the adapter's
// configuration type.
func (c *Config) EmbeddingConfig() embedding.Config {
	return embedding.Config{
		Mode:              c.Embeddings.Mode,
		Model:             c.Embeddings.Model,
		Dims:              c.Embeddings.Dims,
		CacheDir:          c.Embeddings.CacheDir,
		MemoryBudgetBytes: c.Embeddings.MemoryBudgetBytes,
		BatchSize:         c.Embeddings.BatchSize,
		MaxTextLen:        c.Embeddings.MaxTextLen,
		APIKey:            c.Embeddings.APIKey,
		BaseURL:           c.Embeddings.BaseURL,
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Embeddings.Mode {
	case embedding.ModeNone, embedding.ModeLocal:
	case embedding.ModeOpenAI:
		if c.Embeddings.APIKey == "" {
			warnings = append(warnings, "embeddings mode 'openai' is configured but api_key is empty")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown embeddings mode '%s', vector search will be disabled", c.Embeddings.Mode))
	}

	if c.Embeddings.MemoryBudgetBytes < 0 {
		warnings = append(warnings, fmt.Sprintf("embeddings memory_budget_bytes %d is negative", c.Embeddings.MemoryBudgetBytes))
	}
	if c.Search.ChunkOverlap >= c.Search.ChunkSize {
		warnings = append(warnings, fmt.Sprintf("search chunk_overlap %d >= chunk_size %d, overlap will be clamped", c.Search.ChunkOverlap, c.Search.ChunkSize))
	}

	return warnings
}

// Load reads configuration from the environment and, when path is non-empty,
// from a YAML file. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyDerivedDefaults(&cfg)

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

// setDefaults registers every key with viper so AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("vault_dir", "")

	v.SetDefault("log.debug", false)
	v.SetDefault("log.format", "text")

	v.SetDefault("embeddings.mode", embedding.ModeNone)
	v.SetDefault("embeddings.model", "")
	v.SetDefault("embeddings.dims", 0)
	v.SetDefault("embeddings.cache_dir", "")
	v.SetDefault("embeddings.memory_budget_bytes", int64(embedcache.MinMemoryBudgetBytes))
	v.SetDefault("embeddings.batch_size", embedding.DefaultBatchSize)
	v.SetDefault("embeddings.max_text_len", embedding.DefaultMaxTextLen)
	v.SetDefault("embeddings.api_key", "")
	v.SetDefault("embeddings.base_url", "")

	v.SetDefault("search.chunk_size", search.DefaultChunkSize)
	v.SetDefault("search.chunk_overlap", search.DefaultChunkOverlap)
	v.SetDefault("search.prefilter_limit", search.DefaultPrefilterLimit)
}

// applyDerivedDefaults fills settings whose defaults depend on other settings.
func applyDerivedDefaults(cfg *Config) {
	switch cfg.Embeddings.Mode {
	case embedding.ModeLocal:
		if cfg.Embeddings.Model == "" {
			cfg.Embeddings.Model = embedding.DefaultLocalModel
		}
		if cfg.Embeddings.Dims == 0 {
			cfg.Embeddings.Dims = embedding.DefaultLocalDims
		}
	case embedding.ModeOpenAI:
		if cfg.Embeddings.Model == "" {
			cfg.Embeddings.Model = embedding.DefaultOpenAIModel
		}
		if cfg.Embeddings.Dims == 0 {
			cfg.Embeddings.Dims = embedding.DefaultOpenAIDims
		}
	}
	if cfg.Embeddings.CacheDir == "" && cfg.DataDir != "" {
		cfg.Embeddings.CacheDir = filepath.Join(cfg.DataDir, "embeddings")
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taskknow"
	}
	return filepath.Join(home, ".taskknow")
}
