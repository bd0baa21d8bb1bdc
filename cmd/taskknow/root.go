package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/config"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedcache"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/vault"
	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/logger"
)

var cfgFile string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskknow",
		Short: "MCP server for agent tasks and knowledge with hybrid search",
		Long: `taskknow stores tasks and knowledge documents for AI agents, exposes them
over the Model Context Protocol on stdio, ranks search results with hybrid
BM25 + embedding scoring, and syncs with an Obsidian vault.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env file is not an error.
			_ = godotenv.Load()
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())
	cmd.AddCommand(vaultCmd())
	return cmd
}

// app holds the wired dependency graph shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   store.Store
	adapter *embedding.Adapter
	vault   *vault.Syncer
}

// buildApp wires config, logger, store, embedding cache and adapter, and the
// optional vault syncer. Adapter init failures are non-fatal: the server
// starts lexical-only.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithDebug(cfg.Log.Debug),
		logger.WithJSON(cfg.Log.Format == "json"),
		logger.WithPretty(cfg.Log.Format == "pretty"),
	)
	slog.SetDefault(log)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	ecfg := cfg.EmbeddingConfig()
	cache := embedcache.New(embedcache.Config{
		Dir:               ecfg.CacheDir,
		MemoryBudgetBytes: ecfg.MemoryBudgetBytes,
		Logger:            log,
	})
	backend, err := embedding.NewBackend(ecfg)
	if err != nil {
		// Bad mode degrades to lexical-only rather than refusing to start.
		log.Warn("embedding backend unavailable", "mode", ecfg.Mode, "error", err)
		backend = nil
	}
	adapter := embedding.NewAdapter(ecfg, backend, cache, log)
	adapter.Init(ctx)

	var syncer *vault.Syncer
	if cfg.VaultDir != "" {
		syncer, err = vault.New(st, vault.Config{Dir: cfg.VaultDir, Logger: log})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	return &app{cfg: cfg, log: log, store: st, adapter: adapter, vault: syncer}, nil
}

func (a *app) close() {
	if a.adapter != nil {
		_ = a.adapter.Close()
	}
	_ = a.store.Close()
}
