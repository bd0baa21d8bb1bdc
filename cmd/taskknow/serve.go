package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			srv, err := mcp.NewServer(mcp.Config{
				Store:   app.store,
				Adapter: app.adapter,
				Vault:   app.vault,
				Search: mcp.SearchOptions{
					ChunkSize:      app.cfg.Search.ChunkSize,
					ChunkOverlap:   app.cfg.Search.ChunkOverlap,
					PrefilterLimit: app.cfg.Search.PrefilterLimit,
				},
				Logger: app.log,
			})
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				app.log.Info("MCP server ready, listening on stdio",
					"version", version, "embeddings_ready", app.adapter.Ready())
				errChan <- srv.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				app.log.Info("shutting down", "signal", sig.String())
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}
