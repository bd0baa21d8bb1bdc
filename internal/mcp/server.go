package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/vault"
)

const (
	// ServerName is the MCP server name
	ServerName = "mcp-task-knowledge"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// SearchOptions tunes the search tools. Zero values fall back to the search
// package defaults.
type SearchOptions struct {
	ChunkSize      int
	ChunkOverlap   int
	PrefilterLimit int
}

// Config carries the server's dependencies. Store is required; the rest
// degrade gracefully when absent: without an adapter the search tools are
// lexical-only, without a vault the sync tools report an error.
type Config struct {
	Store   store.Store
	Adapter *embedding.Adapter
	Vault   *vault.Syncer
	Search  SearchOptions
	Logger  *slog.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	store   store.Store
	adapter *embedding.Adapter
	vault   *vault.Syncer
	search  SearchOptions
	log     *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		store:   cfg.Store,
		adapter: cfg.Adapter,
		vault:   cfg.Vault,
		search:  cfg.Search,
		log:     log,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Task CRUD
	s.mcp.AddTool(taskCreateTool(), s.handleTaskCreate)
	s.mcp.AddTool(taskGetTool(), s.handleTaskGet)
	s.mcp.AddTool(taskUpdateTool(), s.handleTaskUpdate)
	s.mcp.AddTool(taskDeleteTool(), s.handleTaskDelete)
	s.mcp.AddTool(taskRestoreTool(), s.handleTaskRestore)
	s.mcp.AddTool(taskListTool(), s.handleTaskList)

	// Knowledge CRUD
	s.mcp.AddTool(knowledgeCreateTool(), s.handleKnowledgeCreate)
	s.mcp.AddTool(knowledgeGetTool(), s.handleKnowledgeGet)
	s.mcp.AddTool(knowledgeUpdateTool(), s.handleKnowledgeUpdate)
	s.mcp.AddTool(knowledgeDeleteTool(), s.handleKnowledgeDelete)
	s.mcp.AddTool(knowledgeListTool(), s.handleKnowledgeList)

	// Search
	s.mcp.AddTool(taskSearchTool(), s.handleTaskSearch)
	s.mcp.AddTool(knowledgeSearchTool(), s.handleKnowledgeSearch)

	// Vault sync and status
	s.mcp.AddTool(vaultExportTool(), s.handleVaultExport)
	s.mcp.AddTool(vaultImportTool(), s.handleVaultImport)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
