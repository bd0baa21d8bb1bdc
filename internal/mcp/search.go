package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/search"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

// handleTaskSearch handles the task_search tool invocation. Tasks are ranked
// by hybrid BM25 + vector search over title, tags and description; with no
// ready embedding backend the ranking is lexical only.
func (s *Server) handleTaskSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	query, limit, err := searchParams(args)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, storeError("task_search", err)
	}

	items := make([]search.CorpusItem[*types.Task], len(tasks))
	for i, task := range tasks {
		items[i] = search.CorpusItem[*types.Task]{
			ID:      task.ID,
			Text:    task.SearchText(),
			Payload: task,
		}
	}

	opts := search.HybridOptions[*types.Task]{Limit: limit, Logger: s.log}
	if s.adapter != nil {
		opts.Vector = embedding.SearchFunc[*types.Task](s.adapter)
	}
	results := search.HybridSearch(ctx, query, items, opts)

	entries := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entries[i] = map[string]interface{}{
			"id":    r.ID,
			"score": r.Score,
			"task":  r.Payload,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"count":   len(entries),
		"results": entries,
	})), nil
}

// handleKnowledgeSearch handles the knowledge_search tool invocation.
// Documents go through the two-stage pipeline: a BM25 prefilter picks
// candidate docs, their chunks are ranked hybrid, and each doc surfaces at
// its best chunk's score.
func (s *Server) handleKnowledgeSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	query, limit, err := searchParams(args)
	if err != nil {
		return nil, err
	}

	docs, err := s.store.ListDocs(ctx, store.DocFilter{})
	if err != nil {
		return nil, storeError("knowledge_search", err)
	}

	corpus := make([]search.Document[*types.Doc], len(docs))
	for i, doc := range docs {
		corpus[i] = search.Document[*types.Doc]{
			ID:      doc.ID,
			Title:   doc.Title,
			Tags:    doc.Tags,
			Content: doc.Content,
			Payload: doc,
		}
	}

	opts := search.TwoStageOptions[*types.Doc]{
		PrefilterLimit: s.search.PrefilterLimit,
		Limit:          limit,
		ChunkSize:      s.search.ChunkSize,
		ChunkOverlap:   s.search.ChunkOverlap,
		Logger:         s.log,
	}
	if s.adapter != nil {
		opts.Vector = embedding.SearchFunc[search.ChunkPayload[*types.Doc]](s.adapter)
	}
	results := search.TwoStageSearch(ctx, query, corpus, opts)

	entries := make([]map[string]interface{}, len(results))
	for i, r := range results {
		entries[i] = map[string]interface{}{
			"id":    r.ID,
			"score": r.Score,
			"doc":   r.Payload,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"count":   len(entries),
		"results": entries,
	})), nil
}

// handleVaultExport handles the vault_export tool invocation
func (s *Server) handleVaultExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.vault == nil {
		return nil, newMCPError(ErrorCodeNoVault, "no vault directory configured", nil)
	}

	stats, err := s.vault.Export(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "vault export failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"exported": true,
		"tasks":    stats.Tasks,
		"docs":     stats.Docs,
	})), nil
}

// handleVaultImport handles the vault_import tool invocation
func (s *Server) handleVaultImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.vault == nil {
		return nil, newMCPError(ErrorCodeNoVault, "no vault directory configured", nil)
	}
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	replace := getBoolDefault(args, "replace", false)

	stats, err := s.vault.Import(ctx, replace)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "vault import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"imported": true,
		"tasks":    stats.Tasks,
		"docs":     stats.Docs,
		"skipped":  stats.Skipped,
		"trashed":  stats.Trashed,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, storeError("get_status", err)
	}

	embeddings := map[string]interface{}{"ready": false}
	if s.adapter != nil {
		embeddings["ready"] = s.adapter.Ready()
		if info := s.adapter.Info(); info != nil {
			embeddings["backend"] = info
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"server":     map[string]interface{}{"name": ServerName, "version": ServerVersion},
		"store":      stats,
		"embeddings": embeddings,
		"vault":      map[string]interface{}{"configured": s.vault != nil},
	})), nil
}

// searchParams extracts the shared query and limit parameters of the search
// tools.
func searchParams(args map[string]interface{}) (string, int, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", 0, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", defaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		return "", 0, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	return query, limit, nil
}
