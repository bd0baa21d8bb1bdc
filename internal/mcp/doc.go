// Package mcp implements the Model Context Protocol (MCP) server for the
// task and knowledge store.
//
// The server exposes the full tool surface to AI agents over stdio:
//
//   - task_create, task_get, task_update, task_delete, task_restore,
//     task_list: task CRUD with soft delete
//   - knowledge_create, knowledge_get, knowledge_update, knowledge_delete,
//     knowledge_list: knowledge document CRUD with soft delete
//   - task_search: hybrid keyword + semantic search over tasks
//   - knowledge_search: two-stage chunked search over documents
//   - vault_export, vault_import: Obsidian vault synchronization
//   - get_status: store statistics and embedding backend health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages exclusively; all logging goes to stderr.
//
// # Degraded embeddings
//
// The search tools never fail because the embedding backend is down or
// unconfigured. The vector signal is attempted per call and dropped on
// error, leaving pure BM25 ranking. get_status reports whether the backend
// is ready.
//
// # Errors
//
// Tool failures map to JSON-RPC error codes: -32602 for invalid parameters,
// -32001 for missing entities, -32004 for an empty query, -32005 when a
// vault tool is called without a configured vault, -32603 for everything
// else.
package mcp
