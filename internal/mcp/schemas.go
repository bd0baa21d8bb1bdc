package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Shared schema fragments

func stringProp(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func boolProp(desc string, def bool) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": desc, "default": def}
}

func tagsProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Tags attached to the entity",
		"items":       map[string]interface{}{"type": "string"},
	}
}

func limitProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of results to return (1-100)",
		"default":     defaultSearchLimit,
		"minimum":     1,
		"maximum":     maxSearchLimit,
	}
}

func statusProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Task lifecycle state",
		"enum":        []string{"pending", "in_progress", "done"},
	}
}

func priorityProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Task priority",
		"enum":        []string{"low", "medium", "high"},
	}
}

// Task tool definitions

func taskCreateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_create",
		Description: "Create a task. Status defaults to pending, priority to medium",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title":       stringProp("Task title"),
				"description": stringProp("Free-form task description"),
				"status":      statusProp(),
				"priority":    priorityProp(),
				"tags":        tagsProp(),
				"parent_id":   stringProp("Id of the parent task, for subtasks"),
			},
			Required: []string{"title"},
		},
	}
}

func taskGetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_get",
		Description: "Get a task by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": stringProp("Task id"),
			},
			Required: []string{"id"},
		},
	}
}

func taskUpdateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_update",
		Description: "Update a task. Only the provided fields are changed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":          stringProp("Task id"),
				"title":       stringProp("New title"),
				"description": stringProp("New description"),
				"status":      statusProp(),
				"priority":    priorityProp(),
				"tags":        tagsProp(),
				"parent_id":   stringProp("New parent task id"),
			},
			Required: []string{"id"},
		},
	}
}

func taskDeleteTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_delete",
		Description: "Move a task to the trash, or remove it permanently with purge",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":    stringProp("Task id"),
				"purge": boolProp("If true, delete the row permanently instead of trashing", false),
			},
			Required: []string{"id"},
		},
	}
}

func taskRestoreTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_restore",
		Description: "Restore a trashed task",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": stringProp("Task id"),
			},
			Required: []string{"id"},
		},
	}
}

func taskListTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_list",
		Description: "List tasks, optionally filtered by status, tag or parent",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status":          statusProp(),
				"tag":             stringProp("Only tasks carrying this tag"),
				"parent_id":       stringProp("Only subtasks of this task"),
				"include_trashed": boolProp("Include soft-deleted tasks", false),
			},
		},
	}
}

// Knowledge tool definitions

func knowledgeCreateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_create",
		Description: "Create a knowledge document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"title":   stringProp("Document title"),
				"content": stringProp("Markdown content"),
				"tags":    tagsProp(),
				"source":  stringProp("Where the document came from (e.g. obsidian, web, agent)"),
			},
			Required: []string{"title"},
		},
	}
}

func knowledgeGetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_get",
		Description: "Get a knowledge document by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": stringProp("Document id"),
			},
			Required: []string{"id"},
		},
	}
}

func knowledgeUpdateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_update",
		Description: "Update a knowledge document. Only the provided fields are changed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":      stringProp("Document id"),
				"title":   stringProp("New title"),
				"content": stringProp("New markdown content"),
				"tags":    tagsProp(),
				"source":  stringProp("New source"),
			},
			Required: []string{"id"},
		},
	}
}

func knowledgeDeleteTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_delete",
		Description: "Move a knowledge document to the trash, or remove it permanently with purge",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id":    stringProp("Document id"),
				"purge": boolProp("If true, delete the row permanently instead of trashing", false),
			},
			Required: []string{"id"},
		},
	}
}

func knowledgeListTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_list",
		Description: "List knowledge documents, optionally filtered by tag or source",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tag":             stringProp("Only documents carrying this tag"),
				"source":          stringProp("Only documents from this source"),
				"include_trashed": boolProp("Include soft-deleted documents", false),
			},
		},
	}
}

// Search tool definitions

func taskSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "task_search",
		Description: "Search tasks by natural language query over title, tags and description. Hybrid keyword + semantic ranking; falls back to keyword-only when embeddings are unavailable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": stringProp("Search query (natural language or keywords)"),
				"limit": limitProp(),
			},
			Required: []string{"query"},
		},
	}
}

func knowledgeSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "knowledge_search",
		Description: "Search knowledge documents by natural language query. Long documents are matched chunk by chunk and ranked by their best passage",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": stringProp("Search query (natural language or keywords)"),
				"limit": limitProp(),
			},
			Required: []string{"query"},
		},
	}
}

// Sync and status tool definitions

func vaultExportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "vault_export",
		Description: "Export all live tasks and knowledge documents to the Obsidian vault as markdown notes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func vaultImportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "vault_import",
		Description: "Import notes from the Obsidian vault into the store. With replace, store entities missing from the vault are trashed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"replace": boolProp("Trash store entities that have no note in the vault", false),
			},
		},
	}
}

func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report store statistics, embedding backend readiness and vault configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
