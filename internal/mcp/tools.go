package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound      = -32001 // Entity does not exist or is trashed
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
	ErrorCodeNoVault       = -32005 // No vault directory configured
)

// Task tools

// handleTaskCreate handles the task_create tool invocation
func (s *Server) handleTaskCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}

	task := &types.Task{
		Title:       title,
		Description: getStringDefault(args, "description", ""),
		Status:      types.TaskStatus(getStringDefault(args, "status", "")),
		Priority:    types.TaskPriority(getStringDefault(args, "priority", "")),
		Tags:        getStringSlice(args, "tags"),
		ParentID:    getStringDefault(args, "parent_id", ""),
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, storeError("task_create", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"task": task})), nil
}

// handleTaskGet handles the task_get tool invocation
func (s *Server) handleTaskGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeError("task_get", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"task": task})), nil
}

// handleTaskUpdate handles the task_update tool invocation. Only the fields
// present in the arguments are changed.
func (s *Server) handleTaskUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeError("task_update", err)
	}

	if v, ok := args["title"].(string); ok {
		task.Title = v
	}
	if v, ok := args["description"].(string); ok {
		task.Description = v
	}
	if v, ok := args["status"].(string); ok {
		task.Status = types.TaskStatus(v)
	}
	if v, ok := args["priority"].(string); ok {
		task.Priority = types.TaskPriority(v)
	}
	if v, ok := args["parent_id"].(string); ok {
		task.ParentID = v
	}
	if _, ok := args["tags"]; ok {
		task.Tags = getStringSlice(args, "tags")
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, storeError("task_update", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"task": task})), nil
}

// handleTaskDelete handles the task_delete tool invocation. Deletion is soft
// unless purge is set.
func (s *Server) handleTaskDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}
	purge := getBoolDefault(args, "purge", false)

	if purge {
		err = s.store.PurgeTask(ctx, id)
	} else {
		err = s.store.TrashTask(ctx, id)
	}
	if err != nil {
		return nil, storeError("task_delete", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": true,
		"purged":  purge,
		"id":      id,
	})), nil
}

// handleTaskRestore handles the task_restore tool invocation
func (s *Server) handleTaskRestore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	if err := s.store.RestoreTask(ctx, id); err != nil {
		return nil, storeError("task_restore", err)
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeError("task_restore", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"task": task})), nil
}

// handleTaskList handles the task_list tool invocation
func (s *Server) handleTaskList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}

	filter := store.TaskFilter{
		Status:         types.TaskStatus(getStringDefault(args, "status", "")),
		Tag:            getStringDefault(args, "tag", ""),
		ParentID:       getStringDefault(args, "parent_id", ""),
		IncludeTrashed: getBoolDefault(args, "include_trashed", false),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid status filter", map[string]interface{}{
			"param": "status",
			"value": string(filter.Status),
		})
	}

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeError("task_list", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})), nil
}

// Knowledge tools

// handleKnowledgeCreate handles the knowledge_create tool invocation
func (s *Server) handleKnowledgeCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}

	doc := &types.Doc{
		Title:   title,
		Content: getStringDefault(args, "content", ""),
		Tags:    getStringSlice(args, "tags"),
		Source:  getStringDefault(args, "source", ""),
	}
	if err := s.store.CreateDoc(ctx, doc); err != nil {
		return nil, storeError("knowledge_create", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"doc": doc})), nil
}

// handleKnowledgeGet handles the knowledge_get tool invocation
func (s *Server) handleKnowledgeGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	doc, err := s.store.GetDoc(ctx, id)
	if err != nil {
		return nil, storeError("knowledge_get", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"doc": doc})), nil
}

// handleKnowledgeUpdate handles the knowledge_update tool invocation. Only
// the fields present in the arguments are changed.
func (s *Server) handleKnowledgeUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}

	doc, err := s.store.GetDoc(ctx, id)
	if err != nil {
		return nil, storeError("knowledge_update", err)
	}

	if v, ok := args["title"].(string); ok {
		doc.Title = v
	}
	if v, ok := args["content"].(string); ok {
		doc.Content = v
	}
	if v, ok := args["source"].(string); ok {
		doc.Source = v
	}
	if _, ok := args["tags"]; ok {
		doc.Tags = getStringSlice(args, "tags")
	}

	if err := s.store.UpdateDoc(ctx, doc); err != nil {
		return nil, storeError("knowledge_update", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{"doc": doc})), nil
}

// handleKnowledgeDelete handles the knowledge_delete tool invocation.
// Deletion is soft unless purge is set.
func (s *Server) handleKnowledgeDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return nil, err
	}
	purge := getBoolDefault(args, "purge", false)

	if purge {
		err = s.store.PurgeDoc(ctx, id)
	} else {
		err = s.store.TrashDoc(ctx, id)
	}
	if err != nil {
		return nil, storeError("knowledge_delete", err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": true,
		"purged":  purge,
		"id":      id,
	})), nil
}

// handleKnowledgeList handles the knowledge_list tool invocation
func (s *Server) handleKnowledgeList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := requireArgs(request)
	if err != nil {
		return nil, err
	}

	filter := store.DocFilter{
		Tag:            getStringDefault(args, "tag", ""),
		Source:         getStringDefault(args, "source", ""),
		IncludeTrashed: getBoolDefault(args, "include_trashed", false),
	}

	docs, err := s.store.ListDocs(ctx, filter)
	if err != nil {
		return nil, storeError("knowledge_list", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"docs":  docs,
		"count": len(docs),
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// storeError maps store and validation failures to MCP error codes.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, op+": not found", nil)
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, types.ErrEmptyTitle),
		errors.Is(err, types.ErrInvalidStatus),
		errors.Is(err, types.ErrInvalidPriority):
		return newMCPError(ErrorCodeInvalidParams, op+": "+err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, op+" failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// requireArgs extracts the arguments object from the request. A request
// without arguments yields an empty map so tools with only optional
// parameters still work.
func requireArgs(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

// requireString extracts a required non-empty string parameter
func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter. Non-string elements are
// dropped.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
