package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedcache"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/embedding"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/internal/vault"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg := embedding.Config{
		Mode:     embedding.ModeLocal,
		Model:    embedding.DefaultLocalModel,
		Dims:     64,
		CacheDir: t.TempDir(),
	}
	cache := embedcache.New(embedcache.Config{Dir: cfg.CacheDir})
	adapter := embedding.NewAdapter(cfg, embedding.NewLocalBackend(cfg.Model, cfg.Dims), cache, nil)
	adapter.Init(context.Background())
	require.True(t, adapter.Ready())

	syncer, err := vault.New(st, vault.Config{Dir: t.TempDir()})
	require.NoError(t, err)

	srv, err := NewServer(Config{Store: st, Adapter: adapter, Vault: syncer})
	require.NoError(t, err)
	return srv
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args != nil {
		req.Params.Arguments = args
	}
	return req
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &out))
	return out
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	var merr *MCPError
	require.ErrorAs(t, err, &merr)
	return merr.Code
}

func TestNewServerRequiresStore(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestTaskToolFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	// Create.
	res, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{
		"title":    "Ship the release",
		"priority": "high",
		"tags":     []interface{}{"release", "urgent"},
	}))
	require.NoError(t, err)
	created := resultJSON(t, res)["task"].(map[string]interface{})
	id := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "high", created["priority"])

	// Get.
	res, err = s.handleTaskGet(ctx, callRequest(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	got := resultJSON(t, res)["task"].(map[string]interface{})
	assert.Equal(t, "Ship the release", got["title"])

	// Partial update leaves other fields alone.
	res, err = s.handleTaskUpdate(ctx, callRequest(map[string]interface{}{
		"id":     id,
		"status": "in_progress",
	}))
	require.NoError(t, err)
	updated := resultJSON(t, res)["task"].(map[string]interface{})
	assert.Equal(t, "in_progress", updated["status"])
	assert.Equal(t, "Ship the release", updated["title"])

	// Soft delete hides the task.
	res, err = s.handleTaskDelete(ctx, callRequest(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, true, resultJSON(t, res)["deleted"])

	_, err = s.handleTaskGet(ctx, callRequest(map[string]interface{}{"id": id}))
	assert.Equal(t, ErrorCodeNotFound, errorCode(t, err))

	// Restore brings it back.
	res, err = s.handleTaskRestore(ctx, callRequest(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	restored := resultJSON(t, res)["task"].(map[string]interface{})
	assert.Equal(t, id, restored["id"])

	// List sees it again.
	res, err = s.handleTaskList(ctx, callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resultJSON(t, res)["count"])
}

func TestTaskToolValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{}))
	assert.Equal(t, ErrorCodeInvalidParams, errorCode(t, err))

	_, err = s.handleTaskCreate(ctx, callRequest(map[string]interface{}{
		"title":  "x",
		"status": "bogus",
	}))
	assert.Equal(t, ErrorCodeInvalidParams, errorCode(t, err))

	_, err = s.handleTaskList(ctx, callRequest(map[string]interface{}{"status": "bogus"}))
	assert.Equal(t, ErrorCodeInvalidParams, errorCode(t, err))
}

func TestTaskDeletePurge(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{"title": "doomed"}))
	require.NoError(t, err)
	id := resultJSON(t, res)["task"].(map[string]interface{})["id"].(string)

	_, err = s.handleTaskDelete(ctx, callRequest(map[string]interface{}{"id": id, "purge": true}))
	require.NoError(t, err)

	// Purged rows cannot be restored.
	_, err = s.handleTaskRestore(ctx, callRequest(map[string]interface{}{"id": id}))
	assert.Equal(t, ErrorCodeNotFound, errorCode(t, err))
}

func TestKnowledgeToolFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleKnowledgeCreate(ctx, callRequest(map[string]interface{}{
		"title":   "Deploy runbook",
		"content": "Step one: build. Step two: deploy.",
		"source":  "wiki",
	}))
	require.NoError(t, err)
	id := resultJSON(t, res)["doc"].(map[string]interface{})["id"].(string)

	res, err = s.handleKnowledgeUpdate(ctx, callRequest(map[string]interface{}{
		"id":   id,
		"tags": []interface{}{"ops"},
	}))
	require.NoError(t, err)
	doc := resultJSON(t, res)["doc"].(map[string]interface{})
	assert.Equal(t, "Deploy runbook", doc["title"])

	res, err = s.handleKnowledgeList(ctx, callRequest(map[string]interface{}{"tag": "ops"}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resultJSON(t, res)["count"])

	_, err = s.handleKnowledgeDelete(ctx, callRequest(map[string]interface{}{"id": id}))
	require.NoError(t, err)
	_, err = s.handleKnowledgeGet(ctx, callRequest(map[string]interface{}{"id": id}))
	assert.Equal(t, ErrorCodeNotFound, errorCode(t, err))
}

func TestTaskSearchRanksRelevant(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	for _, title := range []string{
		"Fix login redirect bug",
		"Write onboarding docs",
		"Refactor billing pipeline",
	} {
		_, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{"title": title}))
		require.NoError(t, err)
	}

	res, err := s.handleTaskSearch(ctx, callRequest(map[string]interface{}{"query": "login bug"}))
	require.NoError(t, err)
	out := resultJSON(t, res)
	results := out["results"].([]interface{})
	require.NotEmpty(t, results)
	top := results[0].(map[string]interface{})["task"].(map[string]interface{})
	assert.Equal(t, "Fix login redirect bug", top["title"])
}

func TestKnowledgeSearchRanksRelevant(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	docs := map[string]string{
		"Postgres tuning":  "Vacuum settings and query planner statistics for postgres.",
		"Kafka operations": "Partition rebalancing and consumer group lag monitoring.",
		"Office plants":    "Watering schedule for the ficus by the window.",
	}
	for title, content := range docs {
		_, err := s.handleKnowledgeCreate(ctx, callRequest(map[string]interface{}{
			"title":   title,
			"content": content,
		}))
		require.NoError(t, err)
	}

	res, err := s.handleKnowledgeSearch(ctx, callRequest(map[string]interface{}{"query": "postgres query planner"}))
	require.NoError(t, err)
	results := resultJSON(t, res)["results"].([]interface{})
	require.NotEmpty(t, results)
	top := results[0].(map[string]interface{})["doc"].(map[string]interface{})
	assert.Equal(t, "Postgres tuning", top["title"])
}

func TestSearchValidation(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleTaskSearch(ctx, callRequest(map[string]interface{}{}))
	assert.Equal(t, ErrorCodeEmptyQuery, errorCode(t, err))

	_, err = s.handleKnowledgeSearch(ctx, callRequest(map[string]interface{}{
		"query": "x",
		"limit": float64(500),
	}))
	assert.Equal(t, ErrorCodeInvalidParams, errorCode(t, err))
}

func TestSearchWithoutAdapter(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewServer(Config{Store: st})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.handleTaskCreate(ctx, callRequest(map[string]interface{}{"title": "lexical only"}))
	require.NoError(t, err)

	res, err := s.handleTaskSearch(ctx, callRequest(map[string]interface{}{"query": "lexical"}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resultJSON(t, res)["count"])
}

func TestVaultTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{"title": "sync me"}))
	require.NoError(t, err)

	res, err := s.handleVaultExport(ctx, callRequest(nil))
	require.NoError(t, err)
	out := resultJSON(t, res)
	assert.Equal(t, true, out["exported"])
	assert.Equal(t, float64(1), out["tasks"])

	res, err = s.handleVaultImport(ctx, callRequest(map[string]interface{}{"replace": true}))
	require.NoError(t, err)
	out = resultJSON(t, res)
	assert.Equal(t, true, out["imported"])
	assert.Equal(t, float64(1), out["tasks"])
	assert.Equal(t, float64(0), out["trashed"])
}

func TestVaultToolsWithoutVault(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	s, err := NewServer(Config{Store: st})
	require.NoError(t, err)

	_, err = s.handleVaultExport(context.Background(), callRequest(nil))
	assert.Equal(t, ErrorCodeNoVault, errorCode(t, err))
	_, err = s.handleVaultImport(context.Background(), callRequest(nil))
	assert.Equal(t, ErrorCodeNoVault, errorCode(t, err))
}

func TestGetStatus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleTaskCreate(ctx, callRequest(map[string]interface{}{"title": "counted"}))
	require.NoError(t, err)

	res, err := s.handleGetStatus(ctx, callRequest(nil))
	require.NoError(t, err)
	out := resultJSON(t, res)

	storeStats := out["store"].(map[string]interface{})
	assert.Equal(t, float64(1), storeStats["tasks"])

	embeddings := out["embeddings"].(map[string]interface{})
	assert.Equal(t, true, embeddings["ready"])

	vaultInfo := out["vault"].(map[string]interface{})
	assert.Equal(t, true, vaultInfo["configured"])
}
