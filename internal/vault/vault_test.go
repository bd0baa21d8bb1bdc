package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

func newTestSyncer(t *testing.T) (*Syncer, store.Store, string) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	s, err := New(st, Config{Dir: dir})
	require.NoError(t, err)
	return s, st, dir
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(nil, Config{})
	assert.Error(t, err)
}

func TestExportWritesNotes(t *testing.T) {
	s, st, dir := newTestSyncer(t)
	ctx := context.Background()

	task := &types.Task{Title: "Ship v2", Description: "Cut the release branch", Tags: []string{"release"}}
	require.NoError(t, st.CreateTask(ctx, task))
	doc := &types.Doc{Title: "Runbook", Content: "# Steps\n\n1. Breathe", Source: "wiki"}
	require.NoError(t, st.CreateDoc(ctx, doc))

	stats, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ExportStats{Tasks: 1, Docs: 1}, stats)

	data, err := os.ReadFile(filepath.Join(dir, TasksDir, task.ID+".md"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "---\n"))
	assert.Contains(t, text, "title: Ship v2")
	assert.Contains(t, text, "status: pending")
	assert.Contains(t, text, "Cut the release branch")

	data, err = os.ReadFile(filepath.Join(dir, KnowledgeDir, doc.ID+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "source: wiki")
	assert.Contains(t, string(data), "# Steps")
}

func TestExportSkipsTrashed(t *testing.T) {
	s, st, dir := newTestSyncer(t)
	ctx := context.Background()

	task := &types.Task{Title: "gone"}
	require.NoError(t, st.CreateTask(ctx, task))
	require.NoError(t, st.TrashTask(ctx, task.ID))

	stats, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Tasks)

	_, err = os.Stat(filepath.Join(dir, TasksDir, task.ID+".md"))
	assert.True(t, os.IsNotExist(err))
}

func TestExportImportRoundTrip(t *testing.T) {
	s, st, _ := newTestSyncer(t)
	ctx := context.Background()

	task := &types.Task{
		Title:       "Round trip",
		Description: "Body survives\nacross lines",
		Status:      types.TaskInProgress,
		Priority:    types.PriorityHigh,
		Tags:        []string{"sync", "vault"},
	}
	require.NoError(t, st.CreateTask(ctx, task))
	doc := &types.Doc{Title: "Note", Content: "Content here.", Tags: []string{"ref"}}
	require.NoError(t, st.CreateDoc(ctx, doc))

	_, err := s.Export(ctx)
	require.NoError(t, err)

	// Wipe the store and rebuild it from the vault.
	require.NoError(t, st.TrashTask(ctx, task.ID))
	require.NoError(t, st.PurgeTask(ctx, task.ID))
	require.NoError(t, st.TrashDoc(ctx, doc.ID))
	require.NoError(t, st.PurgeDoc(ctx, doc.ID))

	stats, err := s.Import(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Tasks)
	assert.Equal(t, 1, stats.Docs)
	assert.Equal(t, 0, stats.Skipped)

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Round trip", got.Title)
	assert.Equal(t, "Body survives\nacross lines", got.Description)
	assert.Equal(t, types.TaskInProgress, got.Status)
	assert.Equal(t, types.PriorityHigh, got.Priority)
	assert.Equal(t, []string{"sync", "vault"}, got.Tags)

	gotDoc, err := st.GetDoc(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Content here.", gotDoc.Content)
}

func TestImportRevivesTrashed(t *testing.T) {
	s, st, _ := newTestSyncer(t)
	ctx := context.Background()

	task := &types.Task{Title: "revive me"}
	require.NoError(t, st.CreateTask(ctx, task))
	_, err := s.Export(ctx)
	require.NoError(t, err)

	require.NoError(t, st.TrashTask(ctx, task.ID))

	_, err = s.Import(ctx, false)
	require.NoError(t, err)

	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Trashed())
}

func TestImportHandwrittenNote(t *testing.T) {
	s, st, dir := newTestSyncer(t)
	ctx := context.Background()

	// A note created by hand in Obsidian: no id in the frontmatter, so the
	// file name becomes the identity.
	note := "---\ntitle: Meeting notes\ntags: [meetings]\n---\n\nDiscussed the roadmap.\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, KnowledgeDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, KnowledgeDir, "meeting-2026-08.md"), []byte(note), 0o644))

	stats, err := s.Import(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Docs)

	got, err := st.GetDoc(ctx, "meeting-2026-08")
	require.NoError(t, err)
	assert.Equal(t, "Meeting notes", got.Title)
	assert.Equal(t, "Discussed the roadmap.", got.Content)
	assert.Equal(t, []string{"meetings"}, got.Tags)
}

func TestImportSkipsMalformedNotes(t *testing.T) {
	s, st, dir := newTestSyncer(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, TasksDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksDir, "broken.md"), []byte("no frontmatter here"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, TasksDir, "untitled.md"), []byte("---\nid: x\n---\n"), 0o644))

	stats, err := s.Import(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Tasks)
	assert.Equal(t, 2, stats.Skipped)

	tasks, err := st.ListTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestImportReplaceTrashesMissing(t *testing.T) {
	s, st, dir := newTestSyncer(t)
	ctx := context.Background()

	kept := &types.Task{Title: "kept"}
	dropped := &types.Task{Title: "dropped"}
	require.NoError(t, st.CreateTask(ctx, kept))
	require.NoError(t, st.CreateTask(ctx, dropped))

	_, err := s.Export(ctx)
	require.NoError(t, err)

	// Simulate deleting a note in Obsidian.
	require.NoError(t, os.Remove(filepath.Join(dir, TasksDir, dropped.ID+".md")))

	stats, err := s.Import(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Tasks)
	assert.Equal(t, 1, stats.Trashed)

	_, err = st.GetTask(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = st.GetTask(ctx, dropped.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportEmptyVault(t *testing.T) {
	s, _, _ := newTestSyncer(t)

	stats, err := s.Import(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, &ImportStats{}, stats)
}

func TestNoteRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	fm := &frontmatter{
		ID:      "abc",
		Title:   "A note",
		Tags:    []string{"one", "two"},
		Created: created,
	}

	data, err := renderNote(fm, "Body text.")
	require.NoError(t, err)

	got, body, err := parseNote(data)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "A note", got.Title)
	assert.Equal(t, []string{"one", "two"}, got.Tags)
	assert.True(t, got.Created.Equal(created))
	assert.Equal(t, "Body text.", body)
}

func TestParseNoteErrors(t *testing.T) {
	_, _, err := parseNote([]byte("plain markdown"))
	assert.ErrorIs(t, err, errNoFrontmatter)

	_, _, err = parseNote([]byte("---\nid: unclosed\n"))
	assert.ErrorIs(t, err, errNoFrontmatter)

	_, _, err = parseNote([]byte("---\n\t: bad yaml\n---\n"))
	assert.Error(t, err)
}

func TestRenderNoteEmptyBody(t *testing.T) {
	data, err := renderNote(&frontmatter{ID: "x", Title: "t"}, "")
	require.NoError(t, err)

	_, body, err := parseNote(data)
	require.NoError(t, err)
	assert.Equal(t, "", body)
}
