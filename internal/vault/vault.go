package vault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

const (
	// TasksDir is the vault subdirectory holding task notes
	TasksDir = "tasks"
	// KnowledgeDir is the vault subdirectory holding knowledge notes
	KnowledgeDir = "knowledge"

	// DefaultWorkers bounds concurrent file IO during sync
	DefaultWorkers = 8

	noteExt = ".md"
)

// Config contains configuration for the vault syncer
type Config struct {
	Dir     string       // Vault root directory (required)
	Workers int          // Concurrent file operations (default: DefaultWorkers)
	Logger  *slog.Logger // Defaults to slog.Default()
}

// Syncer mirrors the store into an Obsidian vault and back. Notes live under
// <dir>/tasks and <dir>/knowledge as markdown files with YAML frontmatter,
// named <id>.md.
type Syncer struct {
	store   store.Store
	dir     string
	workers int
	log     *slog.Logger
}

// ExportStats reports what an Export wrote
type ExportStats struct {
	Tasks int `json:"tasks"`
	Docs  int `json:"docs"`
}

// ImportStats reports what an Import read
type ImportStats struct {
	Tasks   int `json:"tasks"`
	Docs    int `json:"docs"`
	Skipped int `json:"skipped"`
	Trashed int `json:"trashed"`
}

// New creates a vault syncer rooted at cfg.Dir.
func New(st store.Store, cfg Config) (*Syncer, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("vault directory is required")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{store: st, dir: cfg.Dir, workers: workers, log: log}, nil
}

// Export writes every live task and knowledge document to the vault,
// overwriting notes that already exist. Trashed entities are not exported.
func (s *Syncer) Export(ctx context.Context) (*ExportStats, error) {
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	docs, err := s.store.ListDocs(ctx, store.DocFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list docs: %w", err)
	}

	for _, sub := range []string{TasksDir, KnowledgeDir} {
		if err := os.MkdirAll(filepath.Join(s.dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	var wroteTasks, wroteDocs atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.writeTaskNote(task); err != nil {
				return err
			}
			wroteTasks.Add(1)
			return nil
		})
	}
	for _, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.writeDocNote(doc); err != nil {
				return err
			}
			wroteDocs.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &ExportStats{Tasks: int(wroteTasks.Load()), Docs: int(wroteDocs.Load())}
	s.log.Info("vault export complete", "dir", s.dir, "tasks", stats.Tasks, "docs", stats.Docs)
	return stats, nil
}

// Import reads every note in the vault and upserts it into the store.
// Upserting revives trashed entities, so the vault wins over the trash. When
// replace is true, live store entities with no corresponding note are trashed
// after the import.
func (s *Syncer) Import(ctx context.Context, replace bool) (*ImportStats, error) {
	taskNotes, err := listNotes(filepath.Join(s.dir, TasksDir))
	if err != nil {
		return nil, err
	}
	docNotes, err := listNotes(filepath.Join(s.dir, KnowledgeDir))
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{}
	var tasksImported, docsImported, skipped atomic.Int64

	// Note ids seen during the import, used by replace mode.
	var mu sync.Mutex
	seenTasks := make(map[string]bool)
	seenDocs := make(map[string]bool)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, path := range taskNotes {
		g.Go(func() error {
			task, err := s.readTaskNote(path)
			if err != nil {
				s.log.Warn("skipping unreadable task note", "path", path, "error", err)
				skipped.Add(1)
				return nil
			}
			if err := s.store.UpsertTask(gctx, task); err != nil {
				s.log.Warn("skipping task note", "path", path, "error", err)
				skipped.Add(1)
				return nil
			}
			mu.Lock()
			seenTasks[task.ID] = true
			mu.Unlock()
			tasksImported.Add(1)
			return nil
		})
	}
	for _, path := range docNotes {
		g.Go(func() error {
			doc, err := s.readDocNote(path)
			if err != nil {
				s.log.Warn("skipping unreadable knowledge note", "path", path, "error", err)
				skipped.Add(1)
				return nil
			}
			if err := s.store.UpsertDoc(gctx, doc); err != nil {
				s.log.Warn("skipping knowledge note", "path", path, "error", err)
				skipped.Add(1)
				return nil
			}
			mu.Lock()
			seenDocs[doc.ID] = true
			mu.Unlock()
			docsImported.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Tasks = int(tasksImported.Load())
	stats.Docs = int(docsImported.Load())
	stats.Skipped = int(skipped.Load())

	if replace {
		trashed, err := s.trashMissing(ctx, seenTasks, seenDocs)
		if err != nil {
			return nil, err
		}
		stats.Trashed = trashed
	}

	s.log.Info("vault import complete",
		"dir", s.dir, "tasks", stats.Tasks, "docs", stats.Docs,
		"skipped", stats.Skipped, "trashed", stats.Trashed)
	return stats, nil
}

// trashMissing soft-deletes live store entities that have no note in the
// vault. Already trashed entities are left alone.
func (s *Syncer) trashMissing(ctx context.Context, seenTasks, seenDocs map[string]bool) (int, error) {
	trashed := 0

	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	for _, task := range tasks {
		if seenTasks[task.ID] {
			continue
		}
		if err := s.store.TrashTask(ctx, task.ID); err != nil {
			return trashed, fmt.Errorf("failed to trash task %s: %w", task.ID, err)
		}
		trashed++
	}

	docs, err := s.store.ListDocs(ctx, store.DocFilter{})
	if err != nil {
		return trashed, fmt.Errorf("failed to list docs: %w", err)
	}
	for _, doc := range docs {
		if seenDocs[doc.ID] {
			continue
		}
		if err := s.store.TrashDoc(ctx, doc.ID); err != nil {
			return trashed, fmt.Errorf("failed to trash doc %s: %w", doc.ID, err)
		}
		trashed++
	}

	return trashed, nil
}

func (s *Syncer) writeTaskNote(task *types.Task) error {
	fm := &frontmatter{
		ID:       task.ID,
		Type:     "task",
		Title:    task.Title,
		Tags:     task.Tags,
		Status:   string(task.Status),
		Priority: string(task.Priority),
		Parent:   task.ParentID,
		Created:  task.CreatedAt,
		Updated:  task.UpdatedAt,
	}
	return s.writeNote(filepath.Join(s.dir, TasksDir, task.ID+noteExt), fm, task.Description)
}

func (s *Syncer) writeDocNote(doc *types.Doc) error {
	fm := &frontmatter{
		ID:      doc.ID,
		Type:    "knowledge",
		Title:   doc.Title,
		Tags:    doc.Tags,
		Source:  doc.Source,
		Created: doc.CreatedAt,
		Updated: doc.UpdatedAt,
	}
	return s.writeNote(filepath.Join(s.dir, KnowledgeDir, doc.ID+noteExt), fm, doc.Content)
}

func (s *Syncer) writeNote(path string, fm *frontmatter, body string) error {
	data, err := renderNote(fm, body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write note %s: %w", path, err)
	}
	return nil
}

func (s *Syncer) readTaskNote(path string) (*types.Task, error) {
	fm, body, err := readNote(path)
	if err != nil {
		return nil, err
	}
	return &types.Task{
		ID:          noteID(fm, path),
		Title:       fm.Title,
		Description: body,
		Status:      types.TaskStatus(fm.Status),
		Priority:    types.TaskPriority(fm.Priority),
		Tags:        fm.Tags,
		ParentID:    fm.Parent,
		CreatedAt:   fm.Created,
	}, nil
}

func (s *Syncer) readDocNote(path string) (*types.Doc, error) {
	fm, body, err := readNote(path)
	if err != nil {
		return nil, err
	}
	return &types.Doc{
		ID:        noteID(fm, path),
		Title:     fm.Title,
		Content:   body,
		Tags:      fm.Tags,
		Source:    fm.Source,
		CreatedAt: fm.Created,
	}, nil
}

func readNote(path string) (*frontmatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read note: %w", err)
	}
	return parseNote(data)
}

// noteID prefers the frontmatter id and falls back to the file name, so notes
// created by hand in Obsidian keep a stable identity across imports.
func noteID(fm *frontmatter, path string) string {
	if fm.ID != "" {
		return fm.ID
	}
	return strings.TrimSuffix(filepath.Base(path), noteExt)
}

// listNotes returns the .md files directly under dir. A missing directory is
// treated as empty.
func listNotes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault directory %s: %w", dir, err)
	}

	var notes []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), noteExt) {
			continue
		}
		notes = append(notes, filepath.Join(dir, e.Name()))
	}
	return notes, nil
}
