package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Task operations

func (s *SQLiteStore) CreateTask(ctx context.Context, task *types.Task) error {
	if task.Status == "" {
		task.Status = types.TaskPending
	}
	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `
		INSERT INTO tasks (id, title, description, status, priority, tags, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		encodeTags(task.Tags), nullString(task.ParentID), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("task %s: %w", task.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, tags, parent_id, created_at, updated_at, deleted_at
		FROM tasks WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanTask(row)
}

func (s *SQLiteStore) UpdateTask(ctx context.Context, task *types.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, tags = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, task.Title, task.Description, string(task.Status), string(task.Priority),
		encodeTags(task.Tags), nullString(task.ParentID), now, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}
	task.UpdatedAt = now
	return nil
}

// UpsertTask inserts or fully replaces a task by id, reviving a trashed row.
// Used by vault import, where the vault copy wins.
func (s *SQLiteStore) UpsertTask(ctx context.Context, task *types.Task) error {
	if task.Status == "" {
		task.Status = types.TaskPending
	}
	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, tags, parent_id, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			tags = excluded.tags,
			parent_id = excluded.parent_id,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`, task.ID, task.Title, task.Description, string(task.Status), string(task.Priority),
		encodeTags(task.Tags), nullString(task.ParentID), task.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TrashTask(ctx context.Context, id string) error {
	return s.trash(ctx, "tasks", id)
}

func (s *SQLiteStore) RestoreTask(ctx context.Context, id string) error {
	return s.restore(ctx, "tasks", id)
}

func (s *SQLiteStore) PurgeTask(ctx context.Context, id string) error {
	return s.purge(ctx, "tasks", id)
}

func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, error) {
	query := `
		SELECT id, title, description, status, priority, tags, parent_id, created_at, updated_at, deleted_at
		FROM tasks
	`
	var conds []string
	var args []interface{}

	if !filter.IncludeTrashed {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ParentID != "" {
		conds = append(conds, "parent_id = ?")
		args = append(args, filter.ParentID)
	}
	if filter.Tag != "" {
		conds = append(conds, "tags LIKE ?")
		args = append(args, tagPattern(filter.Tag))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Knowledge document operations

func (s *SQLiteStore) CreateDoc(ctx context.Context, doc *types.Doc) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (id, title, content, tags, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Content, encodeTags(doc.Tags), nullString(doc.Source), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("doc %s: %w", doc.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create doc: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDoc(ctx context.Context, id string) (*types.Doc, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, tags, source, created_at, updated_at, deleted_at
		FROM docs WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanDoc(row)
}

func (s *SQLiteStore) UpdateDoc(ctx context.Context, doc *types.Doc) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE docs SET title = ?, content = ?, tags = ?, source = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, doc.Title, doc.Content, encodeTags(doc.Tags), nullString(doc.Source), now, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update doc: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("doc %s: %w", doc.ID, ErrNotFound)
	}
	doc.UpdatedAt = now
	return nil
}

// UpsertDoc inserts or fully replaces a document by id, reviving a trashed
// row. Used by vault import, where the vault copy wins.
func (s *SQLiteStore) UpsertDoc(ctx context.Context, doc *types.Doc) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO docs (id, title, content, tags, source, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			source = excluded.source,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`, doc.ID, doc.Title, doc.Content, encodeTags(doc.Tags), nullString(doc.Source), doc.CreatedAt, now)
	if err != nil {
		return fmt.Errorf("failed to upsert doc: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TrashDoc(ctx context.Context, id string) error {
	return s.trash(ctx, "docs", id)
}

func (s *SQLiteStore) RestoreDoc(ctx context.Context, id string) error {
	return s.restore(ctx, "docs", id)
}

func (s *SQLiteStore) PurgeDoc(ctx context.Context, id string) error {
	return s.purge(ctx, "docs", id)
}

func (s *SQLiteStore) ListDocs(ctx context.Context, filter DocFilter) ([]*types.Doc, error) {
	query := `
		SELECT id, title, content, tags, source, created_at, updated_at, deleted_at
		FROM docs
	`
	var conds []string
	var args []interface{}

	if !filter.IncludeTrashed {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Tag != "" {
		conds = append(conds, "tags LIKE ?")
		args = append(args, tagPattern(filter.Tag))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list docs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*types.Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Status operations

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	queries := []struct {
		dst   *int
		query string
	}{
		{&stats.Tasks, "SELECT COUNT(*) FROM tasks WHERE deleted_at IS NULL"},
		{&stats.TasksTrashed, "SELECT COUNT(*) FROM tasks WHERE deleted_at IS NOT NULL"},
		{&stats.Docs, "SELECT COUNT(*) FROM docs WHERE deleted_at IS NULL"},
		{&stats.DocsTrashed, "SELECT COUNT(*) FROM docs WHERE deleted_at IS NOT NULL"},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("failed to collect stats: %w", err)
		}
	}
	return stats, nil
}

// Shared soft-delete helpers. The table name is always a compile-time
// constant here, never user input.

func (s *SQLiteStore) trash(ctx context.Context, table, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL", table),
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to trash %s/%s: %w", table, id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) restore(ctx context.Context, table, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL", table),
		now, id)
	if err != nil {
		return fmt.Errorf("failed to restore %s/%s: %w", table, id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) purge(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to purge %s/%s: %w", table, id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%s/%s: %w", table, id, ErrNotFound)
	}
	return nil
}

// Row scanning

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*types.Task, error) {
	var task types.Task
	var status, priority, tags string
	var description, parentID sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(&task.ID, &task.Title, &description, &status, &priority, &tags,
		&parentID, &task.CreatedAt, &task.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	task.Description = description.String
	task.Status = types.TaskStatus(status)
	task.Priority = types.TaskPriority(priority)
	task.Tags = decodeTags(tags)
	task.ParentID = parentID.String
	if deletedAt.Valid {
		t := deletedAt.Time
		task.DeletedAt = &t
	}
	return &task, nil
}

func scanDoc(row rowScanner) (*types.Doc, error) {
	var doc types.Doc
	var tags string
	var content, source sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(&doc.ID, &doc.Title, &content, &tags, &source,
		&doc.CreatedAt, &doc.UpdatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan doc: %w", err)
	}

	doc.Content = content.String
	doc.Tags = decodeTags(tags)
	doc.Source = source.String
	if deletedAt.Valid {
		t := deletedAt.Time
		doc.DeletedAt = &t
	}
	return &doc, nil
}

// Tags are stored as a JSON array in a TEXT column.

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeTags(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}
	return tags
}

// tagPattern matches a tag inside the stored JSON array text.
func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE")
}
