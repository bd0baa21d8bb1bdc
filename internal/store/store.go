package store

import (
	"context"
	"errors"

	"github.com/Desure85/mcp-task-knowledge-sub001/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist or is
	// trashed
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// TaskFilter narrows ListTasks. Zero values mean "no constraint".
type TaskFilter struct {
	Status         types.TaskStatus
	Tag            string
	ParentID       string
	IncludeTrashed bool
}

// DocFilter narrows ListDocs. Zero values mean "no constraint".
type DocFilter struct {
	Tag            string
	Source         string
	IncludeTrashed bool
}

// Stats summarizes store contents for the status tool.
type Stats struct {
	Tasks        int `json:"tasks"`
	TasksTrashed int `json:"tasks_trashed"`
	Docs         int `json:"docs"`
	DocsTrashed  int `json:"docs_trashed"`
}

// Store persists tasks and knowledge documents with soft-delete semantics.
// Trashed entities are invisible to Get and to List (unless IncludeTrashed)
// but keep their rows until purged.
type Store interface {
	// Task operations
	CreateTask(ctx context.Context, task *types.Task) error
	GetTask(ctx context.Context, id string) (*types.Task, error)
	UpdateTask(ctx context.Context, task *types.Task) error
	UpsertTask(ctx context.Context, task *types.Task) error
	TrashTask(ctx context.Context, id string) error
	RestoreTask(ctx context.Context, id string) error
	PurgeTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*types.Task, error)

	// Knowledge document operations
	CreateDoc(ctx context.Context, doc *types.Doc) error
	GetDoc(ctx context.Context, id string) (*types.Doc, error)
	UpdateDoc(ctx context.Context, doc *types.Doc) error
	UpsertDoc(ctx context.Context, doc *types.Doc) error
	TrashDoc(ctx context.Context, id string) error
	RestoreDoc(ctx context.Context, id string) error
	PurgeDoc(ctx context.Context, id string) error
	ListDocs(ctx context.Context, filter DocFilter) ([]*types.Doc, error)

	// Status operations
	GetStats(ctx context.Context) (*Stats, error)

	// Database operations
	Close() error
}
