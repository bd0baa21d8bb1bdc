package types

import (
	"strings"
	"time"
)

// TaskStatus tracks a task through its lifecycle
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether the status is one of the known lifecycle states
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// TaskPriority orders tasks for agents deciding what to work on next
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is a known level
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of agent work. Deletion is soft: trashed tasks keep their
// row with DeletedAt set and disappear from default reads until restored or
// purged.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Tags        []string     `json:"tags,omitempty"`
	ParentID    string       `json:"parent_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	DeletedAt   *time.Time   `json:"deleted_at,omitempty"`
}

// Trashed reports whether the task is soft-deleted
func (t *Task) Trashed() bool {
	return t.DeletedAt != nil
}

// SearchText concatenates the lexically searchable fields of the task.
func (t *Task) SearchText() string {
	parts := []string{t.Title}
	if len(t.Tags) > 0 {
		parts = append(parts, strings.Join(t.Tags, " "))
	}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	return strings.Join(parts, "\n")
}

// Validate checks the task's user-supplied fields
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Status != "" && !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.Priority != "" && !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}
