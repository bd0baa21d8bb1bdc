package types

import (
	"strings"
	"time"
)

// Doc is a knowledge document: long-form text an agent can store, sync with
// an Obsidian vault, and retrieve through search. Deletion is soft, as for
// tasks.
type Doc struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Trashed reports whether the document is soft-deleted
func (d *Doc) Trashed() bool {
	return d.DeletedAt != nil
}

// Validate checks the document's user-supplied fields
func (d *Doc) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}
