package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
)
