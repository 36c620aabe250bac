package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated
	ErrDuplicate = errors.New("record already exists")
	// ErrReopenResolved is returned when a patch tries to clear isResolved
	ErrReopenResolved = errors.New("a resolved threat cannot be reopened")
)
