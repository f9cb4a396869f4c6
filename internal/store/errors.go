package store

import "errors"

var (
	ErrNotFound    = errors.New("idea not found")
	ErrInvalidIdea = errors.New("invalid idea")
	ErrDuplicateID = errors.New("idea id already exists")
)
