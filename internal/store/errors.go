package store

import (
	"errors"
)

var (
	// ErrNotFound unknown job/task/machine reference in an admin operation
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument request-level validation failure
	ErrInvalidArgument = errors.New("invalid argument")
)
