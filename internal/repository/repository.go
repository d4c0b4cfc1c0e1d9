package repository

import "errors"

// Sentinel errors returned by the repositories. Services translate these to
// the user-facing error taxonomy; the repositories never carry user-facing
// messages themselves.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrDuplicateRoom     = errors.New("room already exists")
)
