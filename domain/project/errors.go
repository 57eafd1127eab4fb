package project

import "errors"

var (
	ErrAlreadyExists  = errors.New("project already exists")
	ErrNotFound       = errors.New("project not found")
	ErrAccessDenied   = errors.New("project access denied")
	ErrInvalid        = errors.New("invalid project")
	ErrEmptyUpdate    = errors.New("update has no fields")
	ErrImmutableField = errors.New("field cannot be updated")
)
