package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("post not found")
	ErrConflict          = errors.New("a post with this slug already exists")
	ErrUpload            = errors.New("image upload failed")
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrForbidden         = errors.New("not allowed")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
