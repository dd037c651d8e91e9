package quill

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrNotFound is returned when a post, category, tag or page does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed input: bad filter parameters, an empty
	// search query, an invalid post payload.
	ErrValidation = errors.New("validation failed")

	// ErrPersistence marks a storage operation that did not complete.
	ErrPersistence = errors.New("persistence failure")

	// ErrRateLimited is returned when an anonymous caller exceeds its budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrForbidden is returned for unsafe requests without an identity.
	ErrForbidden = errors.New("authentication required")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	}
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a not found error for entity with the given id.
func NewNotFoundError(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// ValidationError carries one message per offending field.
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
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// wrapDB classifies a database/sql error for op. sql.ErrNoRows becomes a
// NotFoundError for entity; anything else is a PersistenceError.
func wrapDB(op, entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFoundError(entity, id)
	}
	return &PersistenceError{Op: op, Err: err}
}
