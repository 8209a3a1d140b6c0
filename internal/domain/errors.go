package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Engines wrap these with context; the boundary layer matches
// them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrSelfTarget        = errors.New("cannot target yourself")
	ErrSelfBan           = fmt.Errorf("%w: cannot ban yourself", ErrSelfTarget)
	ErrDuplicateRequest  = errors.New("a pending request already exists")
	ErrAlreadyFriends    = errors.New("already friends")
	ErrNotMember         = errors.New("user is not a member of this server")
	ErrConflict          = errors.New("record was modified concurrently")
	ErrInvalidCredential = errors.New("invalid credential")
)

// ValidationError carries field-level messages for malformed input.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StoreError is an opaque failure of the backing document store.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
