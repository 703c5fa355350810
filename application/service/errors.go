// Package service contains the application services coordinating embedding
// generation, semantic search, fallback matching, and status reporting.
package service

import (
	"errors"
	"fmt"

	"github.com/snapvec/snapvec/domain/embedding"
)

// Sentinel errors for invalid requests.
var (
	ErrEmptyQuery = errors.New("query must not be empty")
	ErrEmptyBatch = errors.New("batch must name at least one entity")
)

// ValidationError indicates a request failed input validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// EntityNotFoundError indicates the referenced media entity does not exist.
type EntityNotFoundError struct {
	Ref embedding.EntityRef
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %s not found", e.Ref)
}

// NewEntityNotFoundError creates an EntityNotFoundError.
func NewEntityNotFoundError(ref embedding.EntityRef) *EntityNotFoundError {
	return &EntityNotFoundError{Ref: ref}
}

// GenerationError indicates embedding generation failed for an entity.
type GenerationError struct {
	Ref embedding.EntityRef
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate embedding for %s: %v", e.Ref, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError creates a GenerationError.
func NewGenerationError(ref embedding.EntityRef, err error) *GenerationError {
	return &GenerationError{Ref: ref, Err: err}
}
