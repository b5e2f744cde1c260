/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when no document matches the requested key
	ErrNotFound = errors.New("entity not found")

	// ErrStoreFailure is returned when the underlying document store fails
	ErrStoreFailure = errors.New("store operation failed")

	// ErrMalformedResult is returned when a store result is missing or has the wrong shape
	ErrMalformedResult = errors.New("malformed store result")

	// ErrInvalidInput is returned when a pipeline stage or update operator cannot be evaluated
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreError wraps a failure reported by the document store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MalformedResultError represents a store response that could not be reshaped
type MalformedResultError struct {
	Op     string
	Reason string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed result for %s: %s", e.Op, e.Reason)
}

func (e *MalformedResultError) Is(target error) bool {
	return target == ErrMalformedResult
}

// ValidationError represents an input the store cannot evaluate
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewStoreError wraps err as a StoreError for the named operation.
// A nil err yields nil so call sites can wrap unconditionally.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// NewMalformedResultError creates a new MalformedResultError
func NewMalformedResultError(op, reason string) error {
	return &MalformedResultError{Op: op, Reason: reason}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreFailure checks if an error came from the document store
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}

// IsMalformedResult checks if an error is a malformed result error
func IsMalformedResult(err error) bool {
	return errors.Is(err, ErrMalformedResult)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
