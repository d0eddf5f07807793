// Package common defines sentinel errors and small helpers shared by the
// key manager, the field cipher, the repositories and the transport layers.
// Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Caller input errors.
	ErrValidation = errors.New("validation failed")

	// Repository-level errors.
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Key lifecycle errors.
	ErrKeyNotFound    = errors.New("key not found")
	ErrKeyUnavailable = errors.New("key unavailable")

	// Cipher errors.
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
)

// FieldError reports invalid input for a single named field.
// It unwraps to ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError builds a *FieldError for field with the given message.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
