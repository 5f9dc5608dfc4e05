// Package common defines shared constants and sentinel errors used across
// the golive persistence and engagement layer. Callers should use errors.Is
// and errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for bad input before any I/O is performed.
	ErrValidation = errors.New("validation error")

	// ErrStorageWrite is returned when the object store rejects a write
	// (quota, permission, network or an attempt to overwrite a key).
	ErrStorageWrite = errors.New("storage write error")

	// ErrAssetNotFound is returned when a URL is requested for a key that
	// does not exist in the object store.
	ErrAssetNotFound = errors.New("asset not found")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// MetadataError reports a failure of the metadata store: a constraint
// violation, a missing row or a transport failure. Op names the repository
// operation, Err is the underlying cause.
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata %s: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// NewMetadataError wraps err unless it already is a *MetadataError.
func NewMetadataError(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *MetadataError
	if errors.As(err, &me) {
		return err
	}
	return &MetadataError{Op: op, Err: err}
}

// IsMetadataError reports whether err carries a *MetadataError.
func IsMetadataError(err error) bool {
	var me *MetadataError
	return errors.As(err, &me)
}

// Validationf returns an error matching ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
