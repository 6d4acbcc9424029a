// Package errors defines the typed failures shared by the WebGraph stores and hosts.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "INVALID_ARGUMENT"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeStorageFailure  ErrorType = "STORAGE_FAILURE"
	ErrorTypeDataIntegrity   ErrorType = "DATA_INTEGRITY"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidArgument creates an error for malformed bookmark, tag or setting input.
func NewInvalidArgument(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFound creates an error for an id that is absent from the Space.
func NewNotFound(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewStorageFailure wraps an error returned by a persistence backend.
func NewStorageFailure(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeStorageFailure,
		Message: message,
		Err:     err,
	}
}

// NewDataIntegrity reports a reference that cannot be resolved, e.g. a site
// tagged with a name that has no Tag row.
func NewDataIntegrity(format string, args ...any) error {
	return &AppError{
		Type:    ErrorTypeDataIntegrity,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return NewStorageFailure(message, err)
}

// TypeOf returns the ErrorType carried by err, or "" for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsInvalidArgument checks if an error is an invalid argument error
func IsInvalidArgument(err error) bool {
	return TypeOf(err) == ErrorTypeInvalidArgument
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsStorageFailure checks if an error is a storage failure
func IsStorageFailure(err error) bool {
	return TypeOf(err) == ErrorTypeStorageFailure
}

// IsDataIntegrity checks if an error is a data integrity error
func IsDataIntegrity(err error) bool {
	return TypeOf(err) == ErrorTypeDataIntegrity
}
