// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies application errors.
type ErrorType string

const (
	// Generic API error types
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeError      ErrorType = "processing_error"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeTimeout    ErrorType = "timeout"

	// Chat engine error types
	ErrorTypeCredentialMissing   ErrorType = "credential_missing"
	ErrorTypeBackend             ErrorType = "backend_error"
	ErrorTypeInsufficientCredits ErrorType = "insufficient_credits"
	ErrorTypeConfiguration       ErrorType = "configuration_error"
)

// AppError is the application error structure carried across layers.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError of the given type.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError creates a generic processing error.
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewConflictError creates a conflict error.
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// NewCredentialMissingError signals that the AI path was attempted without
// a configured API credential.
func NewCredentialMissingError(message string) *AppError {
	return NewAppError(ErrorTypeCredentialMissing, message, nil)
}

// NewBackendError wraps a transport, HTTP or parse failure from the AI backend.
func NewBackendError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeBackend, message, originalError)
}

// NewInsufficientCreditsError signals that the AI path was requested by an
// account that is not eligible for it.
func NewInsufficientCreditsError(message string) *AppError {
	return NewAppError(ErrorTypeInsufficientCredits, message, nil)
}

// NewConfigurationError signals a data-authoring bug (for example a missing
// personality/category candidate list). Not recoverable at runtime.
func NewConfigurationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConfiguration, message, originalError)
}

// IsValidationError checks whether err is a validation error.
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFoundError checks whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsConflictError checks whether err is a conflict error.
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsCredentialMissingError checks whether err is a missing-credential error.
func IsCredentialMissingError(err error) bool {
	return isType(err, ErrorTypeCredentialMissing)
}

// IsBackendError checks whether err is an AI backend failure.
func IsBackendError(err error) bool {
	return isType(err, ErrorTypeBackend)
}

// IsInsufficientCreditsError checks whether err is an eligibility failure.
func IsInsufficientCreditsError(err error) bool {
	return isType(err, ErrorTypeInsufficientCredits)
}

// IsConfigurationError checks whether err is a fatal configuration error.
func IsConfigurationError(err error) bool {
	return isType(err, ErrorTypeConfiguration)
}

func isType(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

// generateErrorCode maps an error type to its user-facing code.
func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeCredentialMissing:
		return "CREDENTIAL_MISSING"
	case ErrorTypeBackend:
		return "BACKEND_ERROR"
	case ErrorTypeInsufficientCredits:
		return "INSUFFICIENT_CREDITS"
	case ErrorTypeConfiguration:
		return "CONFIGURATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps an existing error, preserving an AppError's type when
// one is already present in the chain.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: message,
			Err:     err,
			Code:    appError.Code,
		}
	}
	return NewAppError(errType, message, err)
}
