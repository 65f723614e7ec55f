package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Client errors
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"

	// Pipeline errors, scoped to a single change action
	ErrCodeTenantUnresolved   ErrorCode = "TENANT_UNRESOLVED"
	ErrCodeContentFetchFailed ErrorCode = "CONTENT_FETCH_FAILED"
	ErrCodeDeclarationInvalid ErrorCode = "DECLARATION_INVALID"
	ErrCodeTargetAPIFailed    ErrorCode = "TARGET_API_FAILED"
	ErrCodeIssueFailed        ErrorCode = "ISSUE_FAILED"

	// Server errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
	}
}

// Wrap wraps an existing error with application context
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: getStatusCodeForError(code),
		Err:        err,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// getStatusCodeForError maps error codes to HTTP status codes
func getStatusCodeForError(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeValidationFailed, ErrCodeMalformedPayload:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTenantUnresolved, ErrCodeDeclarationInvalid:
		return http.StatusUnprocessableEntity
	case ErrCodeContentFetchFailed, ErrCodeTargetAPIFailed, ErrCodeIssueFailed:
		return http.StatusBadGateway
	case ErrCodeInternalError, ErrCodeDatabaseError:
		return http.StatusInternalServerError
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for convenience

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message)
}

// InvalidRequest creates an invalid request error
func InvalidRequest(message string) *AppError {
	return New(ErrCodeInvalidRequest, message)
}

// MalformedPayload creates an error for a webhook payload that cannot be interpreted
func MalformedPayload(message string) *AppError {
	return New(ErrCodeMalformedPayload, message)
}

// TenantUnresolved creates a tenant resolution error
func TenantUnresolved(err error) *AppError {
	return Wrap(err, ErrCodeTenantUnresolved, "Unable to resolve tenant from declaration")
}

// ContentFetchFailed creates a content fetch error for the given address
func ContentFetchFailed(address string, err error) *AppError {
	return Wrapf(err, ErrCodeContentFetchFailed, "Failed to fetch %s", address)
}

// DeclarationInvalid creates an error for a declaration body that cannot be parsed
func DeclarationInvalid(err error) *AppError {
	return Wrap(err, ErrCodeDeclarationInvalid, "Invalid service declaration")
}

// IssueFailed creates an issue filing error
func IssueFailed(err error) *AppError {
	return Wrap(err, ErrCodeIssueFailed, "Failed to file deployment issue")
}

// InternalError creates an internal server error
func InternalError(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "Internal server error")
}

// Unavailable creates an error for work refused while shutting down
func Unavailable(message string) *AppError {
	return New(ErrCodeUnavailable, message)
}

// DatabaseError creates a database error
func DatabaseError(err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, "Database operation failed")
}
