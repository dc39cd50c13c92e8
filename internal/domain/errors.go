package domain

import (
	"errors"
	"fmt"
)

// Error codes for categorization
const (
	// Client errors (4xx)
	ErrCodeValidation  = "VALIDATION_ERROR"
	ErrCodeNotFound    = "NOT_FOUND"
	ErrCodeConflict    = "CONFLICT"
	ErrCodeBadRequest  = "BAD_REQUEST"
	ErrCodeRateLimited = "RATE_LIMITED"

	// Server errors (5xx)
	ErrCodeInternal = "INTERNAL_ERROR"
	ErrCodeDatabase = "DATABASE_ERROR"

	// Pipeline errors. Upstream provider failures are absorbed with a
	// fallback at the lowest layer and never reach an HTTP response; an
	// insufficient-data failure surfaces only as a terminal failed job
	// status, because the triggering request already returned success.
	ErrCodeUpstreamProvider = "UPSTREAM_PROVIDER"
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
)

// DomainError is a structured error for domain operations
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for error comparison
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel domain errors (used with errors.Is)
var (
	ErrNotFoundVal         = &DomainError{Code: ErrCodeNotFound, Message: "not found"}
	ErrInvalidInputVal     = &DomainError{Code: ErrCodeValidation, Message: "invalid input"}
	ErrConflictVal         = &DomainError{Code: ErrCodeConflict, Message: "conflict"}
	ErrUpstreamVal         = &DomainError{Code: ErrCodeUpstreamProvider, Message: "upstream provider failure"}
	ErrInsufficientDataVal = &DomainError{Code: ErrCodeInsufficientData, Message: "insufficient data"}
)

// IsSentinelError checks if err matches a sentinel error
func IsSentinelError(err error, sentinel *DomainError) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == sentinel.Code
	}
	return false
}

// NotFoundError creates a not found domain error
func NotFoundError(resource string, id any) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
		Err:     ErrNotFoundVal,
	}
}

// ValidationError creates a validation domain error
func ValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: message,
		Details: map[string]any{"field": field},
		Err:     ErrInvalidInputVal,
	}
}

// ConflictError creates a conflict domain error for invalid state changes
func ConflictError(resource, state, message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: message,
		Details: map[string]any{"resource": resource, "state": state},
		Err:     ErrConflictVal,
	}
}

// UpstreamError wraps an AI/network call failure. Callers are expected to
// absorb it with a documented fallback rather than propagate it.
func UpstreamError(provider string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeUpstreamProvider,
		Message: fmt.Sprintf("provider %s failed", provider),
		Details: map[string]any{"provider": provider},
		Err:     fmt.Errorf("%w: %w", ErrUpstreamVal, err),
	}
}

// InsufficientDataError signals fewer successful sub-analyses than the
// stated minimum.
func InsufficientDataError(got, want int) *DomainError {
	return &DomainError{
		Code:    ErrCodeInsufficientData,
		Message: fmt.Sprintf("only %d of the required %d analyses succeeded", got, want),
		Details: map[string]any{"got": got, "want": want},
		Err:     ErrInsufficientDataVal,
	}
}

// InternalError wraps an unexpected failure
func InternalError(message string, err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}
