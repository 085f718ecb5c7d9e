// Package errors provides standardized error handling for the loan origination engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeMalformedRequest       ErrorCode = "MALFORMED_REQUEST"
	ErrCodeApplicationNotFound    ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeIllegalTransition      ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeCollaboratorTimeout    ErrorCode = "COLLABORATOR_TIMEOUT"
	ErrCodeCollaboratorError      ErrorCode = "COLLABORATOR_ERROR"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"
	ErrCodeStoreFailure           ErrorCode = "STORE_FAILURE"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so callers can still match package sentinels.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError carries the violated fields in Metadata["errors"].
func NewValidationFailedError(details string, violations interface{}, cause error) *StandardError {
	e := newError(ErrCodeValidationFailed, "validation error", details, cause)
	if violations != nil {
		e.WithMetadata("errors", violations)
	}
	return e
}

func NewMalformedRequestError(err error) *StandardError {
	return newError(ErrCodeMalformedRequest, "validation error", "request body is not valid JSON: "+detailsOf(err), err)
}

func NewApplicationNotFoundError(applicationID string, cause error) *StandardError {
	return newError(ErrCodeApplicationNotFound, "application not found", fmt.Sprintf("applicationId: %s", applicationID), cause)
}

func NewIllegalTransitionError(details string, cause error) *StandardError {
	return newError(ErrCodeIllegalTransition, "illegal stage transition", details, cause)
}

func NewCollaboratorTimeoutError(collaborator string, err error) *StandardError {
	return newError(ErrCodeCollaboratorTimeout, fmt.Sprintf("%s timed out", collaborator), detailsOf(err), err)
}

func NewCollaboratorError(collaborator string, err error) *StandardError {
	return newError(ErrCodeCollaboratorError, fmt.Sprintf("%s unavailable", collaborator), detailsOf(err), err)
}

func NewConcurrentModificationError(applicationID string, cause error) *StandardError {
	return newError(ErrCodeConcurrentModification, "application was modified concurrently", fmt.Sprintf("applicationId: %s", applicationID), cause)
}

func NewStoreFailureError(operation string, err error) *StandardError {
	return newError(ErrCodeStoreFailure, "application store failure", fmt.Sprintf("operation: %s, error: %s", operation, detailsOf(err)), err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "internal error", detailsOf(err), err)
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code onto the HTTP status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeMalformedRequest, ErrCodeIllegalTransition:
		return http.StatusBadRequest
	case ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case ErrCodeConcurrentModification:
		return http.StatusConflict
	case ErrCodeCollaboratorTimeout, ErrCodeCollaboratorError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the recommended client retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCollaboratorError, ErrCodeStoreFailure:
		return 3
	case ErrCodeCollaboratorTimeout, ErrCodeConcurrentModification:
		return 2
	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "MALFORMED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "COLLABORATOR"):
		return "COLLABORATOR"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "CONCURRENT"):
		return "STORE"
	default:
		return "OTHER"
	}
}
