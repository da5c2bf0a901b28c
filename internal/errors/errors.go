// Package errors provides standardized error handling for the marketplace service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the marketplace service.
type ErrorCode string

const (
	// Validation errors: malformed or missing input. Surfaced to the
	// caller, never retried.
	MKT_VALIDATION    ErrorCode = "MKT_VALIDATION"    // General validation error
	MKT_SCHEMA_REJECT ErrorCode = "MKT_SCHEMA_REJECT" // Submission payload failed schema validation

	// State errors: operation not valid for the entity's current
	// lifecycle state (e.g. publishing a document that is not under review).
	MKT_STATE ErrorCode = "MKT_STATE"

	// Authentication/Authorization errors
	MKT_AUTHN     ErrorCode = "MKT_AUTHN"     // Authentication failed (missing or bad token)
	MKT_AUTHZ     ErrorCode = "MKT_AUTHZ"     // Caller lacks the required role or ownership
	MKT_SIGNATURE ErrorCode = "MKT_SIGNATURE" // Payment gateway signature mismatch

	// Resource errors
	MKT_NOT_FOUND ErrorCode = "MKT_NOT_FOUND" // Resource not found
	MKT_CONFLICT  ErrorCode = "MKT_CONFLICT"  // Resource conflict

	// Dependency errors: the system of record is unreachable. Cache
	// unavailability never surfaces as this code; it degrades silently.
	MKT_DEPENDENCY ErrorCode = "MKT_DEPENDENCY"

	// Server errors
	MKT_INTERNAL ErrorCode = "MKT_INTERNAL" // Internal server error
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Validation builds a validation error without a correlation id; the HTTP
// layer fills the id in before writing the response.
func Validation(message string) *Error { return New(MKT_VALIDATION, message, "") }

// State builds a lifecycle-state error.
func State(message string) *Error { return New(MKT_STATE, message, "") }

// NotFound builds a not-found error.
func NotFound(message string) *Error { return New(MKT_NOT_FOUND, message, "") }

// Signature builds a payment-signature mismatch error.
func Signature(message string) *Error { return New(MKT_SIGNATURE, message, "") }

// Authn builds an authentication error.
func Authn(message string) *Error { return New(MKT_AUTHN, message, "") }

// Authz builds an authorization error.
func Authz(message string) *Error { return New(MKT_AUTHZ, message, "") }

// Dependency wraps a repository failure. There is no durable fallback for
// the system of record, so these propagate as fatal to the caller.
func Dependency(op string, cause error) *Error {
	return NewWithDetails(MKT_DEPENDENCY, fmt.Sprintf("%s failed", op), "", cause.Error())
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from an error chain, or MKT_INTERNAL when
// the error is not one of ours.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return MKT_INTERNAL
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// httpStatusCodeForCode maps error codes to HTTP status codes.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case MKT_VALIDATION, MKT_SCHEMA_REJECT:
		return http.StatusBadRequest
	case MKT_AUTHZ:
		return http.StatusForbidden
	case MKT_AUTHN, MKT_SIGNATURE:
		return http.StatusUnauthorized
	case MKT_NOT_FOUND:
		return http.StatusNotFound
	case MKT_STATE, MKT_CONFLICT:
		return http.StatusConflict
	case MKT_DEPENDENCY:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
