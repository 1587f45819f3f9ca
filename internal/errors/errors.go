// Package errors provides structured error types for the varscope server.
// These errors carry machine-readable codes plus hints that guide the
// caller to correct course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Session errors
	CodeNoActiveSession     ErrorCode = "NO_ACTIVE_SESSION"
	CodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionLimitReached ErrorCode = "SESSION_LIMIT_REACHED"

	// Adapter / protocol errors
	CodeAdapterConnectFailed ErrorCode = "ADAPTER_CONNECT_FAILED"
	CodeAttachFailed         ErrorCode = "ATTACH_FAILED"
	CodeRequestTimeout       ErrorCode = "REQUEST_TIMEOUT"

	// Introspection errors
	CodeEvaluationFailed   ErrorCode = "EVALUATION_FAILED"
	CodeHelperImportFailed ErrorCode = "HELPER_IMPORT_FAILED"
	CodeResultParseFailed  ErrorCode = "RESULT_PARSE_FAILED"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// InspectError is a structured error type that includes helpful
// information about what went wrong and how to fix it.
type InspectError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *InspectError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *InspectError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *InspectError) WithDetails(key string, value interface{}) *InspectError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *InspectError) WithCause(err error) *InspectError {
	e.Cause = err
	return e
}

// --- Session Errors ---

// NoActiveSession creates an error for operations that need a live debuggee
func NoActiveSession() *InspectError {
	return &InspectError{
		Code:    CodeNoActiveSession,
		Message: "no active debug session",
		Hint:    "Attach to a running debug adapter with inspect_attach before requesting variable data.",
	}
}

// SessionNotFound creates an error for when a session ID doesn't exist
func SessionNotFound(sessionID string) *InspectError {
	return &InspectError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    "Use inspect_sessions to list active sessions, or inspect_attach to create a new one.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionLimitReached creates an error when max sessions is reached
func SessionLimitReached(maxSessions int) *InspectError {
	return &InspectError{
		Code:    CodeSessionLimitReached,
		Message: fmt.Sprintf("maximum number of sessions (%d) reached", maxSessions),
		Hint:    "Use inspect_disconnect to release an existing session before attaching a new one.",
		Details: map[string]interface{}{
			"maxSessions": maxSessions,
		},
	}
}

// --- Adapter / Protocol Errors ---

// AdapterConnectFailed creates an error when connecting to an adapter fails
func AdapterConnectFailed(address string, err error) *InspectError {
	return &InspectError{
		Code:    CodeAdapterConnectFailed,
		Message: fmt.Sprintf("failed to connect to debug adapter at %s: %v", address, err),
		Hint:    "Check that a debug adapter is listening on the given host and port.",
		Cause:   err,
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// AttachFailed creates an error for attach handshake failures
func AttachFailed(err error) *InspectError {
	return &InspectError{
		Code:    CodeAttachFailed,
		Message: fmt.Sprintf("failed to attach to debug adapter: %v", err),
		Hint:    "The adapter may not support attach requests, or the debuggee may have exited.",
		Cause:   err,
	}
}

// RequestTimeout creates an error for protocol request timeouts
func RequestTimeout(operation string, timeoutSeconds int) *InspectError {
	return &InspectError{
		Code:    CodeRequestTimeout,
		Message: fmt.Sprintf("%s timed out after %d seconds", operation, timeoutSeconds),
		Hint:    "The debuggee may be running rather than paused, or stuck evaluating an expression.",
		Details: map[string]interface{}{
			"operation":      operation,
			"timeoutSeconds": timeoutSeconds,
		},
	}
}

// --- Introspection Errors ---

// EvaluationFailed creates an error for expression evaluation failures
func EvaluationFailed(expression string, err error) *InspectError {
	return &InspectError{
		Code:    CodeEvaluationFailed,
		Message: fmt.Sprintf("failed to evaluate expression '%s': %v", expression, err),
		Hint:    "Check that the referenced variable is still in scope in the paused frame.",
		Cause:   err,
		Details: map[string]interface{}{
			"expression": expression,
		},
	}
}

// HelperImportFailed creates an error for helper bootstrap failures
func HelperImportFailed(fragment string, err error) *InspectError {
	return &InspectError{
		Code:    CodeHelperImportFailed,
		Message: fmt.Sprintf("failed to define introspection helper '%s': %v", fragment, err),
		Hint:    "The debuggee must be paused and able to execute code. The definitions are retried on the next request that needs them.",
		Cause:   err,
		Details: map[string]interface{}{
			"fragment": fragment,
		},
	}
}

// ResultParseFailed creates an error for unparseable helper output
func ResultParseFailed(expression string, err error) *InspectError {
	return &InspectError{
		Code:    CodeResultParseFailed,
		Message: fmt.Sprintf("could not parse result of '%s': %v", expression, err),
		Hint:    "The helper output did not match the expected framed JSON payload. The debuggee may have shadowed a helper definition.",
		Cause:   err,
		Details: map[string]interface{}{
			"expression": expression,
		},
	}
}

// --- Parameter Errors ---

// MissingParameter creates an error for missing required parameters
func MissingParameter(paramName, description string) *InspectError {
	return &InspectError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(paramName string, value interface{}, expected string) *InspectError {
	return &InspectError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Helpers for wrapping generic errors ---

// Wrap wraps a generic error with context
func Wrap(code ErrorCode, message string, hint string, err error) *InspectError {
	return &InspectError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// FromError creates an InspectError from a generic error, preserving any
// existing structure
func FromError(err error) *InspectError {
	var ie *InspectError
	if stderrors.As(err, &ie) {
		return ie
	}
	return &InspectError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}
