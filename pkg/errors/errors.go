// Package errors provides structured error types for groupsync.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - Propagation of an external command's exit code to the process
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource not found
//   - NETWORK_*: Network-related errors
//   - COMMAND_FAILED: An external tool exited non-zero
//
// # Usage
//
//	err := errors.New(errors.ErrCodeGroupNotFound, "unknown group: %s", name)
//	if errors.Is(err, errors.ErrCodeGroupNotFound) {
//	    // Handle missing group
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidManifest, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidManifest    Code = "INVALID_MANIFEST"
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidVersion     Code = "INVALID_VERSION"
	ErrCodeInvalidLockfile    Code = "INVALID_LOCKFILE"
	ErrCodeInvalidWorkflow    Code = "INVALID_WORKFLOW"
	ErrCodeInvalidHooks       Code = "INVALID_HOOKS"
	ErrCodeInvalidScript      Code = "INVALID_SCRIPT"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeIncludeCycle       Code = "INCLUDE_CYCLE"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeGroupNotFound   Code = "GROUP_NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// External command errors
	ErrCodeCommandFailed Code = "COMMAND_FAILED"
	ErrCodeRender        Code = "RENDER_FAILED"

	// Filesystem errors
	ErrCodeIO Code = "IO_ERROR"

	// Check failures: the command worked and found problems
	ErrCodeLintFailed Code = "LINT_FAILED"
	ErrCodeOutdated   Code = "OUTDATED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// CommandError reports an external command that exited non-zero.
// The exit code is propagated unchanged to the process exit status.
type CommandError struct {
	Args     []string // Command line that was executed
	ExitCode int      // Exit code of the external tool (-1 if it did not start)
	Err      error    // Underlying exec error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s exited with code %d", ErrCodeCommandFailed, strings.Join(e.Args, " "), e.ExitCode)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error { return e.Err }

// Code returns the error code for this error type.
func (e *CommandError) Code() Code { return ErrCodeCommandFailed }

// ExitCode returns the exit code carried by a *CommandError in err's chain.
// Errors that are not command failures map to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode > 0 {
		return ce.ExitCode
	}
	return 1
}
