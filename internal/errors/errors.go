package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for programmatic handling
const (
	// Repository and environment errors
	ErrCodeEnvironment     = "ENVIRONMENT"
	ErrCodeDirtyRepository = "DIRTY_REPOSITORY"
	ErrCodeDetachedHead    = "DETACHED_HEAD"

	// Backend errors
	ErrCodeCommand = "COMMAND"

	// Declaration file errors
	ErrCodeCanonicalLineNotFound = "CANONICAL_LINE_NOT_FOUND"

	// Remote errors
	ErrCodeRemoteURLParse    = "REMOTE_URL_PARSE"
	ErrCodeRemoteRefNotFound = "REMOTE_REF_NOT_FOUND"
)

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrEnvironment           = &TandemError{Code: ErrCodeEnvironment}
	ErrDirtyRepository       = &TandemError{Code: ErrCodeDirtyRepository}
	ErrDetachedHead          = &TandemError{Code: ErrCodeDetachedHead}
	ErrCommand               = &TandemError{Code: ErrCodeCommand}
	ErrCanonicalLineNotFound = &TandemError{Code: ErrCodeCanonicalLineNotFound}
	ErrRemoteURLParse        = &TandemError{Code: ErrCodeRemoteURLParse}
	ErrRemoteRefNotFound     = &TandemError{Code: ErrCodeRemoteRefNotFound}
)

// TandemError represents a standardized error with code and context.
//
// Every failure the workflow engine raises is a TandemError:
//   - Code: standardized error code (see ErrCode* constants)
//   - Message: human-readable error description
//   - Cause: underlying error that caused this error (optional)
//   - Context: additional key-value pairs for debug output
//
// Example usage:
//
//	err := ErrDirty("/src/jsparagus", []string{"M README.md"})
//	if errors.Is(err, ErrDirtyRepository) {
//	  // ask the user to commit or stash
//	}
type TandemError struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface
func (e *TandemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *TandemError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code
func (e *TandemError) Is(target error) bool {
	if t, ok := target.(*TandemError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *TandemError) WithContext(key string, value any) *TandemError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewTandemError creates a new standardized error
func NewTandemError(code, message string, cause error) *TandemError {
	return &TandemError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// NewTandemErrorf creates a new standardized error with formatted message
func NewTandemErrorf(code string, cause error, format string, args ...any) *TandemError {
	return &TandemError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Error factory functions

func ErrEnvironmentf(format string, args ...any) *TandemError {
	return NewTandemErrorf(ErrCodeEnvironment, nil, format, args...)
}

func ErrNotRepository(path string) *TandemError {
	return NewTandemErrorf(ErrCodeEnvironment, nil, "not a git repository: %s", path).
		WithContext("path", path)
}

func ErrDirty(path string, changes []string) *TandemError {
	return NewTandemErrorf(ErrCodeDirtyRepository, nil, "repository has uncommitted changes: %s", path).
		WithContext("path", path).
		WithContext("changes", changes)
}

func ErrDetached(path string, cause error) *TandemError {
	return NewTandemErrorf(ErrCodeDetachedHead, cause, "repository is in detached HEAD state: %s", path).
		WithContext("path", path)
}

// ErrCommandFailed builds a COMMAND error. Stderr is appended to the message
// so the first line the user sees carries git's own diagnostic.
func ErrCommandFailed(name string, args []string, exitCode int, stderr string, cause error) *TandemError {
	msg := fmt.Sprintf("%s %s failed (exit %d)", name, strings.Join(args, " "), exitCode)
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		msg += ": " + stderr
	}
	return NewTandemError(ErrCodeCommand, msg, cause).
		WithContext("command", name).
		WithContext("args", args).
		WithContext("exit_code", exitCode).
		WithContext("stderr", stderr)
}

func ErrCanonicalLineMissing(path, name string) *TandemError {
	return NewTandemErrorf(ErrCodeCanonicalLineNotFound, nil, "no official %s dependency line found in %s", name, path).
		WithContext("path", path)
}

func ErrRemoteURL(url string) *TandemError {
	return NewTandemErrorf(ErrCodeRemoteURLParse, nil, "remote URL is not a GitHub user/repo URL: %s", url).
		WithContext("url", url)
}

func ErrRemoteRef(remote, ref string) *TandemError {
	return NewTandemErrorf(ErrCodeRemoteRefNotFound, nil, "ref %s not found on remote %s", ref, remote).
		WithContext("remote", remote).
		WithContext("ref", ref)
}

// IsTandemError reports whether err carries a TandemError with the given code
func IsTandemError(err error, code string) bool {
	var tandemErr *TandemError
	if errors.As(err, &tandemErr) {
		return tandemErr.Code == code
	}
	return false
}

// GetErrorCode returns the code of the first TandemError in err's chain
func GetErrorCode(err error) string {
	var tandemErr *TandemError
	if errors.As(err, &tandemErr) {
		return tandemErr.Code
	}
	return ""
}

// GetErrorContext returns the context of the first TandemError in err's chain
func GetErrorContext(err error) map[string]any {
	var tandemErr *TandemError
	if errors.As(err, &tandemErr) {
		return tandemErr.Context
	}
	return nil
}
