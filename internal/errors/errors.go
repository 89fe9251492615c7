// Package errors provides centralized error definitions and error handling utilities
// for osdrec. It defines the sentinel errors of the capture pipeline, typed errors
// carrying operation context, and classification helpers.
//
// # Error Types
//
//   - CaptureError: a failure of the capture session, tagged with a Kind
//     (validation, io, write, spawn) and the sink path involved
//   - FormatError: a malformed or truncated OSD log encountered while decoding
//   - ValidationError: invalid input or configuration
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewIOError("open sink", path, osErr)
//	err := errors.NewFormatError("read header", errors.ErrInvalidHeader).WithOffset(0)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSinkUnavailable) { ... }
//
//	var captureErr *errors.CaptureError
//	if errors.As(err, &captureErr) && captureErr.Kind == errors.KindWrite { ... }
//
// # Error Classification
//
// Errors can be classified by severity and whether they are safe to show to users:
//   - UserFacing: errors whose message is meaningful on the command line
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Capture-related sentinel errors
var (
	// ErrInvalidShape indicates a frame whose width*height is zero or exceeds the grid limit.
	ErrInvalidShape = New("invalid frame shape")
	// ErrSinkUnavailable indicates that the output sink could not be created.
	ErrSinkUnavailable = New("output sink unavailable")
	// ErrWriteFailed indicates that writing to the output sink failed mid-session.
	ErrWriteFailed = New("output sink write failed")
	// ErrSpawnFailed indicates that the session could not bring up its writer.
	ErrSpawnFailed = New("writer failed to start")
	// ErrSessionInactive indicates that a capture session is not currently active.
	ErrSessionInactive = New("session is not active")
)

// Format-related sentinel errors
var (
	// ErrInvalidHeader indicates that an OSD log header has a bad magic or version.
	ErrInvalidHeader = New("invalid osd header")
	// ErrTruncatedFrame indicates that an OSD log ends in the middle of a frame record.
	ErrTruncatedFrame = New("truncated osd frame")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// OsdrecError is the base interface for all osdrec errors.
type OsdrecError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Capture Errors
// -----------------------------------------------------------------------------

// Kind classifies a CaptureError.
type Kind string

const (
	// KindValidation marks a rejected frame shape.
	KindValidation Kind = "validation"
	// KindIO marks a sink that could not be opened.
	KindIO Kind = "io"
	// KindWrite marks a sink write failure during a session.
	KindWrite Kind = "write"
	// KindSpawn marks a failure bringing up or running the writer.
	KindSpawn Kind = "spawn"
)

// kindSentinel maps each kind to the sentinel it always matches.
var kindSentinel = map[Kind]error{
	KindValidation: ErrInvalidShape,
	KindIO:         ErrSinkUnavailable,
	KindWrite:      ErrWriteFailed,
	KindSpawn:      ErrSpawnFailed,
}

// CaptureError represents a failure of the capture pipeline.
//
// Example:
//
//	err := errors.NewIOError("open sink", "/rec/DJI_0001.osd", os.ErrPermission)
//	fmt.Println(err) // "capture io error [path=/rec/DJI_0001.osd]: open sink: permission denied"
type CaptureError struct {
	baseError
	Kind Kind
	Op   string
	Path string
}

func newCaptureError(kind Kind, op, path string, cause error, severity Severity) *CaptureError {
	return &CaptureError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   severity,
			userFacing: true,
		},
		Kind: kind,
		Op:   op,
		Path: path,
	}
}

// NewValidationCaptureError reports a frame rejected before it reached the buffer.
func NewValidationCaptureError(width, height, limit int) *CaptureError {
	op := fmt.Sprintf("frame %dx%d outside 1..%d cells", width, height, limit)
	return newCaptureError(KindValidation, op, "", nil, SeverityDebug)
}

// NewIOError reports a sink that could not be created.
func NewIOError(op, path string, cause error) *CaptureError {
	return newCaptureError(KindIO, op, path, cause, SeverityError)
}

// NewWriteError reports a sink write failure that ended the writer.
func NewWriteError(op, path string, cause error) *CaptureError {
	return newCaptureError(KindWrite, op, path, cause, SeverityError)
}

// NewSpawnError reports a writer that could not be started or that crashed.
func NewSpawnError(op, path string, cause error) *CaptureError {
	return newCaptureError(KindSpawn, op, path, cause, SeverityCritical)
}

// Error returns the formatted error message.
func (e *CaptureError) Error() string {
	prefix := fmt.Sprintf("capture %s error", e.Kind)
	if e.Path != "" {
		prefix = fmt.Sprintf("%s [path=%s]", prefix, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
// A CaptureError always matches the sentinel of its kind.
func (e *CaptureError) Is(target error) bool {
	if _, ok := target.(*CaptureError); ok {
		return true
	}
	if sentinel, ok := kindSentinel[e.Kind]; ok && target == sentinel {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Format Errors
// -----------------------------------------------------------------------------

// FormatError represents a malformed OSD log.
//
// Example:
//
//	err := errors.NewFormatError("read frame", errors.ErrTruncatedFrame).WithOffset(1082)
//	fmt.Println(err) // "osd format error [offset=1082]: read frame: truncated osd frame"
type FormatError struct {
	baseError
	Offset int64
}

// NewFormatError creates a new FormatError.
func NewFormatError(message string, cause error) *FormatError {
	return &FormatError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Offset: -1,
	}
}

// WithOffset records the byte offset at which decoding failed.
func (e *FormatError) WithOffset(offset int64) *FormatError {
	e.Offset = offset
	return e
}

// Error returns the formatted error message.
func (e *FormatError) Error() string {
	prefix := "osd format error"
	if e.Offset >= 0 {
		prefix = fmt.Sprintf("osd format error [offset=%d]", e.Offset)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("frame rate must be positive")
//	err = err.WithField("fps").WithValue(0)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "internal error")
//	    logger.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var osdErr OsdrecError
	if As(err, &osdErr) {
		return osdErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement OsdrecError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var osdErr OsdrecError
	if As(err, &osdErr) {
		return osdErr.Severity()
	}

	return SeverityError
}

// KindOf returns the Kind of the first CaptureError in err's chain, or "".
func KindOf(err error) Kind {
	var captureErr *CaptureError
	if As(err, &captureErr) {
		return captureErr.Kind
	}
	return ""
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "replay source")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
