package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvariantViolation indicates the symbol graph contains a shape the renderer has no rule for
	InvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	// InputNotFound indicates an input path does not exist
	InputNotFound ErrorCode = "INPUT_NOT_FOUND"
	// InputInvalid indicates an input could not be decoded into a symbol graph
	InputInvalid ErrorCode = "INPUT_INVALID"
	// UnsupportedFormat indicates no loader handles the input
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// SnapshotNotFound indicates no stored surface matches the reference
	SnapshotNotFound ErrorCode = "SNAPSHOT_NOT_FOUND"
	// StorageError indicates the snapshot database failed
	StorageError ErrorCode = "STORAGE_ERROR"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// EditFile suggests editing an input or config file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Path        string        `json:"path,omitempty"`
}

// ApiDumpError represents an apidump error with code, message, and suggestions
type ApiDumpError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates an error carrying the default fixes for its code.
func New(code ErrorCode, message string, cause error) *ApiDumpError {
	return &ApiDumpError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *ApiDumpError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Invariant reports a symbol the renderer cannot project. subject names the
// offending symbol.
func Invariant(subject string, format string, args ...interface{}) *ApiDumpError {
	e := New(InvariantViolation, fmt.Sprintf(format, args...), nil)
	e.Details = map[string]string{"symbol": subject}
	return e
}

// Symbol returns the offending symbol recorded by Invariant, or "".
func (e *ApiDumpError) Symbol() string {
	if d, ok := e.Details.(map[string]string); ok {
		return d["symbol"]
	}
	return ""
}

// Error implements the error interface
func (e *ApiDumpError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ApiDumpError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ApiDumpError) WithDetails(details interface{}) *ApiDumpError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first ApiDumpError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var e *ApiDumpError
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// IsCode reports whether err carries code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case InputNotFound, InputInvalid, UnsupportedFormat, SnapshotNotFound, ConfigInvalid:
		return 1
	case InvariantViolation:
		return 2
	default:
		return 255
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InputNotFound: {
		{
			Type:        RunCommand,
			Command:     "apidump dump <path-to-manifest-or-sources>",
			Safe:        true,
			Description: "Pass an existing manifest, .cs file, directory or index.scip",
		},
	},
	UnsupportedFormat: {
		{
			Type:        OpenDocs,
			Description: "Supported inputs: .yaml, .yml, .json, .toml, .cs, directories of .cs files, .scip",
		},
	},
	SnapshotNotFound: {
		{
			Type:        RunCommand,
			Command:     "apidump snapshot list",
			Safe:        true,
			Description: "List stored surfaces",
		},
	},
	ConfigInvalid: {
		{
			Type:        EditFile,
			Path:        ".apidump/config.json",
			Description: "Fix the reported configuration field",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
