package errors

import (
	"errors"
	"fmt"
)

// ZenError is the structured error type for zenith.
// It carries enough context for logging, CLI rendering and MCP mapping.
type ZenError struct {
	// Code is the unique error code (e.g., "ERR_402_INVALID_QUERY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Store, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ZenError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ZenError) Unwrap() error {
	return e.Cause
}

// Is matches by code, so errors.Is(err, New(ErrCodeInvalidQuery, "", nil)) works.
func (e *ZenError) Is(target error) bool {
	if t, ok := target.(*ZenError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *ZenError) WithDetail(key, value string) *ZenError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ZenError) WithSuggestion(suggestion string) *ZenError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ZenError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *ZenError {
	return &ZenError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a ZenError from an existing error.
// The error's message becomes the ZenError message.
func Wrap(code string, err error) *ZenError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel values for errors.Is checks.
var (
	ErrInvalidQuery    = New(ErrCodeInvalidQuery, "invalid query", nil)
	ErrDatabase        = New(ErrCodeDatabase, "database error", nil)
	ErrRefGraphStore   = New(ErrCodeRefGraphStore, "reference graph store error", nil)
	ErrLockHeld        = New(ErrCodeLockHeld, "data directory is locked", nil)
	ErrUnsupportedMode = New(ErrCodeUnsupportedMode, "unsupported search mode", nil)
)

// InvalidQuery creates the error returned for empty or whitespace-only queries.
func InvalidQuery(message string) *ZenError {
	return New(ErrCodeInvalidQuery, message, nil).
		WithSuggestion("Provide non-empty search text")
}

// DatabaseError wraps a failure from the knowledge or symbol database.
func DatabaseError(message string, cause error) *ZenError {
	return New(ErrCodeDatabase, message, cause)
}

// RefGraphError wraps a failure inside the reference graph store.
func RefGraphError(message string, cause error) *ZenError {
	return New(ErrCodeRefGraphStore, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ZenError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *ZenError {
	return New(ErrCodeFileRead, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ZenError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ZenError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first ZenError in err's chain.
func As(err error) (*ZenError, bool) {
	var ze *ZenError
	if errors.As(err, &ze) {
		return ze, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if ze, ok := As(err); ok {
		return ze.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if ze, ok := As(err); ok {
		return ze.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a ZenError.
// Returns empty string if err carries no ZenError.
func GetCode(err error) string {
	if ze, ok := As(err); ok {
		return ze.Code
	}
	return ""
}

// GetCategory extracts the category from a ZenError.
func GetCategory(err error) Category {
	if ze, ok := As(err); ok {
		return ze.Category
	}
	return ""
}
