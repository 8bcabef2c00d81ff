// Package errors provides structured error handling for zenith.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk, locks)
//   - 3XX: Storage engine errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, disk and lock errors.
	CategoryIO Category = "IO"
	// CategoryStore indicates failures inside an embedded storage engine.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the current request cannot continue.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileRead     = "ERR_202_FILE_READ"
	ErrCodeFileWrite    = "ERR_203_FILE_WRITE"
	ErrCodeLockHeld     = "ERR_204_LOCK_HELD"

	// Store errors (300-399)
	ErrCodeDatabase      = "ERR_301_DATABASE"
	ErrCodeVectorStore   = "ERR_302_VECTOR_STORE"
	ErrCodeRefGraphStore = "ERR_303_REFGRAPH_STORE"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidQuery      = "ERR_402_INVALID_QUERY"
	ErrCodeUnknownEntityKind = "ERR_403_UNKNOWN_ENTITY_KIND"
	ErrCodeInvalidRelation   = "ERR_404_INVALID_RELATION"
	ErrCodeUnsupportedMode   = "ERR_405_UNSUPPORTED_MODE"
	ErrCodeDimensionMismatch = "ERR_406_DIMENSION_MISMATCH"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "301" from "ERR_301_DATABASE"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeDatabase, ErrCodeVectorStore, ErrCodeRefGraphStore:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode reports codes a caller may retry. Only a held write lock
// qualifies; nothing in zenith retries on its own.
func isRetryableCode(code string) bool {
	return code == ErrCodeLockHeld
}
