package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZenError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("disk I/O error")

	// When: wrapping with ZenError
	zenErr := New(ErrCodeDatabase, "query findings", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, zenErr)
	assert.Equal(t, originalErr, errors.Unwrap(zenErr))
	assert.True(t, errors.Is(zenErr, originalErr))
}

func TestZenError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{"config error", ErrCodeConfigNotFound, "config file not found", "[ERR_101_CONFIG_NOT_FOUND] config file not found"},
		{"query error", ErrCodeInvalidQuery, "query is empty", "[ERR_402_INVALID_QUERY] query is empty"},
		{"refgraph error", ErrCodeRefGraphStore, "insert refs", "[ERR_303_REFGRAPH_STORE] insert refs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestZenError_Is_MatchesByCode(t *testing.T) {
	// Given: an error wrapped by fmt.Errorf
	err := fmt.Errorf("search: %w", InvalidQuery("query is empty"))

	// Then: it matches the sentinel by code
	assert.True(t, errors.Is(err, ErrInvalidQuery))
	assert.False(t, errors.Is(err, ErrDatabase))
}

func TestZenError_RefGraphIsDistinctFromDatabase(t *testing.T) {
	err := RefGraphError("create schema", errors.New("boom"))

	assert.True(t, errors.Is(err, ErrRefGraphStore))
	assert.False(t, errors.Is(err, ErrDatabase))
	assert.Equal(t, CategoryStore, err.Category)
}

func TestZenError_WithDetails_AddsContext(t *testing.T) {
	err := New(ErrCodeUnknownEntityKind, "unknown kind", nil).
		WithDetail("kind", "decision").
		WithSuggestion("Use one of: finding, task")

	assert.Equal(t, "decision", err.Details["kind"])
	assert.Equal(t, "Use one of: finding, task", err.Suggestion)
}

func TestZenError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileRead, CategoryIO},
		{ErrCodeLockHeld, CategoryIO},
		{ErrCodeDatabase, CategoryStore},
		{ErrCodeVectorStore, CategoryStore},
		{ErrCodeInvalidQuery, CategoryValidation},
		{ErrCodeUnsupportedMode, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"BAD", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, categoryFromCode(tt.code))
		})
	}
}

func TestZenError_SeverityAndRetryable(t *testing.T) {
	tests := []struct {
		code          string
		wantSeverity  Severity
		wantRetryable bool
	}{
		{ErrCodeDatabase, SeverityFatal, false},
		{ErrCodeRefGraphStore, SeverityFatal, false},
		{ErrCodeLockHeld, SeverityWarning, true},
		{ErrCodeInvalidQuery, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Equal(t, tt.wantRetryable, err.Retryable)
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(ErrCodeLockHeld, "locked", nil))

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.Equal(t, ErrCodeLockHeld, GetCode(wrapped))
	assert.Equal(t, CategoryIO, GetCategory(wrapped))

	plain := errors.New("plain")
	assert.False(t, IsRetryable(plain))
	assert.Empty(t, GetCode(plain))
	assert.Empty(t, GetCategory(plain))
}
