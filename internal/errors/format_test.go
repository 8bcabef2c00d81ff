package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	err := InvalidQuery("query is empty")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: query is empty")
	assert.Contains(t, out, "Hint: Provide non-empty search text")
	assert.Contains(t, out, "Code: ERR_402_INVALID_QUERY")
}

func TestFormatForCLI_StandardErrorIsInternal(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON_WithCause(t *testing.T) {
	err := DatabaseError("search tasks", errors.New("no such table"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeDatabase, got["code"])
	assert.Equal(t, "STORE", got["category"])
	assert.Equal(t, "FATAL", got["severity"])
	assert.Equal(t, "no such table", got["cause"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestLogAttrs_SortsDetails(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad", nil).WithDetail("z", "1").WithDetail("a", "2")

	attrs := LogAttrs(err)

	require.Len(t, attrs, 6)
	assert.Equal(t, "detail_a", attrs[4].Key)
	assert.Equal(t, "detail_z", attrs[5].Key)
	assert.Nil(t, LogAttrs(nil))
}
