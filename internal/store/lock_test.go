package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

func TestDataLock_SecondHolderIsRejected(t *testing.T) {
	// Given: one handle holding the lock
	dir := t.TempDir()
	first := NewDataLock(dir)
	require.NoError(t, first.TryLock())
	defer first.Unlock()

	// When: another handle tries to take it
	err := NewDataLock(dir).TryLock()

	// Then: it fails with a retryable lock error
	require.Error(t, err)
	assert.Equal(t, zerrors.ErrCodeLockHeld, zerrors.GetCode(err))
	assert.True(t, zerrors.IsRetryable(err))
}

func TestDataLock_ReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	first := NewDataLock(dir)
	require.NoError(t, first.TryLock())
	assert.True(t, first.Locked())
	require.NoError(t, first.Unlock())
	require.NoError(t, first.Unlock())

	second := NewDataLock(dir)
	require.NoError(t, second.TryLock())
	require.NoError(t, second.Unlock())
}

func TestDataLock_CreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested/.zenith"
	l := NewDataLock(dir)

	require.NoError(t, l.TryLock())
	defer l.Unlock()

	assert.FileExists(t, l.Path())
}
