package store

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	zerrors "github.com/wrath-codes/zenith/internal/errors"
)

// LockFile is created inside the data directory by DataLock.
const LockFile = ".zen.lock"

// DataLock is a cross-process lock held by commands that write to the data
// directory. Readers do not take it.
type DataLock struct {
	flock  *flock.Flock
	locked bool
}

// NewDataLock returns an unlocked lock for dataDir.
func NewDataLock(dataDir string) *DataLock {
	return &DataLock{flock: flock.New(filepath.Join(dataDir, LockFile))}
}

// TryLock acquires the lock without blocking. It fails with
// ERR_204_LOCK_HELD when another process holds it.
func (l *DataLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return zerrors.New(zerrors.ErrCodeFileWrite, "create data directory", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return zerrors.IOError("acquire data lock", err)
	}
	if !ok {
		return zerrors.New(zerrors.ErrCodeLockHeld, "another zen process is writing to the data directory", nil).
			WithDetail("lock", l.flock.Path()).
			WithSuggestion("Wait for the other command to finish and retry")
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *DataLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return zerrors.IOError("release data lock", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *DataLock) Path() string { return l.flock.Path() }

// Locked reports whether this handle holds the lock.
func (l *DataLock) Locked() bool { return l.locked }
