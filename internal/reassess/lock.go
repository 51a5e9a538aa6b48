package reassess

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockName is the lock file kept in the dataset root while files move.
const LockName = ".roofprep.lock"

// ErrLocked is returned when another run holds the dataset lock.
var ErrLocked = errors.New("dataset is locked by another roofprep run")

// Lock is an exclusive advisory lock on a dataset root.
type Lock struct {
	path  string
	flock *flock.Flock
}

// AcquireLock takes the dataset lock without waiting.
func AcquireLock(root string) (*Lock, error) {
	path := filepath.Join(root, LockName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
