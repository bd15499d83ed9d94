package mux

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"vodsub/internal/services"
)

// LockSuffix is appended to the result path to name its lock file.
const LockSuffix = ".lock"

// ResultLock is an exclusive advisory lock on a result path. It keeps two runs
// from publishing to the same file at once.
type ResultLock struct {
	path string
	lock *flock.Flock
}

// LockResult acquires the lock for result without waiting. A lock held by
// another process fails immediately with a validation error.
func LockResult(result string) (*ResultLock, error) {
	lockPath := result + LockSuffix
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "lock result", "ensure results directory", err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "lock result", "acquire lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, stageName, "lock result",
			fmt.Sprintf("another run is writing %s", result), nil)
	}
	return &ResultLock{path: lockPath, lock: lock}, nil
}

// Path returns the lock file path.
func (l *ResultLock) Path() string {
	return l.path
}

// Release unlocks the result path. The lock file stays on disk so a waiting
// process never locks an unlinked inode.
func (l *ResultLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
