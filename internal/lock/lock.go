// Package lock provides the single cross-process mutation lock. All brd
// invocations against a repository, from any of its worktrees, contend on
// one advisory file lock under the shared git directory.
package lock

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/braid-dev/brd/internal/errs"
)

// Lock is a held exclusive lock. Release it on every exit path.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the exclusive lock at path, blocking until available.
// The lock file and its parent directory are created on demand and never
// removed.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.IO(err, "create lock directory")
	}
	fl := flock.New(path)
	if err := fl.Lock(); err != nil {
		return nil, errs.IO(err, "acquire lock %s", path)
	}
	return &Lock{fl: fl}, nil
}

// TryAcquire takes the lock without blocking. If another process holds it,
// the returned error says so.
func TryAcquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errs.IO(err, "create lock directory")
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, errs.IO(err, "acquire lock %s", path)
	}
	if !ok {
		return nil, errs.New(errs.LockBusy, "lock %s is held by another process", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call on a nil receiver.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
