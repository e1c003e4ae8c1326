// Package instance provides the single-instance guard. Two engines warping
// the same pointer would fight each other, so the first process takes an
// advisory flock on a well-known file and everyone else exits.
package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrAlreadyRunning reports that another process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held advisory file lock.
type Lock struct {
	f    *os.File
	path string
}

// DefaultPath places the lock file in XDG_RUNTIME_DIR when available,
// falling back to the system temp directory.
func DefaultPath(name string) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(os.TempDir(), name)
}

// Acquire takes an exclusive non-blocking flock on path, creating the file
// if needed, and records our pid in it for debugging.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	f.Truncate(0)
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{f: f, path: path}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
	os.Remove(l.path)
}
