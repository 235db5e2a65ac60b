// Package lock serializes diffsnap processes working on the same backup
// root with an advisory file lock.
//
// The backup engine itself performs no locking. Every CLI command that
// reads or writes a backup root takes the lock first, so a scheduled
// backup and a manual restore cannot interleave.
package lock

import (
	"io"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

// Acquire takes the lock file at path without blocking and returns a
// Closer that releases it. The parent directory is created when missing.
// A lock held by another process yields an error matching errors.ErrLocked.
func Acquire(path string) (io.Closer, error) {
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating lock directory for %s", path)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "locking %s", path)
	}
	if !locked {
		return nil, errors.Wrapf(errors.ErrLocked, "%s, another diffsnap instance running?", path)
	}
	return fl, nil
}

// Held reports whether another process currently holds the lock at path.
// A missing lock file is not held.
func Held(path string) (bool, error) {
	ok, err := paths.Exists(path)
	if err != nil || !ok {
		return false, err
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return false, errors.Wrapf(err, "probing lock %s", path)
	}
	if !locked {
		return true, nil
	}
	return false, fl.Unlock()
}
