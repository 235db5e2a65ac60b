// Package fileutil provides file system utilities including atomic write
// operations and encoding of configuration values.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// tempPattern names the scratch file that becomes the destination.
const tempPattern = ".diffsnap-*.tmp"

// AtomicWriteFile writes data to path on the OS filesystem with
// WriteAtomic.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return WriteAtomic(afero.NewOsFs(), path, data, perm)
}

// WriteAtomic writes data to a temporary file next to path and renames it
// into place, so an interrupted write leaves the previous file intact.
// The parent directory must exist.
func WriteAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := afero.TempFile(fsys, filepath.Dir(path), tempPattern)
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	if err = fsys.Chmod(tmpName, perm); err != nil {
		return errors.Wrap(err, "setting file permissions")
	}
	if err = fsys.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "renaming temp file")
	}
	return nil
}

// AtomicWriteEncoded encodes v in format and writes it to path atomically.
// Nothing is written when encoding fails.
func AtomicWriteEncoded(path string, v any, format Format, perm os.FileMode) error {
	data, err := Marshal(v, format)
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, data, perm)
}

// AtomicWriteYAML writes v as YAML to path atomically with 0644
// permissions. Configuration files are always written this way.
func AtomicWriteYAML(path string, v any) error {
	return AtomicWriteEncoded(path, v, FormatYAML, 0o644)
}
