package fileutil

import (
	"io"

	"github.com/spf13/afero"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// MaxFileSize bounds configuration files read with ReadFileWithLimit.
const MaxFileSize = 1 << 20

// ErrFileTooLarge indicates that a file exceeded the read limit.
var ErrFileTooLarge = errors.New("file too large")

// ReadFileWithLimit reads path from the OS filesystem, rejecting files
// larger than MaxFileSize.
func ReadFileWithLimit(path string) ([]byte, error) {
	return ReadLimit(afero.NewOsFs(), path, MaxFileSize)
}

// ReadLimit reads path from fsys. A file of more than limit bytes yields an
// error matching ErrFileTooLarge, even when the size reported by Stat is
// wrong, as it is for some special files.
func ReadLimit(fsys afero.Fs, path string, limit int64) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes, limit %d", path, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}
	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s exceeds %d bytes", path, limit)
	}
	return data, nil
}
