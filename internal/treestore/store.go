// Package treestore copies, compares, walks and removes directory trees on an
// [afero.Fs].
//
// The backup engine performs every filesystem side effect through a [Store],
// so production code runs against the OS filesystem while tests run against
// an in-memory [afero.MemMapFs] and assert exact tree contents.
package treestore

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// DirPerm is the mode of directories while they are being filled, and of
// parents created implicitly for a single copied file.
const DirPerm = 0o755

// compareChunk is the buffer size used when comparing file contents.
const compareChunk = 32 * 1024

// Store performs whole-tree operations on a filesystem.
type Store struct {
	fs afero.Fs
}

// New returns a Store backed by fsys. A nil fsys selects the OS filesystem.
func New(fsys afero.Fs) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys}
}

// NewOS returns a Store backed by the OS filesystem.
func NewOS() *Store {
	return New(afero.NewOsFs())
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) (bool, error) {
	ok, err := afero.Exists(s.fs, path)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", path)
	}
	return ok, nil
}

// DirExists reports whether path exists and is a directory.
func (s *Store) DirExists(path string) (bool, error) {
	ok, err := afero.DirExists(s.fs, path)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", path)
	}
	return ok, nil
}

// MkdirAll creates path and any missing parents.
func (s *Store) MkdirAll(path string) error {
	return errors.Wrapf(s.fs.MkdirAll(path, DirPerm), "creating directory %s", path)
}

// RemoveAll deletes path and everything below it. A missing path is not an
// error. Read-only directories below path are made writable and the removal
// is retried once.
func (s *Store) RemoveAll(path string) error {
	err := s.fs.RemoveAll(path)
	if err == nil {
		return nil
	}
	if s.unlockDirs(path) {
		err = s.fs.RemoveAll(path)
	}
	return errors.Wrapf(err, "removing %s", path)
}

// unlockDirs adds owner write and search permission to every directory below
// path that lacks it, and reports whether any mode changed.
func (s *Store) unlockDirs(path string) bool {
	changed := false
	_ = afero.Walk(s.fs, path, func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if perm := info.Mode().Perm(); perm&0o300 != 0o300 {
			if s.fs.Chmod(p, perm|0o700) == nil {
				changed = true
			}
		}
		return nil
	})
	return changed
}

// MakeRoom removes whatever would stop a regular file from being written at
// root/rel: a directory or other non-regular entry at that path, or a
// non-directory standing where one of its parents below root belongs.
func (s *Store) MakeRoom(root, rel string) error {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	p := root
	for i, part := range parts {
		p = filepath.Join(p, part)
		info, err := s.lstat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "stat %s", p)
		}
		last := i == len(parts)-1
		if (last && !info.Mode().IsRegular()) || (!last && !info.IsDir()) {
			return s.RemoveAll(p)
		}
	}
	return nil
}

// ReadDir returns the entries of dir sorted by name.
func (s *Store) ReadDir(dir string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", dir)
	}
	return entries, nil
}

// WalkFunc is called for each regular file below a walked root.
// rel is the slash-separated path relative to the root.
type WalkFunc func(rel string, info os.FileInfo) error

// WalkFiles calls fn for every regular file below root in lexical order.
// Symbolic links are followed, so a link to a directory contributes the
// files below its target. Any error aborts the walk and is returned.
func (s *Store) WalkFiles(root string, fn WalkFunc) error {
	return s.walk(root, func(rel string, info os.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		return fn(filepath.ToSlash(rel), info)
	})
}

// CopyTree recursively copies src to dst, including empty directories.
// Directory and file modes and modification times are preserved, and
// symbolic links are copied as the files or directories they point at.
// dst must not exist yet; its parent is created when missing.
func (s *Store) CopyTree(src, dst string) error {
	info, err := s.fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}
	if !info.IsDir() {
		return errors.Newf("copying tree: %s is not a directory", src)
	}
	if ok, err := s.Exists(dst); err != nil {
		return err
	} else if ok {
		return errors.Newf("copying tree: destination %s already exists", dst)
	}
	if err := s.fs.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
		return errors.Wrapf(err, "creating parent of %s", dst)
	}

	// Directories stay writable until their contents are in place.
	type dirAttrs struct {
		path string
		info os.FileInfo
	}
	var dirs []dirAttrs

	err = s.walk(src, func(rel string, info os.FileInfo) error {
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			if err := s.fs.MkdirAll(target, DirPerm); err != nil {
				return errors.Wrapf(err, "creating directory %s", target)
			}
			dirs = append(dirs, dirAttrs{path: target, info: info})
			return nil
		}
		return s.copyFile(filepath.Join(src, rel), target, info)
	})
	if err != nil {
		return err
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := s.fs.Chmod(d.path, d.info.Mode().Perm()); err != nil {
			return errors.Wrapf(err, "setting mode of %s", d.path)
		}
		mtime := d.info.ModTime()
		if err := s.fs.Chtimes(d.path, mtime, mtime); err != nil {
			return errors.Wrapf(err, "setting times of %s", d.path)
		}
	}
	return nil
}

// CopyFile copies a single regular file from src to dst, creating missing
// parent directories and overwriting dst. Mode and modification time follow
// the source.
func (s *Store) CopyFile(src, dst string) error {
	info, err := s.fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}
	if !info.Mode().IsRegular() {
		return errors.Newf("copying %s: not a regular file", src)
	}
	if err := s.fs.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
		return errors.Wrapf(err, "creating parent of %s", dst)
	}
	return s.copyFile(src, dst, info)
}

func (s *Store) copyFile(src, dst string, info os.FileInfo) error {
	in, err := s.fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", dst)
	}

	if err := s.fs.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "setting mode of %s", dst)
	}
	mtime := info.ModTime()
	if err := s.fs.Chtimes(dst, mtime, mtime); err != nil {
		return errors.Wrapf(err, "setting times of %s", dst)
	}
	return nil
}

// SameContent reports whether a and b hold identical bytes.
// Sizes are compared first; equal sizes fall through to a full comparison.
func (s *Store) SameContent(a, b string) (bool, error) {
	ai, err := s.fs.Stat(a)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", a)
	}
	bi, err := s.fs.Stat(b)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", b)
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	fa, err := s.fs.Open(a)
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", a)
	}
	defer fa.Close()
	fb, err := s.fs.Open(b)
	if err != nil {
		return false, errors.Wrapf(err, "opening %s", b)
	}
	defer fb.Close()

	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA, err := readDone(errA, a)
		if err != nil {
			return false, err
		}
		doneB, err := readDone(errB, b)
		if err != nil {
			return false, err
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

func readDone(err error, path string) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true, nil
	default:
		return false, errors.Wrapf(err, "reading %s", path)
	}
}

// walk visits root and everything below it in lexical order, calling fn for
// directories (root itself as ".") and regular files. Symbolic links are
// resolved and visited as their targets; other entry types are skipped.
// A link that leads back to one of its own ancestors is an error.
func (s *Store) walk(root string, fn func(rel string, info os.FileInfo) error) error {
	info, err := s.fs.Stat(root)
	if err != nil {
		return errors.Wrapf(err, "walking %s", root)
	}
	return s.walkEntry(root, ".", info, nil, fn)
}

func (s *Store) walkEntry(path, rel string, info os.FileInfo, ancestors []os.FileInfo, fn func(string, os.FileInfo) error) error {
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil
		}
		return fn(rel, info)
	}
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			return errors.Newf("walking %s: symbolic link loop", path)
		}
	}
	if err := fn(rel, info); err != nil {
		return err
	}

	entries, err := afero.ReadDir(s.fs, path)
	if err != nil {
		return errors.Wrapf(err, "reading directory %s", path)
	}
	ancestors = append(ancestors, info)
	for _, entry := range entries {
		name := entry.Name()
		child := filepath.Join(path, name)
		if entry.Mode()&fs.ModeSymlink != 0 {
			if entry, err = s.fs.Stat(child); err != nil {
				return errors.Wrapf(err, "following link %s", child)
			}
		}
		if err := s.walkEntry(child, filepath.Join(rel, name), entry, ancestors, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) lstat(path string) (os.FileInfo, error) {
	if l, ok := s.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}
