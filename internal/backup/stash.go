package backup

import (
	"path/filepath"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// StashDir returns the directory holding pre-restore stash copies, or ""
// when the stash is disabled.
func (e *Engine) StashDir() string {
	if e.stashKeep < 1 {
		return ""
	}
	return filepath.Join(e.root, e.stashFolder)
}

// Stashes returns the names of the pre-restore stash copies, oldest first.
func (e *Engine) Stashes() ([]string, error) {
	if e.stashKeep < 1 {
		return nil, nil
	}
	return e.seriesNames(e.StashDir(), e.stashPrefix)
}

// stash copies the current source tree into a new stash entry after
// dropping the oldest entries beyond the stash limit. A missing source
// produces no entry. Returns the stash path, or "" when nothing was copied.
func (e *Engine) stash() (string, error) {
	exists, err := e.store.DirExists(e.source)
	if err != nil {
		return "", err
	}
	if !exists {
		e.logger.Debug("source missing, nothing to stash", "source", e.source)
		return "", nil
	}

	dir := e.StashDir()
	names, err := e.seriesNames(dir, e.stashPrefix)
	if err != nil {
		return "", err
	}
	for len(names) >= e.stashKeep {
		oldest := filepath.Join(dir, names[0])
		names = names[1:]
		if err := e.store.RemoveAll(oldest); err != nil {
			return "", err
		}
		e.logger.Debug("removed old stash", "path", e.rootRelative(oldest))
	}

	path := filepath.Join(dir, SnapshotName(e.stashPrefix, e.now()))
	if err := e.store.RemoveAll(path); err != nil {
		return "", err
	}
	if err := e.store.CopyTree(e.source, path); err != nil {
		return "", errors.Wrap(err, "stashing source before restore")
	}

	e.logger.Info("stashed source", "path", e.rootRelative(path))
	return path, nil
}

// Undo replaces the source tree with the newest pre-restore stash copy and
// returns the name of the stash used. The stash entry is kept.
func (e *Engine) Undo() (string, error) {
	names, err := e.Stashes()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errors.Wrapf(ErrNoStash, "in %s", e.root)
	}

	latest := names[len(names)-1]
	path := filepath.Join(e.StashDir(), latest)

	e.logger.Info("undoing restore", "source", e.source, "stash", latest)

	if err := e.store.RemoveAll(e.source); err != nil {
		return "", errors.Wrap(err, "clearing source")
	}
	if err := e.store.CopyTree(path, e.source); err != nil {
		return "", errors.Wrapf(err, "copying stash %s into source", latest)
	}
	return latest, nil
}
