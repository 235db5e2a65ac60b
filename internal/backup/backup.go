package backup

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/treestore"
)

// Engine maintains one baseline snapshot and a bounded series of
// differential snapshots of a source directory.
//
// The engine holds no state between calls beyond its configuration: every
// operation rediscovers the backup root from the filesystem. It performs no
// locking; callers must not run operations on the same backup root
// concurrently.
type Engine struct {
	source         string
	root           string
	baselineFolder string
	diffPrefix     string
	retention      int

	stashFolder string
	stashPrefix string
	stashKeep   int

	store  *treestore.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBaselineFolder sets the baseline directory name inside the backup root.
func WithBaselineFolder(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.baselineFolder = name
		}
	}
}

// WithDiffPrefix sets the differential directory name prefix.
func WithDiffPrefix(prefix string) Option {
	return func(e *Engine) {
		if prefix != "" {
			e.diffPrefix = prefix
		}
	}
}

// WithRetention sets the retention ceiling. Values below 1 are ignored.
func WithRetention(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retention = n
		}
	}
}

// WithStash enables copying the current source tree into
// <root>/<folder>/<prefix>_<timestamp> before each restore, keeping the
// newest keep copies. keep below 1 disables the stash.
func WithStash(folder, prefix string, keep int) Option {
	return func(e *Engine) {
		if keep < 1 || folder == "" {
			e.stashKeep = 0
			return
		}
		e.stashFolder = folder
		e.stashPrefix = prefix
		if e.stashPrefix == "" {
			e.stashPrefix = folder
		}
		e.stashKeep = keep
	}
}

// WithFs sets the filesystem the engine operates on.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) {
		if fsys != nil {
			e.store = treestore.New(fsys)
		}
	}
}

// WithClock sets the time source used to name snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine backing up source into root.
func NewEngine(source, root string, opts ...Option) *Engine {
	e := &Engine{
		source:         source,
		root:           root,
		baselineFolder: DefaultBaselineFolder,
		diffPrefix:     DefaultDiffPrefix,
		retention:      DefaultRetention,
		store:          treestore.NewOS(),
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the source directory.
func (e *Engine) Source() string { return e.source }

// Root returns the backup root directory.
func (e *Engine) Root() string { return e.root }

// BaselineDir returns the path of the baseline snapshot.
func (e *Engine) BaselineDir() string { return filepath.Join(e.root, e.baselineFolder) }

// DiffPrefix returns the differential name prefix.
func (e *Engine) DiffPrefix() string { return e.diffPrefix }

// Retention returns the retention ceiling.
func (e *Engine) Retention() int { return e.retention }

// HasBaseline reports whether the baseline snapshot directory exists.
func (e *Engine) HasBaseline() (bool, error) {
	return e.store.DirExists(e.BaselineDir())
}

// CreateBaseline copies the whole source tree into the baseline directory
// unless a baseline already exists, in which case it does nothing. An
// existing baseline is never inspected or repaired.
func (e *Engine) CreateBaseline() error {
	baseline := e.BaselineDir()

	exists, err := e.store.Exists(baseline)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Debug("baseline already exists", "path", baseline)
		return nil
	}

	e.logger.Info("creating baseline", "source", e.source, "path", baseline)
	if err := e.store.CopyTree(e.source, baseline); err != nil {
		return errors.Wrap(err, "creating baseline")
	}
	return nil
}

// Backup captures every source file that is new or differs from the
// baseline into a new differential snapshot named after the current second.
//
// The baseline is created first when missing, and retention is enforced
// before the new snapshot is added. Files deleted from the source since the
// baseline are not recorded. A backup within the same second as the
// previous one writes into the same directory.
//
// On error the partially written snapshot is left in place.
func (e *Engine) Backup() (*Differential, error) {
	if err := e.CreateBaseline(); err != nil {
		return nil, err
	}
	if err := e.CleanupOldBackups(); err != nil {
		return nil, err
	}

	created := e.now()
	name := SnapshotName(e.diffPrefix, created)
	diffDir := filepath.Join(e.root, name)

	if err := e.store.MkdirAll(diffDir); err != nil {
		return nil, errors.Wrap(err, "creating differential directory")
	}

	baseline := e.BaselineDir()
	var files []string

	err := e.store.WalkFiles(e.source, func(rel string, _ os.FileInfo) error {
		native := filepath.FromSlash(rel)
		src := filepath.Join(e.source, native)

		changed, err := e.changed(src, filepath.Join(baseline, native))
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		e.logger.Debug("capturing file", "file", rel)
		if err := e.store.CopyFile(src, filepath.Join(diffDir, native)); err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "writing differential %s", name)
	}

	e.logger.Info("differential backup completed", "name", name, "files", len(files))

	return &Differential{
		Name:      name,
		Path:      diffDir,
		CreatedAt: created.Truncate(time.Second),
		Files:     files,
	}, nil
}

// changed reports whether the source file must be captured: the baseline
// has no regular file at the same relative path, or its bytes differ.
func (e *Engine) changed(src, base string) (bool, error) {
	info, err := e.store.Fs().Stat(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return true, nil
		}
		return false, errors.Wrapf(err, "stat %s", base)
	}
	if !info.Mode().IsRegular() {
		return true, nil
	}
	same, err := e.store.SameContent(src, base)
	if err != nil {
		return false, err
	}
	return !same, nil
}

// CleanupOldBackups removes the oldest differential snapshots while their
// count is at or above the retention ceiling, leaving room for one more.
func (e *Engine) CleanupOldBackups() error {
	_, err := e.pruneTo(e.retention - 1)
	return err
}

// Prune removes the oldest differential snapshots until at most keep remain
// and returns the removed names, oldest first.
func (e *Engine) Prune(keep int) ([]string, error) {
	if keep < 0 {
		return nil, errors.New("keep must be non-negative")
	}
	return e.pruneTo(keep)
}

func (e *Engine) pruneTo(keep int) ([]string, error) {
	names, err := e.seriesNames(e.root, e.diffPrefix)
	if err != nil {
		return nil, err
	}

	var removed []string
	for len(names) > keep {
		oldest := names[0]
		names = names[1:]
		if err := e.store.RemoveAll(filepath.Join(e.root, oldest)); err != nil {
			return removed, errors.Wrapf(err, "removing old differential %s", oldest)
		}
		e.logger.Info("removed old differential backup", "name", oldest)
		removed = append(removed, oldest)
	}
	return removed, nil
}

// seriesNames returns the names of the directories in dir that start with
// "<prefix>_", sorted by name. A missing dir yields no names.
func (e *Engine) seriesNames(dir, prefix string) ([]string, error) {
	exists, err := e.store.DirExists(dir)
	if err != nil || !exists {
		return nil, err
	}

	entries, err := e.store.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && HasPrefix(prefix, entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// List returns the differential snapshots in the backup root, oldest first.
func (e *Engine) List() ([]Differential, error) {
	names, err := e.seriesNames(e.root, e.diffPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing differentials")
	}

	diffs := make([]Differential, 0, len(names))
	for _, name := range names {
		created, _ := ParseName(e.diffPrefix, name)
		diffs = append(diffs, Differential{
			Name:      name,
			Path:      filepath.Join(e.root, name),
			CreatedAt: created,
		})
	}
	return diffs, nil
}

// Latest returns the newest differential snapshot.
func (e *Engine) Latest() (*Differential, error) {
	diffs, err := e.List()
	if err != nil {
		return nil, err
	}
	if len(diffs) == 0 {
		return nil, errors.Wrapf(ErrNoDifferentials, "in %s", e.root)
	}
	return &diffs[len(diffs)-1], nil
}

// Get returns the differential snapshot with the given name. LatestName
// selects the newest one.
func (e *Engine) Get(name string) (*Differential, error) {
	if name == LatestName {
		return e.Latest()
	}
	if !validEntryName(name) || !HasPrefix(e.diffPrefix, name) {
		return nil, errors.Wrapf(ErrDifferentialNotFound, "%q", name)
	}

	dir := filepath.Join(e.root, name)
	exists, err := e.store.DirExists(dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(ErrDifferentialNotFound, "%q", name)
	}

	created, _ := ParseName(e.diffPrefix, name)
	return &Differential{Name: name, Path: dir, CreatedAt: created}, nil
}

// Restore rebuilds the source tree from the baseline plus the named
// differential. A differential file replaces whatever the baseline holds at
// the same relative path, even a directory. Files present in only one of the
// two are kept.
//
// Missing snapshots are reported with ErrBaselineNotFound or
// ErrDifferentialNotFound before anything is modified. After that the
// source tree is deleted and rewritten in place; an interruption leaves it
// partially restored.
func (e *Engine) Restore(name string) error {
	hasBaseline, err := e.HasBaseline()
	if err != nil {
		return err
	}
	if !hasBaseline {
		return errors.Wrapf(ErrBaselineNotFound, "at %s", e.BaselineDir())
	}

	diff, err := e.Get(name)
	if err != nil {
		return err
	}

	if e.stashKeep > 0 {
		if _, err := e.stash(); err != nil {
			return err
		}
	}

	e.logger.Info("restoring", "source", e.source, "differential", diff.Name)

	if err := e.store.RemoveAll(e.source); err != nil {
		return errors.Wrap(err, "clearing source")
	}
	if err := e.store.CopyTree(e.BaselineDir(), e.source); err != nil {
		return errors.Wrap(err, "copying baseline into source")
	}

	err = e.store.WalkFiles(diff.Path, func(rel string, _ os.FileInfo) error {
		native := filepath.FromSlash(rel)
		if err := e.store.MakeRoom(e.source, native); err != nil {
			return err
		}
		return e.store.CopyFile(filepath.Join(diff.Path, native), filepath.Join(e.source, native))
	})
	if err != nil {
		return errors.Wrapf(err, "applying differential %s", diff.Name)
	}

	e.logger.Info("restore completed", "differential", diff.Name)
	return nil
}

// rootRelative trims the backup root from path for log output.
func (e *Engine) rootRelative(path string) string {
	rel, err := filepath.Rel(e.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
