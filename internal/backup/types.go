package backup

import (
	"time"

	"github.com/thoreinstein/diffsnap/internal/errors"
)

// Default configuration values.
const (
	// DefaultBaselineFolder is the directory name of the baseline snapshot
	// inside a backup root.
	DefaultBaselineFolder = "full_backup"

	// DefaultDiffPrefix prefixes every differential snapshot directory name.
	DefaultDiffPrefix = "diff_backup"

	// DefaultRetention is the retention ceiling: the maximum number of
	// differential snapshots kept in a backup root after a backup.
	DefaultRetention = 10

	// DefaultStashKeep is the number of pre-restore stash copies kept.
	DefaultStashKeep = 5

	// TimestampLayout is the time layout of a snapshot name suffix.
	TimestampLayout = "20060102150405"

	// DisplayLayout renders snapshot timestamps for people.
	DisplayLayout = "2006/01/02 15:04:05"

	// LatestName selects the newest differential wherever a name is accepted.
	LatestName = "LATEST"
)

// Sentinel errors for backup operations. All of them wrap errors.ErrNotFound
// and are returned before the source tree is touched.
var (
	// ErrBaselineNotFound indicates the baseline snapshot does not exist.
	ErrBaselineNotFound = errors.Wrap(errors.ErrNotFound, "baseline snapshot")

	// ErrDifferentialNotFound indicates the named differential snapshot does not exist.
	ErrDifferentialNotFound = errors.Wrap(errors.ErrNotFound, "differential snapshot")

	// ErrNoDifferentials indicates the backup root holds no differential snapshots.
	ErrNoDifferentials = errors.Wrap(errors.ErrNotFound, "no differential snapshots")

	// ErrNoStash indicates there is no pre-restore stash to undo to.
	ErrNoStash = errors.Wrap(errors.ErrNotFound, "no restore stash")
)

// Differential describes one differential snapshot directory.
type Differential struct {
	// Name is the directory name, e.g. "diff_backup_20250312120000".
	Name string `json:"name"`

	// Path is the full path of the directory.
	Path string `json:"path"`

	// CreatedAt is parsed from the name suffix. It is zero when the suffix
	// is not a valid timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Files lists the slash-separated relative paths captured by the
	// backup call that produced this snapshot. It is only populated by
	// Engine.Backup; listing does not walk snapshot contents.
	Files []string `json:"files,omitempty"`
}

// Display returns the human readable timestamp of the snapshot, or its
// name when the timestamp could not be parsed.
func (d Differential) Display() string {
	if d.CreatedAt.IsZero() {
		return d.Name
	}
	return d.CreatedAt.Format(DisplayLayout)
}
