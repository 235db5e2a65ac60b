package doctor

import (
	"fmt"

	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/lock"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

// Fixer is implemented by checks that can repair what their last Run found.
type Fixer interface {
	CanFix() bool
	Fix() []FixResult
}

// FixResult is the outcome of one repair.
type FixResult struct {
	Path        string `json:"path"`
	Fixed       bool   `json:"fixed"`
	Description string `json:"description"`
	Error       error  `json:"-"`
}

// CanFix returns true when the last Run found the backup root missing.
func (c *RootCheck) CanFix() bool {
	return c.missing
}

// Fix creates the missing backup root.
func (c *RootCheck) Fix() []FixResult {
	if !c.missing {
		return nil
	}

	root := c.target.BackupRoot
	result := FixResult{Path: root}
	if err := paths.EnsureDir(root, 0o755); err != nil {
		result.Description = "failed to create backup root"
		result.Error = errors.Wrapf(err, "creating %s", root)
		return []FixResult{result}
	}

	c.missing = false
	result.Fixed = true
	result.Description = "created backup root"
	return []FixResult{result}
}

// CanFix returns true when the last Run found more differentials than the
// retention ceiling allows.
func (c *SeriesCheck) CanFix() bool {
	return c.excess
}

// Fix prunes the oldest differentials down to the retention ceiling while
// holding the target lock.
func (c *SeriesCheck) Fix() []FixResult {
	if !c.excess {
		return nil
	}

	result := FixResult{Path: c.target.BackupRoot}
	l, err := lock.Acquire(c.target.LockPath())
	if err != nil {
		result.Description = "failed to prune differentials"
		result.Error = err
		return []FixResult{result}
	}
	defer l.Close()

	removed, err := c.engine.Prune(c.engine.Retention())
	if err != nil {
		result.Description = fmt.Sprintf("pruned %d differential(s) before failing", len(removed))
		result.Error = err
		return []FixResult{result}
	}

	c.excess = false
	result.Fixed = true
	result.Description = fmt.Sprintf("pruned %d differential(s) over retention %d", len(removed), c.engine.Retention())
	return []FixResult{result}
}
