package doctor

import (
	"fmt"
	"os"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/lock"
	"github.com/thoreinstein/diffsnap/internal/paths"
	"github.com/thoreinstein/diffsnap/internal/treestore"
)

// targetCheck carries what every per-target check needs.
type targetCheck struct {
	name   string
	target config.Target
	engine *backup.Engine
}

func (c *targetCheck) Category() string {
	return "target " + c.name
}

func (c *targetCheck) result(name string) *CheckResult {
	return &CheckResult{
		Name:     name,
		Category: c.Category(),
		Details:  map[string]any{},
	}
}

// TargetChecks returns the checks for one resolved target in the order they
// should run. opts are appended to the target's engine options.
func TargetChecks(name string, target config.Target, opts ...backup.Option) []Check {
	opts = append(target.EngineOptions(), opts...)
	base := &targetCheck{
		name:   name,
		target: target,
		engine: backup.NewEngine(target.Source, target.BackupRoot, opts...),
	}
	return []Check{
		&SourceCheck{base},
		&RootCheck{targetCheck: base},
		&BaselineCheck{base},
		&SeriesCheck{targetCheck: base},
		&LockCheck{base},
	}
}

// SourceCheck verifies the source directory exists and can be walked.
type SourceCheck struct{ *targetCheck }

// Name returns the unique identifier for this check.
func (c *SourceCheck) Name() string { return "source" }

// Run executes the source check.
func (c *SourceCheck) Run() *CheckResult {
	result := c.result(c.Name())
	result.Details["path"] = c.target.Source

	info, err := os.Stat(c.target.Source)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityError
		result.Message = "source directory does not exist: " + c.target.Source
		result.FixHint = "Check targets." + c.name + ".source in the config file"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat source: %v", err)
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = "source is not a directory: " + c.target.Source
		return result
	}

	var files int
	var size int64
	err = treestore.NewOS().WalkFiles(c.target.Source, func(_ string, fi os.FileInfo) error {
		files++
		size += fi.Size()
		return nil
	})
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read source tree: %v", err)
		return result
	}

	result.Details["files"] = files
	result.Details["bytes"] = size
	result.Status = SeverityPass
	result.Message = fmt.Sprintf("%d file(s), %d bytes", files, size)
	return result
}

// RootCheck verifies the backup root is a writable directory outside the
// source tree. A missing root is fixable.
type RootCheck struct {
	*targetCheck
	missing bool
}

var _ Fixer = (*RootCheck)(nil)

// Name returns the unique identifier for this check.
func (c *RootCheck) Name() string { return "backup-root" }

// Run executes the backup root check.
func (c *RootCheck) Run() *CheckResult {
	result := c.result(c.Name())
	root := c.target.BackupRoot
	result.Details["path"] = root
	c.missing = false

	if paths.Within(c.target.Source, root) {
		result.Status = SeverityError
		result.Message = "backup root is inside the source tree; a restore would delete it"
		result.FixHint = "Move targets." + c.name + ".backup_root outside " + c.target.Source
		return result
	}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		c.missing = true
		result.Status = SeverityWarning
		result.Message = "backup root does not exist yet"
		result.Fixable = true
		result.FixHint = "It is created by the first backup, or run: diffsnap doctor --fix"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat backup root: %v", err)
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = "backup root is not a directory"
		return result
	}

	probe, err := os.CreateTemp(root, ".diffsnap-doctor-*")
	if err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("backup root is not writable: %v", err)
		return result
	}
	probe.Close()
	os.Remove(probe.Name())

	result.Status = SeverityPass
	result.Message = "writable"
	return result
}

// BaselineCheck verifies the baseline snapshot exists.
type BaselineCheck struct{ *targetCheck }

// Name returns the unique identifier for this check.
func (c *BaselineCheck) Name() string { return "baseline" }

// Run executes the baseline check.
func (c *BaselineCheck) Run() *CheckResult {
	result := c.result(c.Name())
	result.Details["path"] = c.engine.BaselineDir()

	ok, err := c.engine.HasBaseline()
	switch {
	case err != nil:
		result.Status = SeverityError
		result.Message = err.Error()
	case !ok:
		result.Status = SeverityWarning
		result.Message = "no baseline snapshot; restores are impossible until one exists"
		result.FixHint = "Run: diffsnap backup baseline -t " + c.name
	default:
		result.Status = SeverityPass
		result.Message = "present"
	}
	return result
}

// SeriesCheck inspects the differential snapshots against the retention
// ceiling and their naming. A series over the ceiling is fixable.
type SeriesCheck struct {
	*targetCheck
	excess bool
}

var _ Fixer = (*SeriesCheck)(nil)

// Name returns the unique identifier for this check.
func (c *SeriesCheck) Name() string { return "differentials" }

// Run executes the differential series check.
func (c *SeriesCheck) Run() *CheckResult {
	result := c.result(c.Name())
	result.Details["retention"] = c.engine.Retention()
	c.excess = false

	diffs, err := c.engine.List()
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}
	result.Details["count"] = len(diffs)

	if len(diffs) == 0 {
		result.Status = SeverityInfo
		result.Message = "no differential snapshots yet"
		return result
	}

	var unparsable []string
	for _, d := range diffs {
		if d.CreatedAt.IsZero() {
			unparsable = append(unparsable, d.Name)
		}
	}
	latest := diffs[len(diffs)-1]
	result.Details["latest"] = latest.Name

	switch {
	case len(diffs) > c.engine.Retention():
		c.excess = true
		result.Status = SeverityWarning
		result.Fixable = true
		result.Message = fmt.Sprintf("%d differentials exceed retention %d", len(diffs), c.engine.Retention())
		result.FixHint = fmt.Sprintf("Run: diffsnap backup prune -t %s --keep %d", c.name, c.engine.Retention())
	case len(unparsable) > 0:
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("%d snapshot name(s) without a timestamp", len(unparsable))
		result.Details["unparsable"] = unparsable
		result.FixHint = "These sort by name among the timestamped snapshots, so retention and LATEST may treat them as older or newer than they are; rename or remove them"
	default:
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d differential(s), latest %s", len(diffs), latest.Display())
	}

	if stashes, err := c.engine.Stashes(); err == nil && len(stashes) > 0 {
		result.Details["stashes"] = stashes
	}
	return result
}

// LockCheck reports whether another diffsnap process holds the target lock.
type LockCheck struct{ *targetCheck }

// Name returns the unique identifier for this check.
func (c *LockCheck) Name() string { return "lock" }

// Run executes the lock check.
func (c *LockCheck) Run() *CheckResult {
	result := c.result(c.Name())
	result.Details["path"] = c.target.LockPath()

	held, err := lock.Held(c.target.LockPath())
	switch {
	case err != nil:
		result.Status = SeverityWarning
		result.Message = fmt.Sprintf("cannot probe lock: %v", err)
	case held:
		result.Status = SeverityWarning
		result.Message = "locked by another diffsnap process"
		result.FixHint = "Wait for the running backup or restore to finish"
	default:
		result.Status = SeverityPass
		result.Message = "free"
	}
	return result
}
