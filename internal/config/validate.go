package config

import (
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/paths"
)

// Validation errors for configuration fields. Each of them matches
// errors.ErrInvalidConfig.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.Wrap(errors.ErrInvalidConfig, "version must be >= 1")

	// ErrMissingSource indicates a target without a source directory.
	ErrMissingSource = errors.Wrap(errors.ErrInvalidConfig, "source is required")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.Wrap(errors.ErrInvalidConfig, "invalid path")

	// ErrInvalidName indicates a folder name or prefix that is not a single
	// path element.
	ErrInvalidName = errors.Wrap(errors.ErrInvalidConfig, "must be a single directory name")

	// ErrNameCollision indicates a folder whose name would be taken for a
	// differential snapshot and pruned by retention.
	ErrNameCollision = errors.Wrap(errors.ErrInvalidConfig, "collides with the differential prefix")

	// ErrNegative indicates a count below zero.
	ErrNegative = errors.Wrap(errors.ErrInvalidConfig, "must not be negative")

	// ErrInvalidSchedule indicates a schedule that cron cannot parse.
	ErrInvalidSchedule = errors.Wrap(errors.ErrInvalidConfig, "invalid schedule")

	// ErrNestedBackupRoot indicates a backup root inside its own source tree.
	// A restore deletes the source and would take the snapshots with it.
	ErrNestedBackupRoot = errors.Wrap(errors.ErrInvalidConfig, "backup_root must not be inside source")
)

// scheduleParser accepts standard five-field expressions and descriptors
// such as "@hourly" and "@every 30m".
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a target schedule expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSchedule, "%q: %v", spec, err)
	}
	return sched, nil
}

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.Wrap(errors.ErrInvalidConfig, "config is nil")}
	}

	var errs []error

	// Version must be >= 1
	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	for _, name := range cfg.DefaultTargets {
		if _, ok := cfg.Targets[name]; !ok {
			errs = append(errs, errors.Wrapf(errors.ErrUnknownTarget, "default_targets: %q", name))
		}
	}

	for _, name := range cfg.TargetNames() {
		errs = append(errs, validateTarget(name, cfg.Targets[name].withDefaults(name))...)
	}

	return errs
}

// validateTarget checks a target that already has defaults applied.
func validateTarget(name string, t Target) []error {
	var errs []error
	add := func(field string, err error) {
		errs = append(errs, &TargetError{Target: name, Field: field, Err: err})
	}

	if t.Source == "" {
		add("source", ErrMissingSource)
	} else if err := validatePath(t.Source); err != nil {
		add("source", err)
	}
	if err := validatePath(t.BackupRoot); err != nil {
		add("backup_root", err)
	}
	if t.Source != "" && paths.Within(t.Source, t.BackupRoot) {
		add("backup_root", ErrNestedBackupRoot)
	}

	if !validName(t.BaselineFolder) {
		add("baseline_folder", ErrInvalidName)
	} else if strings.HasPrefix(t.BaselineFolder, t.DiffPrefix+"_") {
		add("baseline_folder", ErrNameCollision)
	}
	if !validName(t.DiffPrefix) {
		add("diff_prefix", ErrInvalidName)
	}
	if t.Retention < 0 {
		add("retention", ErrNegative)
	}

	if t.Schedule != "" {
		if _, err := ParseSchedule(t.Schedule); err != nil {
			add("schedule", err)
		}
	}

	if t.Stash.Enabled {
		switch {
		case !validName(t.Stash.Folder):
			add("stash.folder", ErrInvalidName)
		case strings.HasPrefix(t.Stash.Folder, t.DiffPrefix+"_"), t.Stash.Folder == t.BaselineFolder:
			add("stash.folder", ErrNameCollision)
		}
		if !validName(t.Stash.Prefix) {
			add("stash.prefix", ErrInvalidName)
		}
		if t.Stash.Keep < 0 {
			add("stash.keep", ErrNegative)
		}
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}

	return nil
}

// validName reports whether name is usable as a single directory name.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

// TargetError represents an error for a specific target field.
type TargetError struct {
	Target string
	Field  string
	Err    error
}

func (e *TargetError) Error() string {
	return "targets." + e.Target + "." + e.Field + ": " + e.Err.Error()
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
