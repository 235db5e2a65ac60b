// Package cli provides CLI-specific types and utilities for the diffsnap command.
package cli

import (
	"log/slog"
	"strings"

	"github.com/thoreinstein/diffsnap/internal/backup"
	"github.com/thoreinstein/diffsnap/internal/config"
	"github.com/thoreinstein/diffsnap/internal/errors"
	"github.com/thoreinstein/diffsnap/internal/lock"
	"github.com/thoreinstein/diffsnap/internal/logging"
)

// ErrNoTargets is returned when no target was selected and none is configured.
var ErrNoTargets = errors.Wrap(errors.ErrInvalidConfig, "no targets configured")

// Target is a resolved configuration target together with its name.
type Target struct {
	Name string
	config.Target
}

// ResolveTargets returns the targets named on the command line. With no
// names it falls back to default_targets, and then to the only configured
// target when there is exactly one.
func ResolveTargets(cfg *config.Config, names []string) ([]Target, error) {
	if len(names) == 0 {
		names = cfg.DefaultTargets
	}
	if len(names) == 0 {
		all := cfg.TargetNames()
		switch len(all) {
		case 0:
			return nil, errors.NewConfigError(ErrNoTargets)
		case 1:
			names = all
		default:
			return nil, errors.NewUserError(
				errors.Wrapf(errors.ErrUnknownTarget, "no target selected (configured: %s)", strings.Join(all, ", ")),
				"Pass --target or set default_targets in the config file",
			)
		}
	}

	targets := make([]Target, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		t, err := cfg.Resolve(name)
		if err != nil {
			if errors.Is(err, errors.ErrUnknownTarget) {
				return nil, errors.NewUserError(
					errors.Wrapf(err, "configured: %s", strings.Join(cfg.TargetNames(), ", ")),
					"Run: diffsnap config list",
				)
			}
			return nil, errors.NewConfigError(err)
		}
		targets = append(targets, Target{Name: name, Target: t})
	}
	return targets, nil
}

// Engine builds the backup engine for the target.
func (t Target) Engine(logger *slog.Logger, opts ...backup.Option) *backup.Engine {
	if logger != nil {
		logger = logger.With(logging.TargetKey, t.Name)
	}
	opts = append(t.EngineOptions(), append([]backup.Option{backup.WithLogger(logger)}, opts...)...)
	return backup.NewEngine(t.Source, t.BackupRoot, opts...)
}

// WithLock runs fn while holding the target's backup root lock.
func (t Target) WithLock(fn func() error) (err error) {
	l, err := lock.Acquire(t.LockPath())
	if err != nil {
		if errors.Is(err, errors.ErrLocked) {
			return errors.NewUserError(err, "Another backup or restore is running for target "+t.Name)
		}
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "releasing lock")
		}
	}()
	return fn()
}
